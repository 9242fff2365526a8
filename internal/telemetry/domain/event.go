package domain

import "time"

// Event types emitted by the client.
const (
	EventLoginSuccess            = "login_success"
	EventLoginFailure            = "login_failure"
	EventPinCreated              = "pin_created"
	EventTransferSubmitted       = "transfer_submitted"
	EventTransferSucceeded       = "transfer_succeeded"
	EventTransferFailed          = "transfer_failed"
	EventTransferCancelled       = "transfer_cancelled"
	EventAccountRequestSubmitted = "account_request_submitted"
	EventAccountRequestApproved  = "account_request_approved"
	EventAccountRequestRejected  = "account_request_rejected"
)

// Event is a client telemetry event (optional user and transfer session).
// Metadata is JSON and never carries secrets such as PINs, passwords or tokens.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Role      string    `json:"role,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	EventType string    `json:"eventType"`
	Source    string    `json:"source"`
	Metadata  []byte    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
