package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	accountdomain "bankdesk/internal/account/domain"
)

// Default comments used when staff leave the comments field empty.
const (
	DefaultApproveComments = "Approved after verification"
	DefaultRejectComments  = "Request rejected"
)

var (
	ErrRequestIDRequired  = errors.New("request id is required")
	ErrReasonRequired     = errors.New("rejection reason is required")
	ErrInvalidAccountType = errors.New("account type must be SAVINGS, CURRENT or FIXED_DEPOSIT")
	ErrNegativeDeposit    = errors.New("initial deposit must not be negative")
	ErrUserIDRequired     = errors.New("user id is required")
)

// AccountRequest is a customer's request to open an account, reviewed by staff.
type AccountRequest struct {
	ID              string
	RequestID       string
	UserID          string
	CustomerName    string
	CustomerPhone   string
	AccountType     accountdomain.Type
	InitialDeposit  decimal.Decimal
	Status          Status
	StaffComments   string
	RejectionReason string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusUnderReview Status = "UNDER_REVIEW"
)

// Draft is a new account request before submission.
type Draft struct {
	UserID         string
	AccountType    accountdomain.Type
	InitialDeposit decimal.Decimal
}

// Validate normalizes the account type and checks the draft.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.UserID) == "" {
		return ErrUserIDRequired
	}
	d.AccountType = accountdomain.Type(strings.ToUpper(strings.TrimSpace(string(d.AccountType))))
	if !d.AccountType.Valid() {
		return ErrInvalidAccountType
	}
	if d.InitialDeposit.IsNegative() {
		return ErrNegativeDeposit
	}
	return nil
}

// ApproveCommand approves a pending request. Comments are optional.
type ApproveCommand struct {
	RequestID string
	Comments  string
}

// Validate checks the command and fills default comments.
func (c *ApproveCommand) Validate() error {
	if strings.TrimSpace(c.RequestID) == "" {
		return ErrRequestIDRequired
	}
	c.Comments = strings.TrimSpace(c.Comments)
	if c.Comments == "" {
		c.Comments = DefaultApproveComments
	}
	return nil
}

// RejectCommand rejects a pending request. Reason is required; comments are optional.
type RejectCommand struct {
	RequestID string
	Reason    string
	Comments  string
}

// Validate checks the command and fills default comments.
func (c *RejectCommand) Validate() error {
	if strings.TrimSpace(c.RequestID) == "" {
		return ErrRequestIDRequired
	}
	c.Reason = strings.TrimSpace(c.Reason)
	if c.Reason == "" {
		return ErrReasonRequired
	}
	c.Comments = strings.TrimSpace(c.Comments)
	if c.Comments == "" {
		c.Comments = DefaultRejectComments
	}
	return nil
}
