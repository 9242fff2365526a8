package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a ledger entry as reported by the API.
type Transaction struct {
	ID                     string          `json:"id"`
	TransactionID          string          `json:"transactionId"`
	Type                   Type            `json:"transactionType"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description"`
	Status                 Status          `json:"status"`
	Date                   time.Time       `json:"transactionDate"`
	FromAccountNumber      string          `json:"fromAccountNumber,omitempty"`
	ToAccountNumber        string          `json:"toAccountNumber,omitempty"`
	RecipientPhone         string          `json:"recipientPhone,omitempty"`
	RecipientAccountNumber string          `json:"recipientAccountNumber,omitempty"`
}

type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
	TypeTransfer   Type = "TRANSFER"
	TypePayment    Type = "PAYMENT"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Direction is how a transaction reads from the viewing user's side.
type Direction string

const (
	DirectionCredit   Direction = "Credit"
	DirectionDebit    Direction = "Debit"
	DirectionSent     Direction = "Sent"
	DirectionReceived Direction = "Received"
	DirectionUnknown  Direction = "Unknown"
)

// Outgoing reports whether the direction reduces the viewer's balance.
func (d Direction) Outgoing() bool {
	return d == DirectionDebit || d == DirectionSent
}

// DirectionFor classifies t relative to the set of account numbers owned by the viewer.
// A transfer between two of the viewer's own accounts reads as Sent.
func DirectionFor(t *Transaction, own map[string]bool) Direction {
	switch t.Type {
	case TypeDeposit:
		return DirectionCredit
	case TypeWithdrawal:
		return DirectionDebit
	case TypeTransfer:
		if t.FromAccountNumber != "" && own[t.FromAccountNumber] {
			return DirectionSent
		}
		if t.ToAccountNumber != "" && own[t.ToAccountNumber] {
			return DirectionReceived
		}
	}
	return DirectionUnknown
}
