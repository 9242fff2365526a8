package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account as reported by the ledger. Balance is display-only; the ledger is authoritative.
type Account struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   Type            `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Status        Status          `json:"status"`
	OwnerName     string          `json:"ownerName,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Type string

const (
	TypeSavings      Type = "SAVINGS"
	TypeCurrent      Type = "CURRENT"
	TypeFixedDeposit Type = "FIXED_DEPOSIT"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	switch t {
	case TypeSavings, TypeCurrent, TypeFixedDeposit:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusBlocked  Status = "BLOCKED"
	StatusClosed   Status = "CLOSED"
)

// IsActive reports whether the account can be used as a transfer source.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Active returns the accounts whose status is ACTIVE, preserving order.
func Active(accounts []*Account) []*Account {
	out := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		if a != nil && a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

// Find returns the account with the given number, or nil.
func Find(accounts []*Account, number string) *Account {
	for _, a := range accounts {
		if a != nil && a.AccountNumber == number {
			return a
		}
	}
	return nil
}
