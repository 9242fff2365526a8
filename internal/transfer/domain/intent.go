package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDescription is used when the user leaves the description empty.
const DefaultDescription = "Money transfer"

// RecipientMode is the declared meaning of the recipient identifier. It is always chosen by the user,
// never inferred from the identifier's shape.
type RecipientMode string

const (
	ModePhone   RecipientMode = "PHONE"
	ModeAccount RecipientMode = "ACCOUNT"
)

// ParseRecipientMode accepts "phone" or "account" case-insensitively.
func ParseRecipientMode(s string) (RecipientMode, error) {
	switch m := RecipientMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModePhone, ModeAccount:
		return m, nil
	}
	return "", &ValidationError{Field: "recipientMode", Reason: "must be PHONE or ACCOUNT"}
}

// Draft holds the transfer parameters as entered, before validation.
type Draft struct {
	FromAccountNumber string
	Mode              RecipientMode
	Recipient         string
	Amount            decimal.Decimal
	Description       string
}

// Intent is a validated transfer. It is a value: holders get copies and cannot alter a bound session.
type Intent struct {
	FromAccountNumber string
	Mode              RecipientMode
	Recipient         string
	Amount            decimal.Decimal
	Description       string
}

// NewIntent validates d and returns the intent. Identifiers are opaque and only trimmed.
func NewIntent(d Draft) (Intent, error) {
	from := strings.TrimSpace(d.FromAccountNumber)
	if from == "" {
		return Intent{}, &ValidationError{Field: "fromAccountNumber", Reason: "is required"}
	}
	if d.Mode != ModePhone && d.Mode != ModeAccount {
		return Intent{}, &ValidationError{Field: "recipientMode", Reason: "must be PHONE or ACCOUNT"}
	}
	to := strings.TrimSpace(d.Recipient)
	if to == "" {
		return Intent{}, &ValidationError{Field: "recipient", Reason: "is required"}
	}
	if !d.Amount.IsPositive() {
		return Intent{}, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = DefaultDescription
	}
	return Intent{
		FromAccountNumber: from,
		Mode:              d.Mode,
		Recipient:         to,
		Amount:            d.Amount,
		Description:       desc,
	}, nil
}

// Summary is the one-line confirmation text shown next to the PIN prompt.
func (i Intent) Summary() string {
	return fmt.Sprintf("%s from %s to %s (%s): %s", i.Amount.String(), i.FromAccountNumber, i.Recipient, strings.ToLower(string(i.Mode)), i.Description)
}

// Submission is one transfer request sent to the ledger. Pin lives only for the duration of the call.
type Submission struct {
	Intent         Intent
	UserID         string
	Pin            string
	IdempotencyKey string
}

// String masks the PIN so a Submission can never leak it through fmt or log.
func (s Submission) String() string {
	return fmt.Sprintf("Submission{user=%s key=%s %s pin=******}", s.UserID, s.IdempotencyKey, s.Intent.Summary())
}

// GoString masks the PIN for %#v as well.
func (s Submission) GoString() string {
	return s.String()
}
