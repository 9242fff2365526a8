package bankapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	accountdomain "bankdesk/internal/account/domain"
	requestdomain "bankdesk/internal/accountrequest/domain"
	transactiondomain "bankdesk/internal/transaction/domain"
	userdomain "bankdesk/internal/user/domain"
)

// ID is an opaque identifier. The server sends numeric ids; they are kept as strings on the client.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("bankapi: id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes all-digit ids as JSON numbers, the form the server's numeric ids take.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// Time accepts the server's zone-less local timestamps as well as RFC 3339.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *Time) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("bankapi: timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("bankapi: unrecognized timestamp %q", s)
}

type userJSON struct {
	ID          ID     `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	CreatedAt   Time   `json:"createdAt"`
}

func (u *userJSON) toDomain() *userdomain.User {
	if u == nil {
		return nil
	}
	return &userdomain.User{
		ID:          string(u.ID),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        userdomain.Role(strings.ToUpper(u.Role)),
		CreatedAt:   u.CreatedAt.Time,
	}
}

type accountJSON struct {
	ID            ID              `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	CreatedAt     Time            `json:"createdAt"`
	User          *userJSON       `json:"user"`
}

func (a *accountJSON) toDomain() *accountdomain.Account {
	if a == nil {
		return nil
	}
	out := &accountdomain.Account{
		ID:            string(a.ID),
		AccountNumber: a.AccountNumber,
		AccountType:   accountdomain.Type(a.AccountType),
		Balance:       a.Balance,
		Status:        accountdomain.Status(a.Status),
		CreatedAt:     a.CreatedAt.Time,
	}
	if a.User != nil {
		out.OwnerName = a.User.toDomain().FullName()
	}
	return out
}

func accountsToDomain(in []accountJSON) []*accountdomain.Account {
	out := make([]*accountdomain.Account, 0, len(in))
	for i := range in {
		out = append(out, in[i].toDomain())
	}
	return out
}

type transactionJSON struct {
	ID                     ID              `json:"id"`
	TransactionID          string          `json:"transactionId"`
	TransactionType        string          `json:"transactionType"`
	Amount                 decimal.Decimal `json:"amount"`
	Description            string          `json:"description"`
	Status                 string          `json:"status"`
	TransactionDate        Time            `json:"transactionDate"`
	FromAccount            *accountJSON    `json:"fromAccount"`
	ToAccount              *accountJSON    `json:"toAccount"`
	RecipientPhone         string          `json:"recipientPhone"`
	RecipientAccountNumber string          `json:"recipientAccountNumber"`
}

func (t *transactionJSON) toDomain() *transactiondomain.Transaction {
	out := &transactiondomain.Transaction{
		ID:                     string(t.ID),
		TransactionID:          t.TransactionID,
		Type:                   transactiondomain.Type(t.TransactionType),
		Amount:                 t.Amount,
		Description:            t.Description,
		Status:                 transactiondomain.Status(t.Status),
		Date:                   t.TransactionDate.Time,
		RecipientPhone:         t.RecipientPhone,
		RecipientAccountNumber: t.RecipientAccountNumber,
	}
	if t.FromAccount != nil {
		out.FromAccountNumber = t.FromAccount.AccountNumber
	}
	if t.ToAccount != nil {
		out.ToAccountNumber = t.ToAccount.AccountNumber
	}
	return out
}

func transactionsToDomain(in []transactionJSON) []*transactiondomain.Transaction {
	out := make([]*transactiondomain.Transaction, 0, len(in))
	for i := range in {
		out = append(out, in[i].toDomain())
	}
	return out
}

type accountRequestJSON struct {
	ID              ID              `json:"id"`
	RequestID       string          `json:"requestId"`
	AccountType     string          `json:"accountType"`
	InitialDeposit  decimal.Decimal `json:"initialDeposit"`
	Status          string          `json:"status"`
	StaffComments   string          `json:"staffComments"`
	RejectionReason string          `json:"rejectionReason"`
	CreatedAt       Time            `json:"createdAt"`
	ProcessedAt     Time            `json:"processedAt"`
	User            *userJSON       `json:"user"`
}

func (r *accountRequestJSON) toDomain() *requestdomain.AccountRequest {
	out := &requestdomain.AccountRequest{
		ID:              string(r.ID),
		RequestID:       r.RequestID,
		AccountType:     accountdomain.Type(r.AccountType),
		InitialDeposit:  r.InitialDeposit,
		Status:          requestdomain.Status(r.Status),
		StaffComments:   r.StaffComments,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Time,
	}
	if !r.ProcessedAt.IsZero() {
		p := r.ProcessedAt.Time
		out.ProcessedAt = &p
	}
	if r.User != nil {
		u := r.User.toDomain()
		out.UserID = u.ID
		out.CustomerName = u.FullName()
		out.CustomerPhone = u.PhoneNumber
	}
	return out
}

func requestsToDomain(in []accountRequestJSON) []*requestdomain.AccountRequest {
	out := make([]*requestdomain.AccountRequest, 0, len(in))
	for i := range in {
		out = append(out, in[i].toDomain())
	}
	return out
}
