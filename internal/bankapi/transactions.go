package bankapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	transactiondomain "bankdesk/internal/transaction/domain"
	transferdomain "bankdesk/internal/transfer/domain"
)

// IdempotencyKeyHeader carries the transfer session's key on every submission attempt.
const IdempotencyKeyHeader = "Idempotency-Key"

// Transfer submits s to the by-phone or by-account endpoint according to the declared recipient mode.
// The PIN travels only in this request body. Client.Timeout does not apply: ctx carries the submission deadline.
func (c *Client) Transfer(ctx context.Context, s transferdomain.Submission) (*transactiondomain.Transaction, error) {
	form := url.Values{
		"fromAccountNumber": {s.Intent.FromAccountNumber},
		"amount":            {s.Intent.Amount.String()},
		"description":       {s.Intent.Description},
		"userId":            {s.UserID},
		"pin":               {s.Pin},
	}
	var op, path string
	switch s.Intent.Mode {
	case transferdomain.ModePhone:
		op, path = "transfer_by_phone", "/transactions/transfer/by-phone"
		form.Set("toPhoneNumber", s.Intent.Recipient)
	case transferdomain.ModeAccount:
		op, path = "transfer_by_account", "/transactions/transfer/by-account"
		form.Set("toAccountNumber", s.Intent.Recipient)
	default:
		return nil, fmt.Errorf("bankapi: unknown recipient mode %q", s.Intent.Mode)
	}

	var resp transactionJSON
	cl := formCall(op, path, form, &resp)
	cl.callerDeadline = true
	if s.IdempotencyKey != "" {
		cl.header = http.Header{IdempotencyKeyHeader: {s.IdempotencyKey}}
	}
	if _, err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// HistoryByPhone calls GET /transactions/history/phone/{phone}.
func (c *Client) HistoryByPhone(ctx context.Context, phone string) ([]*transactiondomain.Transaction, error) {
	var resp []transactionJSON
	cl := &call{op: "history_by_phone", method: http.MethodGet, path: "/transactions/history/phone/" + pathID(phone), out: &resp}
	if _, err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return transactionsToDomain(resp), nil
}

// AllTransactions calls GET /transactions.
func (c *Client) AllTransactions(ctx context.Context) ([]*transactiondomain.Transaction, error) {
	var resp []transactionJSON
	if _, err := c.do(ctx, &call{op: "all_transactions", method: http.MethodGet, path: "/transactions", out: &resp}); err != nil {
		return nil, err
	}
	return transactionsToDomain(resp), nil
}
