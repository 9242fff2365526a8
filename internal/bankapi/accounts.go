package bankapi

import (
	"context"
	"net/http"

	accountdomain "bankdesk/internal/account/domain"
)

// AccountsByUser calls GET /accounts/user/{id}. Balances are a fresh snapshot from the ledger.
func (c *Client) AccountsByUser(ctx context.Context, userID string) ([]*accountdomain.Account, error) {
	var resp []accountJSON
	cl := &call{op: "accounts_by_user", method: http.MethodGet, path: "/accounts/user/" + pathID(userID), out: &resp}
	if _, err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return accountsToDomain(resp), nil
}

// AllAccounts calls GET /accounts.
func (c *Client) AllAccounts(ctx context.Context) ([]*accountdomain.Account, error) {
	var resp []accountJSON
	if _, err := c.do(ctx, &call{op: "all_accounts", method: http.MethodGet, path: "/accounts", out: &resp}); err != nil {
		return nil, err
	}
	return accountsToDomain(resp), nil
}
