package bankapi

import (
	"context"
	"net/http"
	"net/url"

	requestdomain "bankdesk/internal/accountrequest/domain"
)

// SubmitAccountRequest calls POST /account-requests.
func (c *Client) SubmitAccountRequest(ctx context.Context, d requestdomain.Draft) (*requestdomain.AccountRequest, error) {
	body := struct {
		UserID         ID     `json:"userId"`
		AccountType    string `json:"accountType"`
		InitialDeposit string `json:"initialDeposit"`
	}{ID(d.UserID), string(d.AccountType), d.InitialDeposit.String()}
	var resp accountRequestJSON
	cl, err := jsonCall("submit_account_request", http.MethodPost, "/account-requests", body, &resp)
	if err != nil {
		return nil, err
	}
	if _, err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// AccountRequestsByUser calls GET /account-requests/user/{id}.
func (c *Client) AccountRequestsByUser(ctx context.Context, userID string) ([]*requestdomain.AccountRequest, error) {
	return c.listRequests(ctx, "account_requests_by_user", "/account-requests/user/"+pathID(userID))
}

// PendingAccountRequests calls GET /account-requests/pending.
func (c *Client) PendingAccountRequests(ctx context.Context) ([]*requestdomain.AccountRequest, error) {
	return c.listRequests(ctx, "pending_account_requests", "/account-requests/pending")
}

func (c *Client) listRequests(ctx context.Context, op, path string) ([]*requestdomain.AccountRequest, error) {
	var resp []accountRequestJSON
	if _, err := c.do(ctx, &call{op: op, method: http.MethodGet, path: path, out: &resp}); err != nil {
		return nil, err
	}
	return requestsToDomain(resp), nil
}

// ApproveAccountRequest calls POST /account-requests/{id}/approve. cmd must already be validated.
func (c *Client) ApproveAccountRequest(ctx context.Context, staffID string, cmd requestdomain.ApproveCommand) (*requestdomain.AccountRequest, error) {
	form := url.Values{
		"staffId":  {staffID},
		"comments": {cmd.Comments},
	}
	var resp accountRequestJSON
	if _, err := c.do(ctx, formCall("approve_account_request", "/account-requests/"+pathID(cmd.RequestID)+"/approve", form, &resp)); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// RejectAccountRequest calls POST /account-requests/{id}/reject. cmd must already be validated.
func (c *Client) RejectAccountRequest(ctx context.Context, staffID string, cmd requestdomain.RejectCommand) (*requestdomain.AccountRequest, error) {
	form := url.Values{
		"staffId":         {staffID},
		"rejectionReason": {cmd.Reason},
		"comments":        {cmd.Comments},
	}
	var resp accountRequestJSON
	if _, err := c.do(ctx, formCall("reject_account_request", "/account-requests/"+pathID(cmd.RequestID)+"/reject", form, &resp)); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}
