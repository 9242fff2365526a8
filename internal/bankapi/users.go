package bankapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	userdomain "bankdesk/internal/user/domain"
)

// Credentials are the login form. Password is sent once and never retained.
type Credentials struct {
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	Password    string `json:"password"`
}

// LoginResult is the server's answer to a login. AccessToken is empty when the server does not issue tokens.
type LoginResult struct {
	Message       string
	Authenticated bool
	User          *userdomain.User
	AccessToken   string
}

// NewUser is the registration body used both for self-registration and for staff creation.
type NewUser struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	AadharNumber string `json:"aadharNumber"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	Address      string `json:"address,omitempty"`
	Password     string `json:"password"`
	Role         string `json:"role,omitempty"`
}

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, cred Credentials) (*LoginResult, error) {
	var resp struct {
		Message       string    `json:"message"`
		Authenticated bool      `json:"authenticated"`
		User          *userJSON `json:"user"`
		AccessToken   string    `json:"accessToken"`
	}
	cl, err := jsonCall("login", http.MethodPost, "/auth/login", cred, &resp)
	if err != nil {
		return nil, err
	}
	if _, err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return &LoginResult{
		Message:       resp.Message,
		Authenticated: resp.Authenticated,
		User:          resp.User.toDomain(),
		AccessToken:   resp.AccessToken,
	}, nil
}

// Register calls POST /users/register.
func (c *Client) Register(ctx context.Context, u NewUser) (*userdomain.User, error) {
	return c.postUser(ctx, "register", "/users/register", u)
}

// CreateStaff calls POST /users/staff.
func (c *Client) CreateStaff(ctx context.Context, u NewUser) (*userdomain.User, error) {
	return c.postUser(ctx, "create_staff", "/users/staff", u)
}

func (c *Client) postUser(ctx context.Context, op, path string, u NewUser) (*userdomain.User, error) {
	var resp userJSON
	cl, err := jsonCall(op, http.MethodPost, path, u, &resp)
	if err != nil {
		return nil, err
	}
	if _, err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// ListUsers calls GET /users.
func (c *Client) ListUsers(ctx context.Context) ([]*userdomain.User, error) {
	var resp []userJSON
	if _, err := c.do(ctx, &call{op: "list_users", method: http.MethodGet, path: "/users", out: &resp}); err != nil {
		return nil, err
	}
	out := make([]*userdomain.User, 0, len(resp))
	for i := range resp {
		out = append(out, resp[i].toDomain())
	}
	return out, nil
}

// HasPin calls GET /users/{id}/has-pin. The answer is never cached.
func (c *Client) HasPin(ctx context.Context, userID string) (bool, error) {
	var has bool
	cl := &call{op: "has_pin", method: http.MethodGet, path: "/users/" + pathID(userID) + "/has-pin", out: &has}
	if _, err := c.do(ctx, cl); err != nil {
		return false, err
	}
	return has, nil
}

// CreatePin calls POST /users/{id}/create-pin and returns the server's confirmation text.
// A user may create a PIN only once; a second attempt is rejected by the server with a RemoteError.
func (c *Client) CreatePin(ctx context.Context, userID, pin string) (string, error) {
	form := url.Values{"pin": {pin}}
	raw, err := c.do(ctx, formCall("create_pin", "/users/"+pathID(userID)+"/create-pin", form, nil))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
