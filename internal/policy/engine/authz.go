// Package engine decides which dashboard actions a role may perform, using an OPA Rego policy.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "bankdesk/internal/user/domain"
)

// Action names checked against the policy. The prefix is the dashboard the action belongs to.
const (
	ActionAccounts        = "customer.accounts"
	ActionPinStatus       = "customer.pin"
	ActionCreatePin       = "customer.create_pin"
	ActionTransfer        = "customer.transfer"
	ActionRequestAccount  = "customer.request_account"
	ActionMyRequests      = "customer.requests"
	ActionHistory         = "customer.history"
	ActionPendingRequests = "staff.pending"
	ActionApproveRequest  = "staff.approve"
	ActionRejectRequest   = "staff.reject"
	ActionUsers           = "staff.users"
	ActionAllAccounts     = "staff.all_accounts"
	ActionAllTransactions = "staff.all_transactions"
	ActionCreateStaff     = "admin.create_staff"
)

// ErrForbidden is returned when the policy denies an action for the caller's role.
var ErrForbidden = errors.New("action not permitted for this role")

const (
	allowQuery   = "data.bankdesk.authz.allow"
	actionsQuery = "data.bankdesk.authz.actions"
)

// DefaultPolicy is the built-in role policy. CUSTOMER gets the customer dashboard, STAFF the staff
// dashboard, and ADMIN the staff dashboard plus staff creation.
const DefaultPolicy = `package bankdesk.authz

customer_actions := {
	"customer.accounts",
	"customer.pin",
	"customer.create_pin",
	"customer.transfer",
	"customer.request_account",
	"customer.requests",
	"customer.history"
}

staff_actions := {
	"staff.pending",
	"staff.approve",
	"staff.reject",
	"staff.users",
	"staff.all_accounts",
	"staff.all_transactions"
}

actions contains a if {
	input.role == "CUSTOMER"
	some a in customer_actions
}

actions contains a if {
	input.role in {"STAFF", "ADMIN"}
	some a in staff_actions
}

actions contains "admin.create_staff" if {
	input.role == "ADMIN"
}

default allow := false

allow if {
	input.action in actions
}
`

// Authorizer evaluates the role policy. The policy is compiled once; evaluation is safe for concurrent use.
type Authorizer struct {
	compiler *ast.Compiler
}

// NewAuthorizer compiles the built-in policy.
func NewAuthorizer() (*Authorizer, error) {
	return newAuthorizer(DefaultPolicy)
}

// NewAuthorizerFromFile compiles the Rego module at path, which must define package bankdesk.authz with
// an allow rule and an actions set. An empty path selects the built-in policy.
func NewAuthorizerFromFile(path string) (*Authorizer, error) {
	if strings.TrimSpace(path) == "" {
		return NewAuthorizer()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read %s: %w", path, err)
	}
	log.Printf("policy: using role policy from %s", path)
	return newAuthorizer(string(b))
}

func newAuthorizer(src string) (*Authorizer, error) {
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": src})
	if err != nil {
		return nil, fmt.Errorf("policy: compile: %w", err)
	}
	return &Authorizer{compiler: compiler}, nil
}

// HealthCheck verifies that the compiled policy evaluates and grants at least one action to a customer.
func (a *Authorizer) HealthCheck(ctx context.Context) error {
	actions, err := a.Actions(ctx, userdomain.RoleCustomer)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return errors.New("policy: query returned no actions for CUSTOMER")
	}
	return nil
}

// Allowed reports whether role may perform action. Evaluation errors deny.
func (a *Authorizer) Allowed(ctx context.Context, role userdomain.Role, action string) (bool, error) {
	rs, err := a.eval(ctx, allowQuery, map[string]interface{}{
		"role":   string(role),
		"action": action,
	})
	if err != nil {
		return false, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	v, _ := rs[0].Expressions[0].Value.(bool)
	return v, nil
}

// Require returns ErrForbidden (wrapped with the action name) unless role may perform action.
func (a *Authorizer) Require(ctx context.Context, role userdomain.Role, action string) error {
	ok, err := a.Allowed(ctx, role, action)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrForbidden, action)
	}
	return nil
}

// Actions returns the sorted list of actions granted to role.
func (a *Authorizer) Actions(ctx context.Context, role userdomain.Role) ([]string, error) {
	rs, err := a.eval(ctx, actionsQuery, map[string]interface{}{"role": string(role)})
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}
	raw, _ := rs[0].Expressions[0].Value.([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (a *Authorizer) eval(ctx context.Context, query string, input map[string]interface{}) (rego.ResultSet, error) {
	q := rego.New(
		rego.Query(query),
		rego.Compiler(a.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: eval %s: %w", query, err)
	}
	return rs, nil
}
