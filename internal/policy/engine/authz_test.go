package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	userdomain "bankdesk/internal/user/domain"
)

func TestAuthorizer_HealthCheck(t *testing.T) {
	a, err := NewAuthorizer()
	if err != nil {
		t.Fatalf("NewAuthorizer: %v", err)
	}
	if err := a.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestAuthorizer_Allowed(t *testing.T) {
	a, err := NewAuthorizer()
	if err != nil {
		t.Fatalf("NewAuthorizer: %v", err)
	}
	ctx := context.Background()
	tests := []struct {
		role   userdomain.Role
		action string
		want   bool
	}{
		{userdomain.RoleCustomer, ActionTransfer, true},
		{userdomain.RoleCustomer, ActionCreatePin, true},
		{userdomain.RoleCustomer, ActionApproveRequest, false},
		{userdomain.RoleCustomer, ActionCreateStaff, false},
		{userdomain.RoleStaff, ActionApproveRequest, true},
		{userdomain.RoleStaff, ActionTransfer, false},
		{userdomain.RoleStaff, ActionCreateStaff, false},
		{userdomain.RoleAdmin, ActionCreateStaff, true},
		{userdomain.RoleAdmin, ActionAllTransactions, true},
		{userdomain.Role("GUEST"), ActionAccounts, false},
		{userdomain.RoleCustomer, "customer.unknown", false},
	}
	for _, tt := range tests {
		got, err := a.Allowed(ctx, tt.role, tt.action)
		if err != nil {
			t.Fatalf("Allowed(%s, %s): %v", tt.role, tt.action, err)
		}
		if got != tt.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestAuthorizer_Require(t *testing.T) {
	a, err := NewAuthorizer()
	if err != nil {
		t.Fatalf("NewAuthorizer: %v", err)
	}
	ctx := context.Background()
	if err := a.Require(ctx, userdomain.RoleStaff, ActionRejectRequest); err != nil {
		t.Errorf("Require staff reject: %v", err)
	}
	err = a.Require(ctx, userdomain.RoleCustomer, ActionRejectRequest)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Require customer reject: err = %v, want ErrForbidden", err)
	}
}

func TestAuthorizer_Actions(t *testing.T) {
	a, err := NewAuthorizer()
	if err != nil {
		t.Fatalf("NewAuthorizer: %v", err)
	}
	ctx := context.Background()

	staff, err := a.Actions(ctx, userdomain.RoleStaff)
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	want := []string{
		ActionAllAccounts, ActionAllTransactions, ActionApproveRequest,
		ActionPendingRequests, ActionRejectRequest, ActionUsers,
	}
	if !reflect.DeepEqual(staff, want) {
		t.Errorf("staff actions = %v, want %v", staff, want)
	}

	admin, err := a.Actions(ctx, userdomain.RoleAdmin)
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(admin) != len(staff)+1 || admin[0] != ActionCreateStaff {
		t.Errorf("admin actions = %v", admin)
	}

	customer, err := a.Actions(ctx, userdomain.RoleCustomer)
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(customer) != 7 {
		t.Errorf("customer actions = %v, want 7", customer)
	}

	none, err := a.Actions(ctx, userdomain.Role(""))
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("empty role actions = %v, want none", none)
	}
}

func TestNewAuthorizerFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authz.rego")
	src := `package bankdesk.authz

actions contains "customer.history" if {
	input.role == "CUSTOMER"
}

default allow := false

allow if {
	input.action in actions
}
`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	a, err := NewAuthorizerFromFile(path)
	if err != nil {
		t.Fatalf("NewAuthorizerFromFile: %v", err)
	}
	ctx := context.Background()
	if ok, _ := a.Allowed(ctx, userdomain.RoleCustomer, ActionTransfer); ok {
		t.Error("custom policy should deny transfer")
	}
	if ok, _ := a.Allowed(ctx, userdomain.RoleCustomer, ActionHistory); !ok {
		t.Error("custom policy should allow history")
	}
}

func TestNewAuthorizerFromFile_Errors(t *testing.T) {
	if _, err := NewAuthorizerFromFile(filepath.Join(t.TempDir(), "missing.rego")); err == nil {
		t.Error("expected error for missing file")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.rego")
	if err := os.WriteFile(path, []byte("package bankdesk.authz\nallow if {"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthorizerFromFile(path); err == nil {
		t.Error("expected compile error")
	}
	a, err := NewAuthorizerFromFile("  ")
	if err != nil || a == nil {
		t.Errorf("empty path should select built-in policy: %v", err)
	}
}
