package domain

import (
	"context"
	"testing"
	"time"

	userdomain "bankdesk/internal/user/domain"
)

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionFrom(ctx); ok {
		t.Error("empty context should have no session")
	}
	s := &Session{User: &userdomain.User{ID: "42"}, Role: userdomain.RoleCustomer}
	got, ok := SessionFrom(WithSession(ctx, s))
	if !ok || got != s {
		t.Errorf("SessionFrom = %v, %v", got, ok)
	}
	if _, ok := SessionFrom(WithSession(ctx, nil)); ok {
		t.Error("nil session should not be reported")
	}
}

func TestSession_UserIDAndExpiry(t *testing.T) {
	var nilSession *Session
	if nilSession.UserID() != "" {
		t.Error("nil session UserID should be empty")
	}
	now := time.Now()
	s := &Session{User: &userdomain.User{ID: "42"}}
	if s.UserID() != "42" {
		t.Errorf("UserID = %q", s.UserID())
	}
	if s.Expired(now) {
		t.Error("session without token expiry never expires")
	}
	s.ExpiresAt = now.Add(-time.Second)
	if !s.Expired(now) {
		t.Error("session should be expired")
	}
}
