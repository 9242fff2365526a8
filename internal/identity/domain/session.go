package domain

import (
	"context"
	"errors"
	"time"

	userdomain "bankdesk/internal/user/domain"
)

// Session is an authenticated identity: the user, the role they logged in with and the bearer token, if the
// server issued one. There is no ambient current session; callers pass a Session explicitly or via context.
// Logging out is dropping the value.
type Session struct {
	User        *userdomain.User
	Role        userdomain.Role
	AccessToken string
	// ExpiresAt is the access token expiry; zero when no verified token is held.
	ExpiresAt time.Time
}

// UserID returns the id of the session's user, or "" for a nil session.
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

// Expired reports whether the session's verified token has expired.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ErrNoSession is returned when an operation needs a logged-in actor.
var ErrNoSession = errors.New("login required")

type contextKey struct{ name string }

var sessionKey = contextKey{"session"}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the session from ctx and true if set; otherwise nil, false.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}
