// Package service logs users in, registers customers and lets admins create staff users against the banking API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"bankdesk/internal/bankapi"
	"bankdesk/internal/identity/domain"
	"bankdesk/internal/policy/engine"
	"bankdesk/internal/security"
	"bankdesk/internal/telemetry"
	telemetrydomain "bankdesk/internal/telemetry/domain"
	userdomain "bankdesk/internal/user/domain"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials is returned when phone or password is missing.
	ErrInvalidCredentials = errors.New("phone number and password are required")
	// ErrRoleMismatch is returned when the server's user has a different role than the one requested at login.
	ErrRoleMismatch = errors.New("invalid role selected for this user")
	// ErrNotAuthenticated is returned when the server answered without an authenticated user.
	ErrNotAuthenticated = errors.New("login was not accepted")
	// ErrTokenSubject is returned when a verified access token belongs to a different user.
	ErrTokenSubject = errors.New("access token does not belong to the logged-in user")
	// ErrInvalidRegistration wraps every local registration check failure.
	ErrInvalidRegistration = errors.New("invalid registration")
)

var (
	emailRegexp  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegexp  = regexp.MustCompile(`^[0-9]{10}$`)
	aadharRegexp = regexp.MustCompile(`^[0-9]{12}$`)
)

// API is the part of the banking API used for identity.
type API interface {
	Login(ctx context.Context, cred bankapi.Credentials) (*bankapi.LoginResult, error)
	Register(ctx context.Context, u bankapi.NewUser) (*userdomain.User, error)
	CreateStaff(ctx context.Context, u bankapi.NewUser) (*userdomain.User, error)
}

// TokenVerifier verifies access tokens issued at login.
type TokenVerifier interface {
	VerifyAccess(token string) (*security.AccessClaims, error)
}

// Policy decides whether a role may perform an action.
type Policy interface {
	Require(ctx context.Context, role userdomain.Role, action string) error
}

// Service implements login, registration and staff creation.
type Service struct {
	api      API
	verifier TokenVerifier
	policy   Policy
	emitter  telemetry.EventEmitter
}

// NewService returns an identity service. verifier and emitter may be nil; a nil verifier skips token checks.
func NewService(api API, verifier TokenVerifier, policy Policy, emitter telemetry.EventEmitter) *Service {
	return &Service{api: api, verifier: verifier, policy: policy, emitter: emitter}
}

// Login authenticates phone and password for the requested role and returns a Session.
// The password is sent once and not retained. Server rejections are returned as *bankapi.RemoteError
// with the server's message.
func (s *Service) Login(ctx context.Context, phone, password, role string) (*domain.Session, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	r, err := userdomain.ParseRole(role)
	if err != nil {
		return nil, err
	}

	res, err := s.api.Login(ctx, bankapi.Credentials{PhoneNumber: phone, Role: string(r), Password: password})
	if err != nil {
		s.emitFailure(ctx, r, err)
		return nil, err
	}
	if !res.Authenticated || res.User == nil {
		s.emitFailure(ctx, r, ErrNotAuthenticated)
		return nil, ErrNotAuthenticated
	}
	if err := res.User.Validate(); err != nil {
		return nil, fmt.Errorf("identity: login response: %w", err)
	}
	if res.User.Role != r {
		s.emitFailure(ctx, r, ErrRoleMismatch)
		return nil, ErrRoleMismatch
	}

	sess := &domain.Session{User: res.User, Role: r, AccessToken: res.AccessToken}
	if s.verifier != nil && res.AccessToken != "" {
		claims, err := s.verifier.VerifyAccess(res.AccessToken)
		if err != nil {
			s.emitFailure(ctx, r, err)
			return nil, err
		}
		if claims.Subject != res.User.ID {
			s.emitFailure(ctx, r, ErrTokenSubject)
			return nil, ErrTokenSubject
		}
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	s.emit(ctx, telemetrydomain.EventLoginSuccess, sess.UserID(), r, nil)
	return sess, nil
}

// Register validates the form locally and registers a new customer.
func (s *Service) Register(ctx context.Context, form domain.RegistrationForm) (*userdomain.User, error) {
	if err := validateRegistration(form); err != nil {
		return nil, err
	}
	return s.api.Register(ctx, toNewUser(form, ""))
}

// CreateStaff creates a staff user. Only roles granted admin.create_staff may call it.
func (s *Service) CreateStaff(ctx context.Context, actor *domain.Session, form domain.RegistrationForm) (*userdomain.User, error) {
	if actor == nil || actor.User == nil {
		return nil, domain.ErrNoSession
	}
	if err := s.policy.Require(ctx, actor.Role, engine.ActionCreateStaff); err != nil {
		return nil, err
	}
	if err := validateRegistration(form); err != nil {
		return nil, err
	}
	u, err := s.api.CreateStaff(ctx, toNewUser(form, string(userdomain.RoleStaff)))
	if err != nil {
		return nil, err
	}
	log.Printf("identity: staff user %s created by %s", u.ID, actor.UserID())
	return u, nil
}

func toNewUser(form domain.RegistrationForm, role string) bankapi.NewUser {
	return bankapi.NewUser{
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
		Email:        strings.TrimSpace(form.Email),
		PhoneNumber:  strings.TrimSpace(form.PhoneNumber),
		AadharNumber: strings.TrimSpace(form.AadharNumber),
		DateOfBirth:  strings.TrimSpace(form.DateOfBirth),
		Address:      strings.TrimSpace(form.Address),
		Password:     form.Password,
		Role:         role,
	}
}

func validateRegistration(f domain.RegistrationForm) error {
	invalid := func(msg string) error {
		return fmt.Errorf("%w: %s", ErrInvalidRegistration, msg)
	}
	if strings.TrimSpace(f.FirstName) == "" {
		return invalid("first name is required")
	}
	if strings.TrimSpace(f.LastName) == "" {
		return invalid("last name is required")
	}
	email := strings.TrimSpace(f.Email)
	if email == "" {
		return invalid("email is required")
	}
	if !emailRegexp.MatchString(email) {
		return invalid("invalid email format")
	}
	if !phoneRegexp.MatchString(strings.TrimSpace(f.PhoneNumber)) {
		return invalid("phone number must be 10 digits")
	}
	if !aadharRegexp.MatchString(strings.TrimSpace(f.AadharNumber)) {
		return invalid("aadhar number must be 12 digits")
	}
	if strings.TrimSpace(f.Address) == "" {
		return invalid("address is required")
	}
	if len(f.Password) < MinPasswordLength {
		return invalid(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if f.Password != f.ConfirmPassword {
		return invalid("passwords do not match")
	}
	return nil
}

func (s *Service) emitFailure(ctx context.Context, role userdomain.Role, cause error) {
	reason := "rejected"
	if bankapi.IsNetwork(cause) {
		reason = "network_error"
	} else if errors.Is(cause, security.ErrInvalidToken) || errors.Is(cause, ErrTokenSubject) {
		reason = "invalid_token"
	} else if errors.Is(cause, ErrRoleMismatch) {
		reason = "role_mismatch"
	}
	s.emit(ctx, telemetrydomain.EventLoginFailure, "", role, map[string]any{"reason": reason})
}

func (s *Service) emit(ctx context.Context, eventType, userID string, role userdomain.Role, meta map[string]any) {
	ev := telemetry.NewEvent(eventType, userID, "", meta)
	ev.Role = string(role)
	telemetry.EmitAsync(s.emitter, ctx, ev)
}
