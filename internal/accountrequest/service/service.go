// Package service submits account requests for customers and lets staff review them.
package service

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	accountdomain "bankdesk/internal/account/domain"
	"bankdesk/internal/accountrequest/domain"
	identitydomain "bankdesk/internal/identity/domain"
	"bankdesk/internal/policy/engine"
	"bankdesk/internal/telemetry"
	telemetrydomain "bankdesk/internal/telemetry/domain"
	userdomain "bankdesk/internal/user/domain"
)

// API is the part of the banking API used for account requests.
type API interface {
	SubmitAccountRequest(ctx context.Context, d domain.Draft) (*domain.AccountRequest, error)
	AccountRequestsByUser(ctx context.Context, userID string) ([]*domain.AccountRequest, error)
	PendingAccountRequests(ctx context.Context) ([]*domain.AccountRequest, error)
	ApproveAccountRequest(ctx context.Context, staffID string, cmd domain.ApproveCommand) (*domain.AccountRequest, error)
	RejectAccountRequest(ctx context.Context, staffID string, cmd domain.RejectCommand) (*domain.AccountRequest, error)
}

// Policy decides whether a role may perform an action.
type Policy interface {
	Require(ctx context.Context, role userdomain.Role, action string) error
}

// Service implements the account request operations. Every operation takes the acting session explicitly.
type Service struct {
	api     API
	policy  Policy
	emitter telemetry.EventEmitter
}

// NewService returns an account request service. emitter may be nil.
func NewService(api API, policy Policy, emitter telemetry.EventEmitter) *Service {
	return &Service{api: api, policy: policy, emitter: emitter}
}

// Submit requests a new account of accountType for the actor with the given initial deposit.
func (s *Service) Submit(ctx context.Context, actor *identitydomain.Session, accountType string, initialDeposit decimal.Decimal) (*domain.AccountRequest, error) {
	if err := s.authorize(ctx, actor, engine.ActionRequestAccount); err != nil {
		return nil, err
	}
	d := domain.Draft{
		UserID:         actor.UserID(),
		AccountType:    accountdomain.Type(accountType),
		InitialDeposit: initialDeposit,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	req, err := s.api.SubmitAccountRequest(ctx, d)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventAccountRequestSubmitted, actor, map[string]any{
		"request_id":      req.RequestID,
		"account_type":    string(d.AccountType),
		"initial_deposit": d.InitialDeposit.String(),
	})
	return req, nil
}

// ListMine returns the actor's own account requests.
func (s *Service) ListMine(ctx context.Context, actor *identitydomain.Session) ([]*domain.AccountRequest, error) {
	if err := s.authorize(ctx, actor, engine.ActionMyRequests); err != nil {
		return nil, err
	}
	return s.api.AccountRequestsByUser(ctx, actor.UserID())
}

// ListPending returns requests awaiting review. Staff and admin only.
func (s *Service) ListPending(ctx context.Context, actor *identitydomain.Session) ([]*domain.AccountRequest, error) {
	if err := s.authorize(ctx, actor, engine.ActionPendingRequests); err != nil {
		return nil, err
	}
	return s.api.PendingAccountRequests(ctx)
}

// Approve approves a pending request on behalf of the actor. Staff and admin only.
func (s *Service) Approve(ctx context.Context, actor *identitydomain.Session, cmd domain.ApproveCommand) (*domain.AccountRequest, error) {
	if err := s.authorize(ctx, actor, engine.ActionApproveRequest); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	req, err := s.api.ApproveAccountRequest(ctx, actor.UserID(), cmd)
	if err != nil {
		return nil, err
	}
	log.Printf("accountrequest: request %s approved by %s", cmd.RequestID, actor.UserID())
	s.emit(ctx, telemetrydomain.EventAccountRequestApproved, actor, map[string]any{"request_id": cmd.RequestID})
	return req, nil
}

// Reject rejects a pending request on behalf of the actor. A reason is required. Staff and admin only.
func (s *Service) Reject(ctx context.Context, actor *identitydomain.Session, cmd domain.RejectCommand) (*domain.AccountRequest, error) {
	if err := s.authorize(ctx, actor, engine.ActionRejectRequest); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	req, err := s.api.RejectAccountRequest(ctx, actor.UserID(), cmd)
	if err != nil {
		return nil, err
	}
	log.Printf("accountrequest: request %s rejected by %s", cmd.RequestID, actor.UserID())
	s.emit(ctx, telemetrydomain.EventAccountRequestRejected, actor, map[string]any{
		"request_id": cmd.RequestID,
		"reason":     cmd.Reason,
	})
	return req, nil
}

func (s *Service) authorize(ctx context.Context, actor *identitydomain.Session, action string) error {
	if actor == nil || actor.User == nil {
		return identitydomain.ErrNoSession
	}
	return s.policy.Require(ctx, actor.Role, action)
}

func (s *Service) emit(ctx context.Context, eventType string, actor *identitydomain.Session, meta map[string]any) {
	ev := telemetry.NewEvent(eventType, actor.UserID(), "", meta)
	ev.Role = string(actor.Role)
	telemetry.EmitAsync(s.emitter, ctx, ev)
}
