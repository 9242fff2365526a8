// Package transfer runs the PIN-gated funds transfer: PIN existence check, PIN entry, submission.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	accountdomain "bankdesk/internal/account/domain"
	"bankdesk/internal/bankapi"
	"bankdesk/internal/telemetry"
	telemetrydomain "bankdesk/internal/telemetry/domain"
	transactiondomain "bankdesk/internal/transaction/domain"
	"bankdesk/internal/transfer/domain"
)

// DefaultSubmitTimeout bounds one submission when Options.SubmitTimeout is zero.
const DefaultSubmitTimeout = 30 * time.Second

const meterName = "bankdesk/transfer"

// State is the workflow state.
type State int

const (
	Idle State = iota
	AwaitingPinCheck
	AwaitingPinEntry
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingPinCheck:
		return "AwaitingPinCheck"
	case AwaitingPinEntry:
		return "AwaitingPinEntry"
	case Submitting:
		return "Submitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// API is the part of the banking API the workflow uses. *bankapi.Client implements it.
type API interface {
	HasPin(ctx context.Context, userID string) (bool, error)
	AccountsByUser(ctx context.Context, userID string) ([]*accountdomain.Account, error)
	Transfer(ctx context.Context, s domain.Submission) (*transactiondomain.Transaction, error)
}

// Options configures a Workflow. All fields are optional.
type Options struct {
	// Emitter receives transfer events asynchronously.
	Emitter telemetry.EventEmitter
	// Refresh reloads the balance view. It is called exactly once after each successful transfer.
	Refresh func(ctx context.Context) error
	// SubmitTimeout bounds one submission. Zero means DefaultSubmitTimeout.
	SubmitTimeout time.Duration
	// Meter records bankdesk.transfer.submissions. Nil uses the global meter provider.
	Meter metric.Meter
}

// session binds one intent to its confirmation cycle. key is sent as the idempotency key on every attempt.
type session struct {
	key    string
	intent domain.Intent
}

// Workflow is one user's transfer flow. It holds at most one session. Safe for concurrent use; the lock is never
// held across a network call.
type Workflow struct {
	api           API
	userID        string
	emitter       telemetry.EventEmitter
	refresh       func(ctx context.Context) error
	submitTimeout time.Duration
	submissions   metric.Int64Counter

	mu      sync.Mutex
	state   State
	session *session
}

// New returns an idle workflow acting for userID.
func New(api API, userID string, opts Options) *Workflow {
	w := &Workflow{
		api:           api,
		userID:        userID,
		emitter:       opts.Emitter,
		refresh:       opts.Refresh,
		submitTimeout: opts.SubmitTimeout,
	}
	if w.submitTimeout <= 0 {
		w.submitTimeout = DefaultSubmitTimeout
	}
	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	counter, err := meter.Int64Counter("bankdesk.transfer.submissions",
		metric.WithDescription("Transfer submissions by outcome"),
		metric.WithUnit("{submission}"))
	if err != nil {
		log.Printf("transfer: create submissions counter: %v", err)
	}
	w.submissions = counter
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Pending returns a copy of the intent awaiting PIN confirmation.
func (w *Workflow) Pending() (domain.Intent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return domain.Intent{}, false
	}
	return w.session.intent, true
}

// Begin validates d, checks that the source account is one of the user's active accounts and that the user has a
// transfer PIN, then waits for PIN entry. Both checks query the server; nothing is cached.
// On any failure the workflow is back in Idle.
func (w *Workflow) Begin(ctx context.Context, d domain.Draft) (domain.Intent, error) {
	intent, err := domain.NewIntent(d)
	if err != nil {
		return domain.Intent{}, err
	}

	w.mu.Lock()
	if w.state != Idle {
		w.mu.Unlock()
		return domain.Intent{}, domain.ErrSessionActive
	}
	w.state = AwaitingPinCheck
	w.mu.Unlock()

	if err := w.checkPreconditions(ctx, intent); err != nil {
		w.reset()
		return domain.Intent{}, err
	}

	w.mu.Lock()
	w.session = &session{key: uuid.NewString(), intent: intent}
	w.state = AwaitingPinEntry
	w.mu.Unlock()
	return intent, nil
}

func (w *Workflow) checkPreconditions(ctx context.Context, intent domain.Intent) error {
	accounts, err := w.api.AccountsByUser(ctx, w.userID)
	if err != nil {
		return err
	}
	if accountdomain.Find(accountdomain.Active(accounts), intent.FromAccountNumber) == nil {
		return domain.ErrAccountNotOwned
	}
	hasPin, err := w.api.HasPin(ctx, w.userID)
	if err != nil {
		return err
	}
	if !hasPin {
		return domain.ErrPinNotRegistered
	}
	return nil
}

// Confirm submits the pending intent with pin. A malformed PIN is rejected locally without a network call.
// While a submission is in flight, further calls return ErrSubmissionInFlight and send nothing.
// On success the session ends, the balance view is refreshed once, and the result is returned.
// On failure the session stays pending with its intent intact so the user may retry or cancel; the error is a
// *bankapi.RemoteError carrying the server's message or a *bankapi.NetworkError.
func (w *Workflow) Confirm(ctx context.Context, pin string) (domain.Result, error) {
	w.mu.Lock()
	switch w.state {
	case Submitting:
		w.mu.Unlock()
		return domain.Result{}, domain.ErrSubmissionInFlight
	case AwaitingPinEntry:
	default:
		w.mu.Unlock()
		return domain.Result{}, domain.ErrNoPendingTransfer
	}
	if err := domain.ValidatePin(pin); err != nil {
		w.mu.Unlock()
		return domain.Result{}, err
	}
	sess := *w.session
	w.state = Submitting
	w.mu.Unlock()

	sub := domain.Submission{Intent: sess.intent, UserID: w.userID, Pin: pin, IdempotencyKey: sess.key}
	w.emit(ctx, telemetrydomain.EventTransferSubmitted, sess, nil)

	result, err := w.submit(ctx, sub)
	if err != nil {
		w.mu.Lock()
		w.state = AwaitingPinEntry
		w.mu.Unlock()
		w.record(ctx, sess.intent, outcomeOf(err))
		w.emit(ctx, telemetrydomain.EventTransferFailed, sess, map[string]any{"reason": err.Error()})
		var ne *bankapi.NetworkError
		if errors.As(err, &ne) {
			log.Printf("transfer: submission failed: %s", ne.Detail())
		}
		return domain.Result{}, err
	}

	w.mu.Lock()
	w.state = Idle
	w.session = nil
	w.mu.Unlock()
	w.record(ctx, sess.intent, "success")
	w.emit(ctx, telemetrydomain.EventTransferSucceeded, sess, map[string]any{
		"transaction_id": result.TransactionID,
		"ledger_status":  result.LedgerStatus,
	})
	if w.refresh != nil {
		if err := w.refresh(ctx); err != nil {
			log.Printf("transfer: balance refresh after %s failed: %v", result.TransactionID, err)
		}
	}
	return result, nil
}

// submit sends one submission under the submit timeout. A 2xx answer whose ledger status is not a success is
// returned as a RemoteError.
func (w *Workflow) submit(ctx context.Context, sub domain.Submission) (domain.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, w.submitTimeout)
	defer cancel()
	tx, err := w.api.Transfer(ctx, sub)
	if err != nil {
		return domain.Result{}, err
	}
	if tx == nil {
		return domain.Result{}, &bankapi.RemoteError{Op: "transfer", StatusCode: http.StatusOK, Message: "Transfer response was empty"}
	}
	result := domain.ResultFromLedger(tx.TransactionID, string(tx.Status))
	if !result.Succeeded() {
		return domain.Result{}, &bankapi.RemoteError{
			Op:         "transfer",
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("Transfer %s finished with status %s", tx.TransactionID, tx.Status),
		}
	}
	return result, nil
}

// Cancel discards a session awaiting PIN entry without any network call and reports whether one was discarded.
// In any other state it does nothing: a submission in flight cannot be cancelled.
func (w *Workflow) Cancel() bool {
	w.mu.Lock()
	if w.state != AwaitingPinEntry {
		w.mu.Unlock()
		return false
	}
	sess := *w.session
	w.state = Idle
	w.session = nil
	w.mu.Unlock()
	w.emit(context.Background(), telemetrydomain.EventTransferCancelled, sess, nil)
	return true
}

func (w *Workflow) reset() {
	w.mu.Lock()
	w.state = Idle
	w.session = nil
	w.mu.Unlock()
}

func (w *Workflow) emit(ctx context.Context, eventType string, sess session, extra map[string]any) {
	if w.emitter == nil {
		return
	}
	meta := map[string]any{
		"from_account":   sess.intent.FromAccountNumber,
		"recipient_mode": string(sess.intent.Mode),
		"amount":         sess.intent.Amount.String(),
	}
	for k, v := range extra {
		meta[k] = v
	}
	telemetry.EmitAsync(w.emitter, ctx, telemetry.NewEvent(eventType, w.userID, sess.key, meta))
}

func (w *Workflow) record(ctx context.Context, intent domain.Intent, outcome string) {
	if w.submissions == nil {
		return
	}
	w.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("recipient_mode", string(intent.Mode)),
	))
}

func outcomeOf(err error) string {
	if bankapi.IsNetwork(err) {
		return "network_error"
	}
	if _, ok := bankapi.IsRemote(err); ok {
		return "rejected"
	}
	return "error"
}
