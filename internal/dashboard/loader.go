// Package dashboard loads what each role's dashboard shows. Sections are loaded concurrently and only when
// the role policy grants the matching action.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	accountdomain "bankdesk/internal/account/domain"
	requestdomain "bankdesk/internal/accountrequest/domain"
	identitydomain "bankdesk/internal/identity/domain"
	"bankdesk/internal/policy/engine"
	transactiondomain "bankdesk/internal/transaction/domain"
	userdomain "bankdesk/internal/user/domain"
)

// ErrWrongDashboard is returned when a session asks for the dashboard of another role family.
var ErrWrongDashboard = errors.New("dashboard not available for this role")

// API is the read side of the banking API used by the dashboards.
type API interface {
	AccountsByUser(ctx context.Context, userID string) ([]*accountdomain.Account, error)
	AllAccounts(ctx context.Context) ([]*accountdomain.Account, error)
	HistoryByPhone(ctx context.Context, phone string) ([]*transactiondomain.Transaction, error)
	AllTransactions(ctx context.Context) ([]*transactiondomain.Transaction, error)
	ListUsers(ctx context.Context) ([]*userdomain.User, error)
	AccountRequestsByUser(ctx context.Context, userID string) ([]*requestdomain.AccountRequest, error)
	PendingAccountRequests(ctx context.Context) ([]*requestdomain.AccountRequest, error)
	HasPin(ctx context.Context, userID string) (bool, error)
}

// Policy lists the actions a role may perform.
type Policy interface {
	Actions(ctx context.Context, role userdomain.Role) ([]string, error)
}

// HistoryEntry is a transaction with its direction as seen by the viewing customer.
type HistoryEntry struct {
	*transactiondomain.Transaction
	Direction transactiondomain.Direction
}

// Customer is the customer dashboard. Sections the policy does not grant stay empty.
type Customer struct {
	Actions        []string
	Accounts       []*accountdomain.Account
	ActiveAccounts []*accountdomain.Account
	HasPin         bool
	Requests       []*requestdomain.AccountRequest
	History        []HistoryEntry
}

// Staff is the staff (and admin) dashboard.
type Staff struct {
	Actions      []string
	Pending      []*requestdomain.AccountRequest
	Users        []*userdomain.User
	Accounts     []*accountdomain.Account
	Transactions []*transactiondomain.Transaction
}

// Loader loads dashboards for a session.
type Loader struct {
	api    API
	policy Policy
}

// NewLoader returns a dashboard loader.
func NewLoader(api API, policy Policy) *Loader {
	return &Loader{api: api, policy: policy}
}

// Customer loads the customer dashboard. A failing section does not stop the others: the returned dashboard
// holds what loaded and the error joins every section failure.
func (l *Loader) Customer(ctx context.Context, sess *identitydomain.Session) (*Customer, error) {
	if sess == nil || sess.User == nil {
		return nil, identitydomain.ErrNoSession
	}
	if sess.Role != userdomain.RoleCustomer {
		return nil, ErrWrongDashboard
	}
	actions, err := l.policy.Actions(ctx, sess.Role)
	if err != nil {
		return nil, err
	}
	d := &Customer{Actions: actions}
	granted := grantSet(actions)
	userID := sess.UserID()

	var (
		sections sectionGroup
		accounts []*accountdomain.Account
		history  []*transactiondomain.Transaction
	)
	// Accounts back both the account list and the direction of history entries.
	if granted[engine.ActionAccounts] || granted[engine.ActionHistory] || granted[engine.ActionTransfer] {
		sections.run("accounts", func() (err error) {
			accounts, err = l.api.AccountsByUser(ctx, userID)
			return err
		})
	}
	if granted[engine.ActionPinStatus] || granted[engine.ActionTransfer] {
		sections.run("pin status", func() (err error) {
			d.HasPin, err = l.api.HasPin(ctx, userID)
			return err
		})
	}
	if granted[engine.ActionMyRequests] {
		sections.run("account requests", func() (err error) {
			d.Requests, err = l.api.AccountRequestsByUser(ctx, userID)
			return err
		})
	}
	if granted[engine.ActionHistory] && sess.User.PhoneNumber != "" {
		sections.run("history", func() (err error) {
			history, err = l.api.HistoryByPhone(ctx, sess.User.PhoneNumber)
			return err
		})
	}
	err = sections.wait()

	d.Accounts = accounts
	d.ActiveAccounts = accountdomain.Active(accounts)
	d.History = Classify(history, accounts)
	return d, err
}

// Staff loads the staff dashboard for STAFF and ADMIN sessions.
func (l *Loader) Staff(ctx context.Context, sess *identitydomain.Session) (*Staff, error) {
	if sess == nil || sess.User == nil {
		return nil, identitydomain.ErrNoSession
	}
	if !sess.Role.IsStaff() {
		return nil, ErrWrongDashboard
	}
	actions, err := l.policy.Actions(ctx, sess.Role)
	if err != nil {
		return nil, err
	}
	d := &Staff{Actions: actions}
	granted := grantSet(actions)

	var sections sectionGroup
	if granted[engine.ActionPendingRequests] {
		sections.run("pending requests", func() (err error) {
			d.Pending, err = l.api.PendingAccountRequests(ctx)
			return err
		})
	}
	if granted[engine.ActionUsers] {
		sections.run("users", func() (err error) {
			d.Users, err = l.api.ListUsers(ctx)
			return err
		})
	}
	if granted[engine.ActionAllAccounts] {
		sections.run("all accounts", func() (err error) {
			d.Accounts, err = l.api.AllAccounts(ctx)
			return err
		})
	}
	if granted[engine.ActionAllTransactions] {
		sections.run("all transactions", func() (err error) {
			d.Transactions, err = l.api.AllTransactions(ctx)
			return err
		})
	}
	return d, sections.wait()
}

// Classify pairs each transaction with its direction relative to the accounts the viewer owns.
func Classify(txs []*transactiondomain.Transaction, own []*accountdomain.Account) []HistoryEntry {
	if len(txs) == 0 {
		return nil
	}
	numbers := make(map[string]bool, len(own))
	for _, a := range own {
		if a != nil {
			numbers[a.AccountNumber] = true
		}
	}
	out := make([]HistoryEntry, 0, len(txs))
	for _, t := range txs {
		if t == nil {
			continue
		}
		out = append(out, HistoryEntry{Transaction: t, Direction: transactiondomain.DirectionFor(t, numbers)})
	}
	return out
}

func grantSet(actions []string) map[string]bool {
	m := make(map[string]bool, len(actions))
	for _, a := range actions {
		m[a] = true
	}
	return m
}

// sectionGroup runs section loaders concurrently and collects their errors.
type sectionGroup struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func (g *sectionGroup) run(name string, load func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := load(); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("dashboard: load %s: %w", name, err))
			g.mu.Unlock()
		}
	}()
}

func (g *sectionGroup) wait() error {
	g.wg.Wait()
	return errors.Join(g.errs...)
}
