package dashboard

import (
	"context"
	"sync"

	accountdomain "bankdesk/internal/account/domain"
	identitydomain "bankdesk/internal/identity/domain"
)

// BalanceView holds the most recently loaded accounts of a customer. Balances shown are display-only.
type BalanceView struct {
	mu       sync.RWMutex
	accounts []*accountdomain.Account
	loads    int
}

// Set replaces the held accounts.
func (v *BalanceView) Set(accounts []*accountdomain.Account) {
	v.mu.Lock()
	v.accounts = accounts
	v.loads++
	v.mu.Unlock()
}

// Accounts returns the held accounts.
func (v *BalanceView) Accounts() []*accountdomain.Account {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.accounts
}

// Loads returns how many times the view has been set.
func (v *BalanceView) Loads() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loads
}

// Refresher returns a function that reloads the session's accounts into view. It is used as the transfer
// workflow's refresh side effect.
func (l *Loader) Refresher(sess *identitydomain.Session, view *BalanceView) func(context.Context) error {
	return func(ctx context.Context) error {
		if sess == nil || sess.User == nil {
			return identitydomain.ErrNoSession
		}
		accounts, err := l.api.AccountsByUser(ctx, sess.UserID())
		if err != nil {
			return err
		}
		view.Set(accounts)
		return nil
	}
}
