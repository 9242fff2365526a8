package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	accountdomain "bankdesk/internal/account/domain"
	requestdomain "bankdesk/internal/accountrequest/domain"
	"bankdesk/internal/dashboard"
	identitydomain "bankdesk/internal/identity/domain"
	"bankdesk/internal/telemetry"
	telemetrydomain "bankdesk/internal/telemetry/domain"
	"bankdesk/internal/transfer"
	transferdomain "bankdesk/internal/transfer/domain"
	userdomain "bankdesk/internal/user/domain"
)

func (a *App) cmdLogin(ctx context.Context) error {
	phone, err := a.p.line("Phone number: ")
	if err != nil {
		return err
	}
	role, err := a.p.line("Role (customer/staff/admin) [customer]: ")
	if err != nil {
		return err
	}
	if role == "" {
		role = string(userdomain.RoleCustomer)
	}
	password, err := a.p.secret("Password: ")
	if err != nil {
		return err
	}
	sess, err := a.identity.Login(ctx, phone, password, role)
	if err != nil {
		return err
	}
	if err := a.startSession(ctx, sess); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s.\n", sess.User.FullName())
	a.showOverview(ctx)
	return nil
}

// showOverview prints the dashboard summary for the logged-in role. Section failures are reported, not fatal.
func (a *App) showOverview(ctx context.Context) {
	if a.sess.Role == userdomain.RoleCustomer {
		d, err := a.loader.Customer(ctx, a.sess)
		if d != nil {
			a.balances.Set(d.Accounts)
			renderAccounts(a.out, d.Accounts)
			if d.HasPin {
				fmt.Fprintln(a.out, "Transfer PIN: set")
			} else {
				fmt.Fprintln(a.out, "Transfer PIN: not set. Use create-pin before your first transfer.")
			}
			fmt.Fprintf(a.out, "Account requests: %d, transactions: %d\n", len(d.Requests), len(d.History))
		}
		if err != nil {
			a.printError(err)
		}
		return
	}
	d, err := a.loader.Staff(ctx, a.sess)
	if d != nil {
		fmt.Fprintf(a.out, "Pending requests: %d, users: %d, accounts: %d, transactions: %d\n",
			len(d.Pending), len(d.Users), len(d.Accounts), len(d.Transactions))
	}
	if err != nil {
		a.printError(err)
	}
}

func (a *App) cmdLogout(ctx context.Context) error {
	a.endSession()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) readRegistration() (identitydomain.RegistrationForm, error) {
	var f identitydomain.RegistrationForm
	fields := []struct {
		label string
		dst   *string
	}{
		{"First name: ", &f.FirstName},
		{"Last name: ", &f.LastName},
		{"Email: ", &f.Email},
		{"Phone number (10 digits): ", &f.PhoneNumber},
		{"Aadhar number (12 digits): ", &f.AadharNumber},
		{"Date of birth (YYYY-MM-DD): ", &f.DateOfBirth},
		{"Address: ", &f.Address},
	}
	for _, fld := range fields {
		v, err := a.p.line(fld.label)
		if err != nil {
			return f, err
		}
		*fld.dst = v
	}
	var err error
	if f.Password, err = a.p.secret("Password: "); err != nil {
		return f, err
	}
	if f.ConfirmPassword, err = a.p.secret("Confirm password: "); err != nil {
		return f, err
	}
	return f, nil
}

func (a *App) cmdRegister(ctx context.Context) error {
	form, err := a.readRegistration()
	if err != nil {
		return err
	}
	if _, err := a.identity.Register(ctx, form); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registration successful. You can now log in.")
	return nil
}

func (a *App) cmdCreateStaff(ctx context.Context) error {
	form, err := a.readRegistration()
	if err != nil {
		return err
	}
	u, err := a.identity.CreateStaff(ctx, a.sess, form)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Staff user %s created (id %s).\n", u.FullName(), u.ID)
	return nil
}

func (a *App) cmdAccounts(ctx context.Context) error {
	if err := a.loader.Refresher(a.sess, a.balances)(ctx); err != nil {
		return err
	}
	renderAccounts(a.out, a.balances.Accounts())
	return nil
}

func (a *App) cmdPinStatus(ctx context.Context) error {
	has, err := transfer.PinStatus(ctx, a.client, a.sess.UserID())
	if err != nil {
		return err
	}
	if has {
		fmt.Fprintln(a.out, "Transfer PIN: set")
	} else {
		fmt.Fprintln(a.out, "Transfer PIN: not set. Use create-pin to create one.")
	}
	return nil
}

func (a *App) cmdCreatePin(ctx context.Context) error {
	pin, err := a.p.secret("New 6-digit PIN: ")
	if err != nil {
		return err
	}
	confirm, err := a.p.secret("Confirm PIN: ")
	if err != nil {
		return err
	}
	msg, err := transfer.RegisterPin(ctx, a.client, a.sess.UserID(), pin, confirm)
	if err != nil {
		return err
	}
	ev := telemetry.NewEvent(telemetrydomain.EventPinCreated, a.sess.UserID(), "", nil)
	ev.Role = string(a.sess.Role)
	telemetry.EmitAsync(a.emitter, ctx, ev)
	if msg == "" {
		msg = "Transfer PIN created."
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) cmdTransfer(ctx context.Context) error {
	if err := a.loader.Refresher(a.sess, a.balances)(ctx); err != nil {
		return err
	}
	active := accountdomain.Active(a.balances.Accounts())
	if len(active) == 0 {
		fmt.Fprintln(a.out, "You have no active account to transfer from.")
		return nil
	}
	renderAccounts(a.out, active)

	draft, err := a.readTransferDraft(active)
	if err != nil {
		return err
	}
	intent, err := a.workflow.Begin(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Confirm transfer of %s\n", intent.Summary())

	for {
		pin, err := a.p.secret("Transfer PIN (empty to cancel): ")
		if err != nil {
			a.workflow.Cancel()
			return err
		}
		if pin == "" {
			a.workflow.Cancel()
			fmt.Fprintln(a.out, "Transfer cancelled.")
			return nil
		}
		res, err := a.workflow.Confirm(ctx, pin)
		if err == nil {
			fmt.Fprintf(a.out, "Transfer successful. Transaction %s (%s).\n", orDash(res.TransactionID), orDash(res.LedgerStatus))
			renderAccounts(a.out, a.balances.Accounts())
			return nil
		}
		a.printError(err)
		if errors.Is(err, transferdomain.ErrSubmissionInFlight) || a.workflow.State() != transfer.AwaitingPinEntry {
			return nil
		}
		retry, cerr := a.p.confirm("Try again?")
		if cerr != nil || !retry {
			a.workflow.Cancel()
			fmt.Fprintln(a.out, "Transfer cancelled.")
			return cerr
		}
	}
}

func (a *App) readTransferDraft(active []*accountdomain.Account) (transferdomain.Draft, error) {
	var d transferdomain.Draft
	label := "From account: "
	if len(active) == 1 {
		label = fmt.Sprintf("From account [%s]: ", active[0].AccountNumber)
	}
	from, err := a.p.line(label)
	if err != nil {
		return d, err
	}
	if from == "" && len(active) == 1 {
		from = active[0].AccountNumber
	}
	d.FromAccountNumber = from

	mode, err := a.p.line("Send to (phone/account): ")
	if err != nil {
		return d, err
	}
	if d.Mode, err = transferdomain.ParseRecipientMode(mode); err != nil {
		return d, err
	}
	recipientLabel := "Recipient phone number: "
	if d.Mode == transferdomain.ModeAccount {
		recipientLabel = "Recipient account number: "
	}
	if d.Recipient, err = a.p.line(recipientLabel); err != nil {
		return d, err
	}
	amount, err := a.p.line("Amount: ")
	if err != nil {
		return d, err
	}
	if d.Amount, err = parseAmount(amount); err != nil {
		return d, err
	}
	if d.Description, err = a.p.line("Description (optional): "); err != nil {
		return d, err
	}
	return d, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &transferdomain.ValidationError{Field: "amount", Reason: "must be a number"}
	}
	return v, nil
}

func (a *App) cmdRequestAccount(ctx context.Context) error {
	accountType, err := a.p.line("Account type (SAVINGS/CURRENT/FIXED_DEPOSIT): ")
	if err != nil {
		return err
	}
	raw, err := a.p.line("Initial deposit [0]: ")
	if err != nil {
		return err
	}
	deposit := decimal.Zero
	if raw != "" {
		if deposit, err = decimal.NewFromString(raw); err != nil {
			return errors.New("initial deposit must be a number")
		}
	}
	req, err := a.requests.Submit(ctx, a.sess, accountType, deposit)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account request %s submitted (%s).\n", orDash(req.RequestID), req.Status)
	return nil
}

func (a *App) cmdMyRequests(ctx context.Context) error {
	reqs, err := a.requests.ListMine(ctx, a.sess)
	if err != nil {
		return err
	}
	renderRequests(a.out, reqs)
	return nil
}

func (a *App) cmdHistory(ctx context.Context) error {
	if err := a.loader.Refresher(a.sess, a.balances)(ctx); err != nil {
		return err
	}
	txs, err := a.client.HistoryByPhone(ctx, a.sess.User.PhoneNumber)
	if err != nil {
		return err
	}
	renderHistory(a.out, dashboard.Classify(txs, a.balances.Accounts()))
	return nil
}

func (a *App) cmdPending(ctx context.Context) error {
	reqs, err := a.requests.ListPending(ctx, a.sess)
	if err != nil {
		return err
	}
	renderRequests(a.out, reqs)
	return nil
}

func (a *App) cmdApprove(ctx context.Context) error {
	id, err := a.p.line("Request id: ")
	if err != nil {
		return err
	}
	comments, err := a.p.line("Comments (optional): ")
	if err != nil {
		return err
	}
	req, err := a.requests.Approve(ctx, a.sess, requestdomain.ApproveCommand{RequestID: id, Comments: comments})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Request %s approved (%s).\n", id, req.Status)
	return nil
}

func (a *App) cmdReject(ctx context.Context) error {
	id, err := a.p.line("Request id: ")
	if err != nil {
		return err
	}
	reason, err := a.p.line("Rejection reason: ")
	if err != nil {
		return err
	}
	comments, err := a.p.line("Comments (optional): ")
	if err != nil {
		return err
	}
	req, err := a.requests.Reject(ctx, a.sess, requestdomain.RejectCommand{RequestID: id, Reason: reason, Comments: comments})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Request %s rejected (%s).\n", id, req.Status)
	return nil
}

func (a *App) cmdUsers(ctx context.Context) error {
	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	renderUsers(a.out, users)
	return nil
}

func (a *App) cmdAllAccounts(ctx context.Context) error {
	accounts, err := a.client.AllAccounts(ctx)
	if err != nil {
		return err
	}
	renderAccounts(a.out, accounts)
	return nil
}

func (a *App) cmdAllTransactions(ctx context.Context) error {
	txs, err := a.client.AllTransactions(ctx)
	if err != nil {
		return err
	}
	renderTransactions(a.out, txs)
	return nil
}
