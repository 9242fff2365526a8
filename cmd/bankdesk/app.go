package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"bankdesk/internal/accountrequest/service"
	"bankdesk/internal/bankapi"
	"bankdesk/internal/dashboard"
	identitydomain "bankdesk/internal/identity/domain"
	identityservice "bankdesk/internal/identity/service"
	"bankdesk/internal/policy/engine"
	"bankdesk/internal/telemetry"
	"bankdesk/internal/transfer"
	userdomain "bankdesk/internal/user/domain"
)

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// deps are the long-lived collaborators shared by every session.
type deps struct {
	api           *bankapi.Client
	policy        *engine.Authorizer
	verifier      identityservice.TokenVerifier
	emitter       telemetry.EventEmitter
	meter         metric.Meter
	submitTimeout time.Duration
}

// App is the interactive terminal front end. At most one user is logged in at a time; logging out drops
// every per-session collaborator.
type App struct {
	deps
	p        *prompter
	out      io.Writer
	identity *identityservice.Service
	now      func() time.Time

	sess     *identitydomain.Session
	client   *bankapi.Client
	requests *service.Service
	loader   *dashboard.Loader
	workflow *transfer.Workflow
	balances *dashboard.BalanceView
	actions  map[string]bool
}

func newApp(d deps, in io.Reader, out io.Writer) *App {
	return &App{
		deps:     d,
		p:        newPrompter(in, out),
		out:      out,
		identity: identityservice.NewService(d.api, d.verifier, d.policy, d.emitter),
		now:      time.Now,
	}
}

// command is one REPL command. action is the policy action that enables it; public commands work without login.
type command struct {
	name   string
	action string
	public bool
	help   string
	run    func(a *App, ctx context.Context) error
}

// commands is filled in init because the help command lists it.
var commands []command

func init() {
	commands = []command{
		{name: "help", public: true, help: "list available commands", run: (*App).cmdHelp},
		{name: "register", public: true, help: "register as a new customer", run: (*App).cmdRegister},
		{name: "login", public: true, help: "log in", run: (*App).cmdLogin},
		{name: "accounts", action: engine.ActionAccounts, help: "show your accounts and balances", run: (*App).cmdAccounts},
		{name: "pin", action: engine.ActionPinStatus, help: "show whether a transfer PIN is set", run: (*App).cmdPinStatus},
		{name: "create-pin", action: engine.ActionCreatePin, help: "create your 6-digit transfer PIN", run: (*App).cmdCreatePin},
		{name: "transfer", action: engine.ActionTransfer, help: "transfer money by phone number or account number", run: (*App).cmdTransfer},
		{name: "request-account", action: engine.ActionRequestAccount, help: "request a new account", run: (*App).cmdRequestAccount},
		{name: "requests", action: engine.ActionMyRequests, help: "show your account requests", run: (*App).cmdMyRequests},
		{name: "history", action: engine.ActionHistory, help: "show your transaction history", run: (*App).cmdHistory},
		{name: "pending", action: engine.ActionPendingRequests, help: "show pending account requests", run: (*App).cmdPending},
		{name: "approve", action: engine.ActionApproveRequest, help: "approve an account request", run: (*App).cmdApprove},
		{name: "reject", action: engine.ActionRejectRequest, help: "reject an account request", run: (*App).cmdReject},
		{name: "users", action: engine.ActionUsers, help: "list users", run: (*App).cmdUsers},
		{name: "all-accounts", action: engine.ActionAllAccounts, help: "list all accounts", run: (*App).cmdAllAccounts},
		{name: "all-transactions", action: engine.ActionAllTransactions, help: "list all transactions", run: (*App).cmdAllTransactions},
		{name: "create-staff", action: engine.ActionCreateStaff, help: "create a staff user", run: (*App).cmdCreateStaff},
		{name: "logout", help: "log out", run: (*App).cmdLogout},
		{name: "quit", public: true, help: "exit", run: (*App).cmdQuit},
	}
}

// Run reads commands until quit, end of input or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "bankdesk: type help for the list of commands")
	for ctx.Err() == nil {
		a.expireSession()
		input, err := a.p.line(a.promptLabel())
		if errors.Is(err, errInputClosed) {
			a.endSession()
			return nil
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if name == "exit" {
			name = "quit"
		}
		cmd, ok := a.lookup(name)
		if !ok {
			fmt.Fprintf(a.out, "Unknown or unavailable command %q. Type help.\n", fields[0])
			continue
		}
		err = cmd.run(a, ctx)
		switch {
		case errors.Is(err, errQuit):
			a.endSession()
			return nil
		case errors.Is(err, errInputClosed):
			a.endSession()
			return nil
		case err != nil:
			a.printError(err)
		}
	}
	a.endSession()
	return nil
}

func (a *App) promptLabel() string {
	if a.sess == nil {
		return "bankdesk> "
	}
	return fmt.Sprintf("bankdesk [%s %s]> ", a.sess.User.FullName(), strings.ToLower(string(a.sess.Role)))
}

// lookup returns the command if it is available in the current state.
func (a *App) lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name && a.available(c) {
			return c, true
		}
	}
	return command{}, false
}

func (a *App) available(c command) bool {
	if c.public {
		return c.name == "help" || c.name == "quit" || a.sess == nil
	}
	if a.sess == nil {
		return false
	}
	return c.action == "" || a.actions[c.action]
}

func (a *App) printError(err error) {
	var ne *bankapi.NetworkError
	if errors.As(err, &ne) {
		log.Printf("bankdesk: %s", ne.Detail())
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
}

// startSession builds the per-session collaborators. The bearer token, if any, is used for every later call.
func (a *App) startSession(ctx context.Context, sess *identitydomain.Session) error {
	actions, err := a.policy.Actions(ctx, sess.Role)
	if err != nil {
		return err
	}
	a.sess = sess
	a.client = a.api.WithToken(sess.AccessToken)
	a.requests = service.NewService(a.client, a.policy, a.emitter)
	a.loader = dashboard.NewLoader(a.client, a.policy)
	a.balances = &dashboard.BalanceView{}
	a.actions = make(map[string]bool, len(actions))
	for _, act := range actions {
		a.actions[act] = true
	}
	if sess.Role == userdomain.RoleCustomer {
		a.workflow = transfer.New(a.client, sess.UserID(), transfer.Options{
			Emitter:       a.emitter,
			Refresh:       a.loader.Refresher(sess, a.balances),
			SubmitTimeout: a.submitTimeout,
			Meter:         a.meter,
		})
	}
	return nil
}

// endSession drops the session. A transfer awaiting its PIN is cancelled.
func (a *App) endSession() {
	if a.workflow != nil {
		a.workflow.Cancel()
	}
	a.sess = nil
	a.client = nil
	a.requests = nil
	a.loader = nil
	a.workflow = nil
	a.balances = nil
	a.actions = nil
}

func (a *App) expireSession() {
	if a.sess != nil && a.sess.Expired(a.now()) {
		fmt.Fprintln(a.out, "Your session has expired. Please log in again.")
		a.endSession()
	}
}

func (a *App) cmdHelp(ctx context.Context) error {
	var lines []string
	for _, c := range commands {
		if a.available(c) {
			lines = append(lines, fmt.Sprintf("  %-17s %s", c.name, c.help))
		}
	}
	fmt.Fprintln(a.out, "Commands:")
	fmt.Fprintln(a.out, strings.Join(lines, "\n"))
	return nil
}

func (a *App) cmdQuit(ctx context.Context) error {
	return errQuit
}
