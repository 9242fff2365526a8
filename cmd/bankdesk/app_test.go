package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"bankdesk/internal/bankapi"
	"bankdesk/internal/policy/engine"
)

// fakeBank is an in-memory banking API with one customer (42) and one staff user (7).
type fakeBank struct {
	mu        sync.Mutex
	transfers []http.Header
	forms     []map[string]string
}

func (b *fakeBank) record(r *http.Request) {
	_ = r.ParseForm()
	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	b.mu.Lock()
	b.transfers = append(b.transfers, r.Header.Clone())
	b.forms = append(b.forms, form)
	b.mu.Unlock()
}

func (b *fakeBank) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch {
		case bytes.Contains(body, []byte(`"9876543210"`)):
			writeJSON(w, `{"message":"Login successful","authenticated":true,"user":{"id":42,"firstName":"Asha","lastName":"Rao","phoneNumber":"9876543210","role":"CUSTOMER"}}`)
		case bytes.Contains(body, []byte(`"9000000007"`)):
			writeJSON(w, `{"message":"Login successful","authenticated":true,"user":{"id":7,"firstName":"Sam","lastName":"Staff","phoneNumber":"9000000007","role":"STAFF"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "User not found with this phone number")
		}
	})
	mux.HandleFunc("GET /api/accounts/user/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":1,"accountNumber":"ACC1001","accountType":"SAVINGS","balance":1000.00,"status":"ACTIVE"}]`)
	})
	mux.HandleFunc("GET /api/users/42/has-pin", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `true`)
	})
	mux.HandleFunc("GET /api/account-requests/user/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("GET /api/transactions/history/phone/9876543210", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("POST /api/transactions/transfer/by-phone", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, `{"id":9,"transactionId":"TXN9001","transactionType":"TRANSFER","amount":250.50,"status":"COMPLETED","fromAccount":{"accountNumber":"ACC1001"}}`)
	})
	mux.HandleFunc("GET /api/account-requests/pending", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":5,"requestId":"REQ5","accountType":"CURRENT","initialDeposit":100,"status":"PENDING","user":{"id":42,"firstName":"Asha","lastName":"Rao"}}]`)
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"id":42,"firstName":"Asha","lastName":"Rao","role":"CUSTOMER"}]`)
	})
	mux.HandleFunc("GET /api/accounts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("GET /api/transactions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("POST /api/account-requests/5/reject", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, `{"id":5,"requestId":"REQ5","status":"REJECTED","rejectionReason":"Incomplete KYC"}`)
	})
	return mux
}

func runApp(t *testing.T, bank *fakeBank, script ...string) string {
	t.Helper()
	srv := httptest.NewServer(bank.handler())
	t.Cleanup(srv.Close)
	policy, err := engine.NewAuthorizer()
	if err != nil {
		t.Fatalf("NewAuthorizer: %v", err)
	}
	var out bytes.Buffer
	app := newApp(deps{
		api:    bankapi.NewClient(srv.URL+"/api", 0),
		policy: policy,
	}, strings.NewReader(strings.Join(script, "\n")+"\n"), &out)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestCustomerTransferWithRetry(t *testing.T) {
	bank := &fakeBank{}
	out := runApp(t, bank,
		"login", "9876543210", "", "s3cret",
		"transfer", "", "phone", "9123456780", "250.50", "Rent",
		"12345", "y", "654321",
		"quit",
	)

	for _, want := range []string{
		"Welcome, Asha Rao.",
		"Transfer PIN: set",
		"Confirm transfer of 250.5 from ACC1001 to 9123456780 (phone): Rent",
		"pin must be exactly 6 digits",
		"Transfer successful. Transaction TXN9001 (COMPLETED).",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "654321") || strings.Contains(out, "s3cret") {
		t.Error("secrets must not be echoed")
	}

	bank.mu.Lock()
	defer bank.mu.Unlock()
	if len(bank.forms) != 1 {
		t.Fatalf("transfer submissions = %d, want 1", len(bank.forms))
	}
	form := bank.forms[0]
	if form["pin"] != "654321" || form["toPhoneNumber"] != "9123456780" || form["fromAccountNumber"] != "ACC1001" || form["userId"] != "42" {
		t.Errorf("form = %v", form)
	}
	if bank.transfers[0].Get(bankapi.IdempotencyKeyHeader) == "" {
		t.Error("transfer should carry an idempotency key")
	}
}

func TestCustomerCancelsAtPinPrompt(t *testing.T) {
	bank := &fakeBank{}
	out := runApp(t, bank,
		"login", "9876543210", "customer", "s3cret",
		"transfer", "ACC1001", "account", "ACC2002", "10", "",
		"",
		"quit",
	)
	if !strings.Contains(out, "Transfer cancelled.") {
		t.Errorf("output:\n%s", out)
	}
	if len(bank.forms) != 0 {
		t.Errorf("submissions = %d, want 0", len(bank.forms))
	}
}

func TestStaffCommandsFollowPolicy(t *testing.T) {
	bank := &fakeBank{}
	out := runApp(t, bank,
		"login", "9000000007", "staff", "pw",
		"help",
		"transfer",
		"pending",
		"reject", "5", "Incomplete KYC", "",
		"logout",
		"pending",
	)
	for _, want := range []string{
		"Pending requests: 1, users: 1, accounts: 0, transactions: 0",
		"approve",
		`Unknown or unavailable command "transfer"`,
		"REQ5",
		"Request 5 rejected (REJECTED).",
		"Logged out.",
		`Unknown or unavailable command "pending"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "create-staff") {
		t.Error("staff should not see create-staff")
	}
	if len(bank.forms) != 1 || bank.forms[0]["staffId"] != "7" || bank.forms[0]["rejectionReason"] != "Incomplete KYC" {
		t.Errorf("reject form = %v", bank.forms)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	out := runApp(t, &fakeBank{}, "login", "9111111111", "", "pw", "accounts")
	if !strings.Contains(out, "Error: User not found with this phone number") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, `Unknown or unavailable command "accounts"`) {
		t.Errorf("accounts should need a login:\n%s", out)
	}
}
