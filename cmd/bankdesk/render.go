package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	accountdomain "bankdesk/internal/account/domain"
	requestdomain "bankdesk/internal/accountrequest/domain"
	"bankdesk/internal/dashboard"
	transactiondomain "bankdesk/internal/transaction/domain"
	userdomain "bankdesk/internal/user/domain"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderAccounts(w io.Writer, accounts []*accountdomain.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No accounts.")
		return
	}
	tw := newTable(w, "ACCOUNT", "TYPE", "BALANCE", "STATUS", "OWNER", "OPENED")
	for _, a := range accounts {
		row(tw, a.AccountNumber, string(a.AccountType), a.Balance.StringFixed(2), string(a.Status), orDash(a.OwnerName), fmtTime(a.CreatedAt))
	}
	tw.Flush()
}

func renderHistory(w io.Writer, entries []dashboard.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	tw := newTable(w, "TRANSACTION", "DATE", "DIRECTION", "AMOUNT", "FROM", "TO", "STATUS", "DESCRIPTION")
	for _, e := range entries {
		amount := e.Amount.StringFixed(2)
		if e.Direction.Outgoing() {
			amount = "-" + amount
		}
		row(tw, e.TransactionID, fmtTime(e.Date), string(e.Direction), amount,
			orDash(e.FromAccountNumber), orDash(e.ToAccountNumber), string(e.Status), e.Description)
	}
	tw.Flush()
}

func renderTransactions(w io.Writer, txs []*transactiondomain.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	tw := newTable(w, "TRANSACTION", "DATE", "TYPE", "AMOUNT", "FROM", "TO", "STATUS")
	for _, t := range txs {
		row(tw, t.TransactionID, fmtTime(t.Date), string(t.Type), t.Amount.StringFixed(2),
			orDash(t.FromAccountNumber), orDash(t.ToAccountNumber), string(t.Status))
	}
	tw.Flush()
}

func renderRequests(w io.Writer, reqs []*requestdomain.AccountRequest) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No account requests.")
		return
	}
	tw := newTable(w, "ID", "REQUEST", "CUSTOMER", "PHONE", "TYPE", "DEPOSIT", "STATUS", "CREATED", "NOTES")
	for _, r := range reqs {
		notes := r.StaffComments
		if r.RejectionReason != "" {
			notes = r.RejectionReason
		}
		row(tw, r.ID, orDash(r.RequestID), orDash(r.CustomerName), orDash(r.CustomerPhone), string(r.AccountType),
			r.InitialDeposit.StringFixed(2), string(r.Status), fmtTime(r.CreatedAt), orDash(notes))
	}
	tw.Flush()
}

func renderUsers(w io.Writer, users []*userdomain.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	tw := newTable(w, "ID", "NAME", "EMAIL", "PHONE", "ROLE", "JOINED")
	for _, u := range users {
		row(tw, u.ID, u.FullName(), orDash(u.Email), orDash(u.PhoneNumber), string(u.Role), fmtTime(u.CreatedAt))
	}
	tw.Flush()
}
