package domain

import "strings"

// Status is the outcome shown to the user.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Result is the ledger's answer to a submission. It is displayed and not stored.
type Result struct {
	TransactionID string
	Status        Status
	// LedgerStatus is the raw status reported by the ledger (e.g. COMPLETED, PENDING).
	LedgerStatus string
}

// ResultFromLedger maps a ledger status onto Result. COMPLETED, PENDING and SUCCESS read as success;
// anything else (FAILED, CANCELLED, unknown) reads as failure.
func ResultFromLedger(transactionID, ledgerStatus string) Result {
	st := StatusFailed
	switch strings.ToUpper(strings.TrimSpace(ledgerStatus)) {
	case "COMPLETED", "PENDING", "SUCCESS":
		st = StatusSuccess
	}
	return Result{TransactionID: transactionID, Status: st, LedgerStatus: ledgerStatus}
}

// Succeeded reports whether the ledger accepted the transfer.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}
