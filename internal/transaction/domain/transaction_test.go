package domain

import "testing"

func TestDirectionFor(t *testing.T) {
	own := map[string]bool{"ACC1": true, "ACC2": true}
	tests := []struct {
		name string
		tx   Transaction
		want Direction
	}{
		{"deposit", Transaction{Type: TypeDeposit, ToAccountNumber: "ACC1"}, DirectionCredit},
		{"withdrawal", Transaction{Type: TypeWithdrawal, FromAccountNumber: "ACC1"}, DirectionDebit},
		{"sent", Transaction{Type: TypeTransfer, FromAccountNumber: "ACC1", ToAccountNumber: "X"}, DirectionSent},
		{"received", Transaction{Type: TypeTransfer, FromAccountNumber: "X", ToAccountNumber: "ACC2"}, DirectionReceived},
		{"between own accounts", Transaction{Type: TypeTransfer, FromAccountNumber: "ACC1", ToAccountNumber: "ACC2"}, DirectionSent},
		{"foreign transfer", Transaction{Type: TypeTransfer, FromAccountNumber: "X", ToAccountNumber: "Y"}, DirectionUnknown},
		{"payment", Transaction{Type: TypePayment}, DirectionUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DirectionFor(&tt.tx, own); got != tt.want {
				t.Errorf("DirectionFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirection_Outgoing(t *testing.T) {
	if !DirectionSent.Outgoing() || !DirectionDebit.Outgoing() {
		t.Error("Sent and Debit should be outgoing")
	}
	if DirectionCredit.Outgoing() || DirectionReceived.Outgoing() || DirectionUnknown.Outgoing() {
		t.Error("Credit, Received and Unknown should not be outgoing")
	}
}
