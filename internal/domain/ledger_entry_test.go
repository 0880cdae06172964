package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerEntry_SignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(250)

	tests := []struct {
		kind EntryKind
		want decimal.Decimal
	}{
		{KindDeposit, amount},
		{KindWithdrawal, amount.Neg()},
		{KindPerformanceFee, decimal.Zero},
	}

	for _, tt := range tests {
		e := LedgerEntry{Kind: tt.kind, Amount: amount}
		if got := e.SignedAmount(); !got.Equal(tt.want) {
			t.Errorf("%s: expected %s, got %s", tt.kind, tt.want, got)
		}
	}
}

func TestParsePool(t *testing.T) {
	p, err := ParsePool(" capital ")
	if err != nil || p != PoolCapital {
		t.Fatalf("expected CAPITAL, got %q err=%v", p, err)
	}

	p, err = ParsePool("OPERATOR")
	if err != nil || p != PoolOperator {
		t.Fatalf("expected OPERATOR, got %q err=%v", p, err)
	}

	if _, err := ParsePool("admin"); !errors.Is(err, ErrInvalidPool) {
		t.Fatalf("expected ErrInvalidPool, got %v", err)
	}
}

func TestEntryKind_Valid(t *testing.T) {
	if !KindPerformanceFee.Valid() || EntryKind("BONUS").Valid() {
		t.Fatal("unexpected kind validity")
	}

	fee := LedgerEntry{Kind: KindPerformanceFee}
	if !fee.IsEngineOutput() {
		t.Fatal("fee entries are settlement output")
	}

	if FeeEntryID("w1") != "fee-w1" {
		t.Fatalf("unexpected fee entry id %q", FeeEntryID("w1"))
	}
}
