// Property-based tests for the strawberry ledger invariants.
package economy

import (
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/Jmcasavant/StrawberryBot/internal/config"
)

// propLedger builds a fresh in-memory ledger for one property iteration.
// Nothing is ever saved, so every iteration can share the temp dir.
func propLedger(t *rapid.T, dir string) *Ledger {
	l, err := Open(&config.EconomyConfig{
		DataFile:        filepath.Join(dir, "strawberry_data.json"),
		StartingBalance: 10,
		DailyReward:     10,
		StreakBonus:     2,
		MaxStreakBonus:  10,
		SaveInterval:    time.Minute,
		LeaderboardTTL:  5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return l
}

// TestBalanceNeverNegativeProperty checks that no sequence of ledger
// operations can drive any balance below zero.
func TestBalanceNeverNegativeProperty(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		l := propLedger(t, dir)

		userIDs := []int64{1, 2, 3}
		ops := rapid.IntRange(1, 50).Draw(t, "ops")

		for i := 0; i < ops; i++ {
			user := rapid.SampledFrom(userIDs).Draw(t, "user")
			amount := rapid.Int64Range(-10, 200).Draw(t, "amount")

			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				l.Credit(user, amount)
			case 1:
				l.Debit(user, amount)
			case 2:
				to := rapid.SampledFrom(userIDs).Draw(t, "to")
				l.Transfer(user, to, amount)
			case 3:
				l.SetBalance(user, amount)
			}

			for _, id := range userIDs {
				if bal := l.Balance(id); bal < 0 {
					t.Fatalf("balance of user %d went negative: %d", id, bal)
				}
			}
		}
	})
}

// TestDebitAtomicityProperty checks that a debit either subtracts exactly
// the requested amount or leaves the balance untouched, depending on
// sufficiency at call time.
func TestDebitAtomicityProperty(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		l := propLedger(t, dir)

		balance := rapid.Int64Range(0, 1000).Draw(t, "balance")
		amount := rapid.Int64Range(1, 1500).Draw(t, "amount")
		if err := l.SetBalance(1, balance); err != nil {
			t.Fatalf("SetBalance: %v", err)
		}

		ok, err := l.Debit(1, amount)
		if err != nil {
			t.Fatalf("Debit: %v", err)
		}

		if amount > balance {
			if ok {
				t.Fatalf("debit of %d from %d should have failed", amount, balance)
			}
			if got := l.Balance(1); got != balance {
				t.Fatalf("failed debit mutated balance: %d -> %d", balance, got)
			}
		} else {
			if !ok {
				t.Fatalf("debit of %d from %d should have succeeded", amount, balance)
			}
			if got := l.Balance(1); got != balance-amount {
				t.Fatalf("debit of %d from %d left %d", amount, balance, got)
			}
		}
	})
}

// TestTransferConservationProperty checks that a transfer never creates
// or destroys strawberries.
func TestTransferConservationProperty(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(t *rapid.T) {
		l := propLedger(t, dir)

		fromBal := rapid.Int64Range(0, 1000).Draw(t, "fromBal")
		toBal := rapid.Int64Range(0, 1000).Draw(t, "toBal")
		amount := rapid.Int64Range(1, 1500).Draw(t, "amount")

		if err := l.SetBalance(1, fromBal); err != nil {
			t.Fatalf("SetBalance: %v", err)
		}
		if err := l.SetBalance(2, toBal); err != nil {
			t.Fatalf("SetBalance: %v", err)
		}

		ok, err := l.Transfer(1, 2, amount)
		if err != nil {
			t.Fatalf("Transfer: %v", err)
		}

		total := l.Balance(1) + l.Balance(2)
		if total != fromBal+toBal {
			t.Fatalf("transfer changed total: %d -> %d", fromBal+toBal, total)
		}
		if !ok {
			if l.Balance(1) != fromBal || l.Balance(2) != toBal {
				t.Fatalf("failed transfer mutated balances")
			}
		}
	})
}
