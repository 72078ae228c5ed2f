package session

import (
	"errors"
	"math"
	"testing"
)

func TestEscrowDeposit(t *testing.T) {
	e := Escrow{}
	e, err := e.Deposit(10, 0)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if e.Balance != 10 {
		t.Fatalf("expected balance 10, got %d", e.Balance)
	}
	e, err = e.Deposit(5, 0)
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if e.Balance != 15 {
		t.Fatalf("expected balance 15, got %d", e.Balance)
	}
}

func TestEscrowDepositRejectsNonPositive(t *testing.T) {
	e := Escrow{Balance: 3}
	if _, err := e.Deposit(0, 0); !errors.Is(err, ErrInvalidEscrowAmount) {
		t.Fatalf("expected invalid amount for zero, got %v", err)
	}
	if _, err := e.Deposit(-1, 0); !errors.Is(err, ErrInvalidEscrowAmount) {
		t.Fatalf("expected invalid amount for negative, got %v", err)
	}
}

func TestEscrowDepositCap(t *testing.T) {
	e := Escrow{Balance: 90}
	if _, err := e.Deposit(11, 100); !errors.Is(err, ErrFundsCapExceeded) {
		t.Fatalf("expected cap exceeded, got %v", err)
	}
	capped, err := e.Deposit(10, 100)
	if err != nil {
		t.Fatalf("deposit at cap: %v", err)
	}
	if capped.Balance != 100 {
		t.Fatalf("expected balance 100, got %d", capped.Balance)
	}
}

func TestEscrowWithdrawAll(t *testing.T) {
	e := Escrow{Balance: 25}
	drained, amount := e.WithdrawAll()
	if amount != 25 {
		t.Fatalf("expected withdrawn 25, got %d", amount)
	}
	if drained.Balance != 0 {
		t.Fatalf("expected drained balance, got %d", drained.Balance)
	}

	// A second withdrawal is a no-op, never negative.
	again, amount := drained.WithdrawAll()
	if amount != 0 {
		t.Fatalf("expected zero on second withdrawal, got %d", amount)
	}
	if again.Balance != 0 {
		t.Fatalf("expected balance to stay zero, got %d", again.Balance)
	}
}

func TestEscrowDepositOverflow(t *testing.T) {
	e := Escrow{Balance: math.MaxInt64}
	if _, err := e.Deposit(math.MaxInt64, 0); !errors.Is(err, ErrFundsCapExceeded) {
		t.Fatalf("expected cap exceeded on overflow, got %v", err)
	}
	if _, err := e.Deposit(1, 0); !errors.Is(err, ErrFundsCapExceeded) {
		t.Fatalf("expected cap exceeded one past the limit, got %v", err)
	}

	// A wrapped sum must not slip past a configured cap either.
	if _, err := e.Deposit(math.MaxInt64, 100); !errors.Is(err, ErrFundsCapExceeded) {
		t.Fatalf("expected cap exceeded on capped overflow, got %v", err)
	}

	// The exact remaining headroom is still depositable.
	e = Escrow{Balance: 10}
	full, err := e.Deposit(math.MaxInt64-10, 0)
	if err != nil {
		t.Fatalf("deposit to limit: %v", err)
	}
	if full.Balance != math.MaxInt64 {
		t.Fatalf("expected balance at limit, got %d", full.Balance)
	}
	if full.Balance < 0 {
		t.Fatalf("escrow balance is negative: %d", full.Balance)
	}
}
