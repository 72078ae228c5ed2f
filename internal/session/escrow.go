package session

import (
	"math"

	apperrors "github.com/louisbranch/studyhall/internal/platform/errors"
)

var (
	// ErrInvalidEscrowAmount indicates a non-positive deposit amount.
	ErrInvalidEscrowAmount = apperrors.New(apperrors.CodeEscrowInvalidAmount, "escrow amount must be greater than zero")
	// ErrFundsCapExceeded indicates the deposit would exceed the configured cap.
	ErrFundsCapExceeded = apperrors.New(apperrors.CodeEscrowFundsCapExceeded, "escrow funds cap exceeded")
)

// Escrow holds the funds accumulated against a session.
// The balance never goes negative: deposits add, and the only withdrawal
// operation atomically drains the full balance.
type Escrow struct {
	Balance int64
}

// Deposit returns an Escrow with increased balance.
// Amount must be greater than zero. A fundsCap of zero disables the limit.
func (e Escrow) Deposit(amount, fundsCap int64) (Escrow, error) {
	if amount <= 0 {
		return Escrow{}, ErrInvalidEscrowAmount
	}
	// The sum must stay representable; a wrapped balance would go negative.
	if amount > math.MaxInt64-e.Balance {
		return Escrow{}, ErrFundsCapExceeded
	}
	after := e.Balance + amount
	if fundsCap > 0 && after > fundsCap {
		return Escrow{}, ErrFundsCapExceeded
	}
	return Escrow{Balance: after}, nil
}

// WithdrawAll returns a drained Escrow and the withdrawn amount.
// A second withdrawal before a new deposit yields zero; it never goes negative.
func (e Escrow) WithdrawAll() (Escrow, int64) {
	return Escrow{}, e.Balance
}
