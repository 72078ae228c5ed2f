// Package storage defines persistence contracts for tutoring session state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/studyhall/internal/payments"
	"github.com/louisbranch/studyhall/internal/session"
)

// ErrNotFound indicates a requested session record is missing.
var ErrNotFound = errors.New("record not found")

// SessionStore persists session records. Each session is an independently
// addressable record; PutSession replaces the whole row so a successful write
// is indistinguishable from a single atomic transition.
type SessionStore interface {
	CreateSession(ctx context.Context, s session.Session) error
	GetSession(ctx context.Context, id string) (session.Session, error)
	PutSession(ctx context.Context, s session.Session) error
	ListSessionsByParticipant(ctx context.Context, actorID string) ([]session.Session, error)
}

// TransferStore persists the audit ledger of executed escrow transfers.
type TransferStore interface {
	RecordTransfer(ctx context.Context, transfer payments.Transfer) error
	ListTransfersBySession(ctx context.Context, sessionID string) ([]payments.Transfer, error)
}
