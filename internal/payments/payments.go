// Package payments defines the external transfer primitive the session
// lifecycle settles through. The monetary rail itself lives outside this
// system; the gateway contract only moves a withdrawn escrow amount to a
// named recipient.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transfer describes one movement of withdrawn escrow funds to a recipient.
type Transfer struct {
	// Reference uniquely identifies the transfer across retries.
	Reference string
	SessionID string
	Recipient string
	Amount    int64
	CreatedAt time.Time
}

// NewTransfer builds a transfer instruction with a fresh reference.
func NewTransfer(sessionID, recipient string, amount int64, now time.Time) Transfer {
	return Transfer{
		Reference: uuid.NewString(),
		SessionID: sessionID,
		Recipient: recipient,
		Amount:    amount,
		CreatedAt: now.UTC(),
	}
}

// Gateway moves a withdrawn escrow amount to a named recipient.
// Implementations must be all-or-nothing: a returned error means no funds moved.
type Gateway interface {
	Transfer(ctx context.Context, transfer Transfer) error
}

// Ledger persists executed transfers for audit.
type Ledger interface {
	RecordTransfer(ctx context.Context, transfer Transfer) error
}

// LedgerGateway is a gateway that settles by recording transfers in a ledger.
// It stands in for a real payment rail in deployments that reconcile offline.
type LedgerGateway struct {
	ledger Ledger
}

// NewLedgerGateway creates a gateway backed by a transfer ledger.
func NewLedgerGateway(ledger Ledger) *LedgerGateway {
	return &LedgerGateway{ledger: ledger}
}

// Transfer validates and records one transfer instruction.
func (g *LedgerGateway) Transfer(ctx context.Context, transfer Transfer) error {
	if g == nil || g.ledger == nil {
		return fmt.Errorf("transfer ledger is not configured")
	}
	if strings.TrimSpace(transfer.Reference) == "" {
		return fmt.Errorf("transfer reference is required")
	}
	if strings.TrimSpace(transfer.SessionID) == "" {
		return fmt.Errorf("transfer session id is required")
	}
	if strings.TrimSpace(transfer.Recipient) == "" {
		return fmt.Errorf("transfer recipient is required")
	}
	if transfer.Amount <= 0 {
		return fmt.Errorf("transfer amount must be greater than zero")
	}
	return g.ledger.RecordTransfer(ctx, transfer)
}
