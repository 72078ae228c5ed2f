package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/studyhall/internal/payments"
)

// RecordTransfer inserts one executed transfer into the audit ledger.
func (s *Store) RecordTransfer(ctx context.Context, transfer payments.Transfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(transfer.Reference) == "" {
		return fmt.Errorf("transfer reference is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO transfers (reference, session_id, recipient, amount, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		transfer.Reference,
		transfer.SessionID,
		transfer.Recipient,
		transfer.Amount,
		toMillis(transfer.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record transfer: %w", err)
	}
	return nil
}

// ListTransfersBySession returns the transfer history for one session.
func (s *Store) ListTransfersBySession(ctx context.Context, sessionID string) ([]payments.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT reference, session_id, recipient, amount, created_at
		   FROM transfers WHERE session_id = ?
		  ORDER BY created_at, reference`,
		strings.TrimSpace(sessionID),
	)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []payments.Transfer
	for rows.Next() {
		var (
			transfer  payments.Transfer
			createdAt int64
		)
		if err := rows.Scan(
			&transfer.Reference,
			&transfer.SessionID,
			&transfer.Recipient,
			&transfer.Amount,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		transfer.CreatedAt = fromMillis(createdAt)
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}
