// Package sqlite provides a SQLite-backed tutoring storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/louisbranch/studyhall/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/studyhall/internal/services/tutoring/storage"
	"github.com/louisbranch/studyhall/internal/services/tutoring/storage/sqlite/migrations"
	"github.com/louisbranch/studyhall/internal/session"
)

// Store persists tutoring state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite tutoring store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateSession inserts one session record.
func (s *Store) CreateSession(ctx context.Context, record session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	materials, err := json.Marshal(record.Materials)
	if err != nil {
		return fmt.Errorf("encode materials: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (
		   id, student, teacher, description, objectives, materials,
		   price, escrow_balance, state, progress, feedback, rating,
		   session_deadline, assignment_deadline, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Student,
		record.Teacher,
		record.Description,
		record.Objectives,
		string(materials),
		record.Price,
		record.Escrow.Balance,
		record.State.String(),
		record.Progress,
		record.Feedback,
		record.Rating,
		deadlineToMillis(record.SessionDeadline),
		deadlineToMillis(record.AssignmentDeadline),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns one session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return session.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return session.Session{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, student, teacher, description, objectives, materials,
		        price, escrow_balance, state, progress, feedback, rating,
		        session_deadline, assignment_deadline, created_at, updated_at
		   FROM sessions WHERE id = ?`,
		strings.TrimSpace(id),
	)
	record, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, storage.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

// PutSession replaces one session record.
func (s *Store) PutSession(ctx context.Context, record session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	materials, err := json.Marshal(record.Materials)
	if err != nil {
		return fmt.Errorf("encode materials: %w", err)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET
		   student = ?, teacher = ?, description = ?, objectives = ?, materials = ?,
		   price = ?, escrow_balance = ?, state = ?, progress = ?, feedback = ?, rating = ?,
		   session_deadline = ?, assignment_deadline = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		record.Student,
		record.Teacher,
		record.Description,
		record.Objectives,
		string(materials),
		record.Price,
		record.Escrow.Balance,
		record.State.String(),
		record.Progress,
		record.Feedback,
		record.Rating,
		deadlineToMillis(record.SessionDeadline),
		deadlineToMillis(record.AssignmentDeadline),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("put session rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListSessionsByParticipant returns sessions where the actor is student or teacher.
func (s *Store) ListSessionsByParticipant(ctx context.Context, actorID string) ([]session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, student, teacher, description, objectives, materials,
		        price, escrow_balance, state, progress, feedback, rating,
		        session_deadline, assignment_deadline, created_at, updated_at
		   FROM sessions
		  WHERE student = ? OR teacher = ?
		  ORDER BY created_at DESC, id`,
		actorID, actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var (
		record             session.Session
		materials          string
		state              string
		escrowBalance      int64
		sessionDeadline    sql.NullInt64
		assignmentDeadline sql.NullInt64
		createdAt          int64
		updatedAt          int64
	)
	err := row.Scan(
		&record.ID,
		&record.Student,
		&record.Teacher,
		&record.Description,
		&record.Objectives,
		&materials,
		&record.Price,
		&escrowBalance,
		&state,
		&record.Progress,
		&record.Feedback,
		&record.Rating,
		&sessionDeadline,
		&assignmentDeadline,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return session.Session{}, err
	}
	if err := json.Unmarshal([]byte(materials), &record.Materials); err != nil {
		return session.Session{}, fmt.Errorf("decode materials: %w", err)
	}
	record.Escrow = session.Escrow{Balance: escrowBalance}
	record.State = session.ParseState(state)
	record.SessionDeadline = deadlineFromMillis(sessionDeadline)
	record.AssignmentDeadline = deadlineFromMillis(assignmentDeadline)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func deadlineToMillis(value *time.Time) any {
	if value == nil {
		return nil
	}
	return toMillis(*value)
}

func deadlineFromMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	deadline := fromMillis(value.Int64)
	return &deadline
}
