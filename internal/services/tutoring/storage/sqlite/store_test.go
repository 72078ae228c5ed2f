package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/studyhall/internal/payments"
	"github.com/louisbranch/studyhall/internal/services/tutoring/storage"
	"github.com/louisbranch/studyhall/internal/session"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tutoring.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func sampleSession(id string, now time.Time) session.Session {
	return session.Session{
		ID:          id,
		Student:     "student-1",
		Description: "Intro to Go generics",
		Objectives:  "Understand type parameters",
		Materials:   []string{"notes.pdf", "https://go.dev/blog/intro-generics"},
		Price:       10,
		State:       session.StateOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGetSessionRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)
	deadline := now.Add(24 * time.Hour)
	record := sampleSession("sess-1", now)
	record.Teacher = "teacher-1"
	record.State = session.StateScheduled
	record.Escrow = session.Escrow{Balance: 10}
	record.Feedback = "solid session"
	record.Rating = 4
	record.SessionDeadline = &deadline

	if err := store.CreateSession(context.Background(), record); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := store.GetSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Student != "student-1" || got.Teacher != "teacher-1" {
		t.Fatalf("unexpected parties %q/%q", got.Student, got.Teacher)
	}
	if got.State != session.StateScheduled {
		t.Fatalf("state = %v, want scheduled", got.State)
	}
	if got.Escrow.Balance != 10 {
		t.Fatalf("escrow = %d, want 10", got.Escrow.Balance)
	}
	if len(got.Materials) != 2 || got.Materials[0] != "notes.pdf" {
		t.Fatalf("unexpected materials %v", got.Materials)
	}
	if got.SessionDeadline == nil || !got.SessionDeadline.Equal(deadline) {
		t.Fatalf("session deadline = %v, want %v", got.SessionDeadline, deadline)
	}
	if got.AssignmentDeadline != nil {
		t.Fatalf("expected nil assignment deadline, got %v", got.AssignmentDeadline)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Feedback != "solid session" || got.Rating != 4 {
		t.Fatalf("unexpected feedback/rating %q/%d", got.Feedback, got.Rating)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetSession(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPutSessionReplacesRecord(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)
	record := sampleSession("sess-2", now)
	if err := store.CreateSession(context.Background(), record); err != nil {
		t.Fatalf("create session: %v", err)
	}

	record.Teacher = "teacher-1"
	record.State = session.StateAssigned
	record.Escrow = session.Escrow{Balance: 25}
	record.UpdatedAt = now.Add(time.Minute)
	if err := store.PutSession(context.Background(), record); err != nil {
		t.Fatalf("put session: %v", err)
	}

	got, err := store.GetSession(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Teacher != "teacher-1" || got.State != session.StateAssigned || got.Escrow.Balance != 25 {
		t.Fatalf("unexpected updated record %+v", got)
	}
}

func TestPutSessionMissingRecord(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	record := sampleSession("never-created", time.Now().UTC())
	if err := store.PutSession(context.Background(), record); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListSessionsByParticipant(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

	first := sampleSession("sess-a", now)
	if err := store.CreateSession(context.Background(), first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := sampleSession("sess-b", now.Add(time.Hour))
	second.Student = "student-2"
	second.Teacher = "student-1" // student-1 teaches someone else's session
	second.State = session.StateAssigned
	if err := store.CreateSession(context.Background(), second); err != nil {
		t.Fatalf("create second: %v", err)
	}
	third := sampleSession("sess-c", now)
	third.Student = "student-3"
	if err := store.CreateSession(context.Background(), third); err != nil {
		t.Fatalf("create third: %v", err)
	}

	got, err := store.ListSessionsByParticipant(context.Background(), "student-1")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	// Newest first.
	if got[0].ID != "sess-b" || got[1].ID != "sess-a" {
		t.Fatalf("unexpected order %s, %s", got[0].ID, got[1].ID)
	}
}

func TestTransferLedgerRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

	first := payments.Transfer{
		Reference: "ref-1",
		SessionID: "sess-1",
		Recipient: "teacher-1",
		Amount:    10,
		CreatedAt: now,
	}
	second := payments.Transfer{
		Reference: "ref-2",
		SessionID: "sess-1",
		Recipient: "student-1",
		Amount:    5,
		CreatedAt: now.Add(time.Minute),
	}
	for _, transfer := range []payments.Transfer{first, second} {
		if err := store.RecordTransfer(context.Background(), transfer); err != nil {
			t.Fatalf("record transfer %s: %v", transfer.Reference, err)
		}
	}

	got, err := store.ListTransfersBySession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(got))
	}
	if got[0].Reference != "ref-1" || got[1].Reference != "ref-2" {
		t.Fatalf("unexpected order %s, %s", got[0].Reference, got[1].Reference)
	}
	if got[0].Recipient != "teacher-1" || got[0].Amount != 10 {
		t.Fatalf("unexpected transfer %+v", got[0])
	}
	if !got[1].CreatedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected created at %v", got[1].CreatedAt)
	}

	other, err := store.ListTransfersBySession(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("list other transfers: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no transfers for sess-2, got %d", len(other))
	}
}

func TestRecordTransferRequiresReference(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	transfer := payments.Transfer{SessionID: "sess-1", Recipient: "r", Amount: 1, CreatedAt: time.Now()}
	if err := store.RecordTransfer(context.Background(), transfer); err == nil {
		t.Fatal("expected missing reference error")
	}
}
