// Package tutoring orchestrates the session lifecycle against storage and the
// payments gateway. Every operation runs as one exclusive transaction per
// session: validate, transition, persist, settle funds.
package tutoring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/studyhall/internal/payments"
	apperrors "github.com/louisbranch/studyhall/internal/platform/errors"
	"github.com/louisbranch/studyhall/internal/services/tutoring/storage"
	"github.com/louisbranch/studyhall/internal/session"
)

// ErrSessionNotFound indicates the addressed session does not exist.
var ErrSessionNotFound = apperrors.New(apperrors.CodeNotFound, "session not found")

const tracerName = "github.com/louisbranch/studyhall/internal/services/tutoring"

// Options overrides Service collaborators that have sane defaults.
type Options struct {
	// Clock supplies the current time for deadline checks and timestamps.
	Clock func() time.Time
	// IDGenerator supplies identifiers for new sessions.
	IDGenerator func() (string, error)
	// FundsCap limits the escrow balance per session. Zero disables the cap.
	FundsCap int64
}

// Service implements the tutoring session call surface.
type Service struct {
	store       storage.SessionStore
	transfers   storage.TransferStore
	gateway     payments.Gateway
	clock       func() time.Time
	idGenerator func() (string, error)
	fundsCap    int64
	tracer      trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Service with default collaborators where options omit them.
func New(store storage.SessionStore, transfers storage.TransferStore, gateway payments.Gateway, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	idGenerator := opts.IDGenerator
	if idGenerator == nil {
		idGenerator = session.NewID
	}
	return &Service{
		store:       store,
		transfers:   transfers,
		gateway:     gateway,
		clock:       clock,
		idGenerator: idGenerator,
		fundsCap:    opts.FundsCap,
		tracer:      otel.Tracer(tracerName),
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockSession serializes operations against one session record.
// Distinct sessions stay fully independent.
func (s *Service) lockSession(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// Book creates a new session owned by the caller.
func (s *Service) Book(ctx context.Context, actorID string, input session.BookInput) (session.Session, error) {
	ctx, span := s.startSpan(ctx, "Book", "")
	defer span.End()

	if s.store == nil {
		return session.Session{}, fmt.Errorf("session store is not configured")
	}
	input.Student = actorID
	booked, err := session.Book(input, s.clock, s.idGenerator)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.store.CreateSession(ctx, booked); err != nil {
		return session.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return booked, nil
}

// Get returns one session by ID. Any caller may inspect a session; the record
// must be discoverable by prospective teachers before acceptance.
func (s *Service) Get(ctx context.Context, id string) (session.Session, error) {
	ctx, span := s.startSpan(ctx, "Get", id)
	defer span.End()

	return s.load(ctx, id)
}

// List returns the sessions where the caller is a party.
func (s *Service) List(ctx context.Context, actorID string) ([]session.Session, error) {
	ctx, span := s.startSpan(ctx, "List", "")
	defer span.End()

	if s.store == nil {
		return nil, fmt.Errorf("session store is not configured")
	}
	sessions, err := s.store.ListSessionsByParticipant(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Transfers returns the settlement history of one session to its parties.
func (s *Service) Transfers(ctx context.Context, actorID, id string) ([]payments.Transfer, error) {
	ctx, span := s.startSpan(ctx, "Transfers", id)
	defer span.End()

	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.AuthorizeParticipant(record, actorID); err != nil {
		return nil, err
	}
	if s.transfers == nil {
		return nil, fmt.Errorf("transfer store is not configured")
	}
	transfers, err := s.transfers.ListTransfersBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	return transfers, nil
}

// RequestTeacher assigns the session to a teacher.
func (s *Service) RequestTeacher(ctx context.Context, actorID, id, teacherID string) (session.Session, error) {
	return s.transition(ctx, "RequestTeacher", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyTeacherRequest(record, actorID, teacherID, now)
		return updated, session.Payout{}, err
	})
}

// Complete marks the session as scheduled for delivery.
func (s *Service) Complete(ctx context.Context, actorID, id string) (session.Session, error) {
	return s.transition(ctx, "Complete", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyCompletion(record, actorID, now)
		return updated, session.Payout{}, err
	})
}

// Dispute opens a dispute on the session.
func (s *Service) Dispute(ctx context.Context, actorID, id string) (session.Session, error) {
	return s.transition(ctx, "Dispute", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyDispute(record, actorID, now)
		return updated, session.Payout{}, err
	})
}

// Resolve settles a disputed session for the teacher or the student.
func (s *Service) Resolve(ctx context.Context, actorID, id string, toTeacher bool) (session.Session, error) {
	return s.transition(ctx, "Resolve", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		return session.ApplyResolution(record, actorID, toTeacher, now)
	})
}

// Release pays the escrow out to the teacher of a scheduled session.
func (s *Service) Release(ctx context.Context, actorID, id string) (session.Session, error) {
	return s.transition(ctx, "Release", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		return session.ApplyRelease(record, actorID, now)
	})
}

// AddFunds deposits student funds into the session escrow.
func (s *Service) AddFunds(ctx context.Context, actorID, id string, amount int64) (session.Session, error) {
	return s.transition(ctx, "AddFunds", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyDeposit(record, actorID, amount, s.fundsCap, now)
		return updated, session.Payout{}, err
	})
}

// Refund returns the escrow to the student of an uncommitted session.
func (s *Service) Refund(ctx context.Context, actorID, id string) (session.Session, error) {
	return s.transition(ctx, "Refund", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		return session.ApplyRefund(record, actorID, now)
	})
}

// Cancel resets the session, refunding an assigned-but-unscheduled escrow.
func (s *Service) Cancel(ctx context.Context, actorID, id string) (session.Session, error) {
	return s.transition(ctx, "Cancel", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		return session.ApplyCancel(record, actorID, now)
	})
}

// UpdateDescription replaces the session description.
func (s *Service) UpdateDescription(ctx context.Context, actorID, id, description string) (session.Session, error) {
	return s.transition(ctx, "UpdateDescription", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyDescriptionUpdate(record, actorID, description, now)
		return updated, session.Payout{}, err
	})
}

// UpdateObjectives replaces the session learning objectives.
func (s *Service) UpdateObjectives(ctx context.Context, actorID, id, objectives string) (session.Session, error) {
	return s.transition(ctx, "UpdateObjectives", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyObjectivesUpdate(record, actorID, objectives, now)
		return updated, session.Payout{}, err
	})
}

// AddMaterial appends one content item to the session materials.
func (s *Service) AddMaterial(ctx context.Context, actorID, id, material string) (session.Session, error) {
	return s.transition(ctx, "AddMaterial", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyMaterialAdd(record, actorID, material, now)
		return updated, session.Payout{}, err
	})
}

// UpdatePrice replaces the advisory session price.
func (s *Service) UpdatePrice(ctx context.Context, actorID, id string, price int64) (session.Session, error) {
	return s.transition(ctx, "UpdatePrice", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyPriceUpdate(record, actorID, price, now)
		return updated, session.Payout{}, err
	})
}

// ProvideFeedback records student feedback on a scheduled session.
func (s *Service) ProvideFeedback(ctx context.Context, actorID, id, feedback string) (session.Session, error) {
	return s.transition(ctx, "ProvideFeedback", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyFeedback(record, actorID, feedback, now)
		return updated, session.Payout{}, err
	})
}

// ProvideRating records a student rating on a scheduled session.
func (s *Service) ProvideRating(ctx context.Context, actorID, id string, rating int) (session.Session, error) {
	return s.transition(ctx, "ProvideRating", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyRating(record, actorID, rating, now)
		return updated, session.Payout{}, err
	})
}

// SetDeadlines sets both deadlines, clearing ones passed as nil.
func (s *Service) SetDeadlines(ctx context.Context, actorID, id string, sessionDeadline, assignmentDeadline *time.Time) (session.Session, error) {
	return s.transition(ctx, "SetDeadlines", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyDeadlines(record, actorID, sessionDeadline, assignmentDeadline, now)
		return updated, session.Payout{}, err
	})
}

// UpdateDeadlines overwrites only the deadlines supplied.
func (s *Service) UpdateDeadlines(ctx context.Context, actorID, id string, sessionDeadline, assignmentDeadline *time.Time) (session.Session, error) {
	return s.transition(ctx, "UpdateDeadlines", id, func(record session.Session, now time.Time) (session.Session, session.Payout, error) {
		updated, err := session.ApplyDeadlineUpdates(record, actorID, sessionDeadline, assignmentDeadline, now)
		return updated, session.Payout{}, err
	})
}

// transition runs one exclusive load-apply-persist-settle cycle for a session.
// The domain function validates before mutating, so a failed call persists
// nothing and moves no funds.
func (s *Service) transition(ctx context.Context, name, id string, apply func(session.Session, time.Time) (session.Session, session.Payout, error)) (session.Session, error) {
	ctx, span := s.startSpan(ctx, name, id)
	defer span.End()

	if s.store == nil {
		return session.Session{}, fmt.Errorf("session store is not configured")
	}

	unlock := s.lockSession(id)
	defer unlock()

	record, err := s.load(ctx, id)
	if err != nil {
		return session.Session{}, err
	}

	now := s.clock()
	updated, payout, err := apply(record, now)
	if err != nil {
		return session.Session{}, err
	}

	if payout.Amount > 0 && s.gateway == nil {
		return session.Session{}, fmt.Errorf("payments gateway is not configured")
	}

	// The drained record is persisted before the payout executes, so a recorded
	// transfer never coexists with an undrained session and a retried
	// settlement cannot pay out twice.
	if err := s.store.PutSession(ctx, updated); err != nil {
		return session.Session{}, fmt.Errorf("persist session: %w", err)
	}

	if payout.Amount > 0 {
		transfer := payments.NewTransfer(id, payout.Recipient, payout.Amount, now)
		if err := s.gateway.Transfer(ctx, transfer); err != nil {
			if restoreErr := s.store.PutSession(ctx, record); restoreErr != nil {
				log.Printf("ERROR: restore session %s after failed transfer: %v", id, restoreErr)
			}
			return session.Session{}, apperrors.Wrap(apperrors.CodePaymentTransferFailed, "execute transfer", err)
		}
		log.Printf("escrow transfer session_id=%s recipient=%s amount=%d reference=%s", id, payout.Recipient, payout.Amount, transfer.Reference)
	}

	return updated, nil
}

func (s *Service) load(ctx context.Context, id string) (session.Session, error) {
	if s.store == nil {
		return session.Session{}, fmt.Errorf("session store is not configured")
	}
	record, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return session.Session{}, ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

func (s *Service) startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{}
	if sessionID != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("session.id", sessionID)))
	}
	return s.tracer.Start(ctx, "tutoring."+name, opts...)
}
