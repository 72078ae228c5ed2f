// Package session holds the tutoring session domain: the booking record, its
// escrow ledger, caller authorization, and the lifecycle state machine.
//
// All mutations are expressed as pure functions that take a Session value and
// return an updated copy. A failed precondition returns the zero Session and
// an error, so callers persist either the whole transition or nothing.
package session

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/studyhall/internal/platform/errors"
)

// State describes the lifecycle position of a session.
type State int

const (
	// StateUnspecified represents an invalid state value.
	StateUnspecified State = iota
	// StateOpen indicates no teacher has accepted the booking.
	StateOpen
	// StateAssigned indicates a teacher has accepted but not yet committed to deliver.
	StateAssigned
	// StateScheduled indicates the teacher has committed to deliver.
	StateScheduled
	// StateDisputed indicates the student has raised a dispute.
	StateDisputed
)

// String returns the lowercase state name used in storage and API payloads.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateAssigned:
		return "assigned"
	case StateScheduled:
		return "scheduled"
	case StateDisputed:
		return "disputed"
	default:
		return "unspecified"
	}
}

// ParseState maps a stored state name back to its State value.
func ParseState(value string) State {
	switch value {
	case "open":
		return StateOpen
	case "assigned":
		return StateAssigned
	case "scheduled":
		return StateScheduled
	case "disputed":
		return StateDisputed
	default:
		return StateUnspecified
	}
}

const (
	// RatingMin is the lowest rating a student may give.
	RatingMin = 1
	// RatingMax is the highest rating a student may give.
	RatingMax = 5
)

var (
	// ErrEmptyStudent indicates a missing booking owner.
	ErrEmptyStudent = apperrors.New(apperrors.CodeSessionEmptyStudent, "student is required")
	// ErrEmptyDescription indicates missing session description text.
	ErrEmptyDescription = apperrors.New(apperrors.CodeSessionDescriptionEmpty, "description is required")
	// ErrEmptyObjectives indicates missing learning objectives text.
	ErrEmptyObjectives = apperrors.New(apperrors.CodeSessionObjectivesEmpty, "learning objectives are required")
	// ErrEmptyMaterials indicates missing or blank session materials.
	ErrEmptyMaterials = apperrors.New(apperrors.CodeSessionMaterialsEmpty, "at least one material is required")
	// ErrInvalidPrice indicates a non-positive session price.
	ErrInvalidPrice = apperrors.New(apperrors.CodeSessionInvalidPrice, "price must be greater than zero")
	// ErrInvalidRating indicates a rating outside the allowed range.
	ErrInvalidRating = apperrors.New(apperrors.CodeSessionInvalidRating, "rating must be between 1 and 5")
	// ErrEmptyFeedback indicates missing feedback text.
	ErrEmptyFeedback = apperrors.New(apperrors.CodeSessionFeedbackEmpty, "feedback is required")
)

// Session represents one tutoring booking from request through settlement.
// The record is never deleted: settlement transitions return it to its
// pre-assignment shape so it can be re-assigned to a new teacher.
type Session struct {
	ID      string
	Student string
	// Teacher is empty until a teacher accepts the booking.
	Teacher     string
	Description string
	Objectives  string
	Materials   []string
	// Price is the advisory booking price; it is not enforced against escrow.
	Price  int64
	Escrow Escrow
	State  State
	// Progress is an exposed 0-100 value. No operation advances it; settlement
	// transitions reset it to zero.
	Progress int
	Feedback string
	// Rating is zero while unset.
	Rating             int
	SessionDeadline    *time.Time
	AssignmentDeadline *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// BookInput describes the metadata needed to book a session.
type BookInput struct {
	Student     string
	Description string
	Objectives  string
	Materials   []string
	Price       int64
}

// Book creates a new open session with a generated ID and timestamps.
// The caller identity in input.Student becomes the immutable booking owner.
func Book(input BookInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = NewID
	}

	normalized, err := NormalizeBookInput(input)
	if err != nil {
		return Session{}, err
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	createdAt := now().UTC()
	return Session{
		ID:          sessionID,
		Student:     normalized.Student,
		Description: normalized.Description,
		Objectives:  normalized.Objectives,
		Materials:   normalized.Materials,
		Price:       normalized.Price,
		State:       StateOpen,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// NormalizeBookInput trims and validates booking input metadata.
func NormalizeBookInput(input BookInput) (BookInput, error) {
	input.Student = strings.TrimSpace(input.Student)
	if input.Student == "" {
		return BookInput{}, ErrEmptyStudent
	}
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return BookInput{}, ErrEmptyDescription
	}
	input.Objectives = strings.TrimSpace(input.Objectives)
	if input.Objectives == "" {
		return BookInput{}, ErrEmptyObjectives
	}
	materials, err := normalizeMaterials(input.Materials)
	if err != nil {
		return BookInput{}, err
	}
	input.Materials = materials
	if input.Price <= 0 {
		return BookInput{}, ErrInvalidPrice
	}
	return input, nil
}

func normalizeMaterials(materials []string) ([]string, error) {
	if len(materials) == 0 {
		return nil, ErrEmptyMaterials
	}
	normalized := make([]string, 0, len(materials))
	for _, item := range materials {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, ErrEmptyMaterials
		}
		normalized = append(normalized, item)
	}
	return normalized, nil
}
