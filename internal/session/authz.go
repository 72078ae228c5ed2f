package session

import (
	"strings"

	apperrors "github.com/louisbranch/studyhall/internal/platform/errors"
)

// ErrUnauthorized indicates the caller does not hold the required role.
// It is distinct from state precondition failures so callers can tell
// "wrong actor" apart from "wrong state".
var ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized, "caller does not hold the required role")

// AuthorizeStudent verifies the caller is the booking owner.
func AuthorizeStudent(s Session, actorID string) error {
	if strings.TrimSpace(actorID) == "" || actorID != s.Student {
		return ErrUnauthorized
	}
	return nil
}

// AuthorizeTeacher verifies the caller is the accepted teacher.
func AuthorizeTeacher(s Session, actorID string) error {
	if s.Teacher == "" || strings.TrimSpace(actorID) == "" || actorID != s.Teacher {
		return ErrUnauthorized
	}
	return nil
}

// AuthorizeParticipant verifies the caller is either party to the session.
func AuthorizeParticipant(s Session, actorID string) error {
	if AuthorizeStudent(s, actorID) == nil {
		return nil
	}
	if AuthorizeTeacher(s, actorID) == nil {
		return nil
	}
	return ErrUnauthorized
}
