package session

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/studyhall/internal/platform/errors"
)

var (
	// ErrInvalidBooking indicates the teacher slot is filled when assignment
	// expected it empty, or missing when the operation requires one.
	ErrInvalidBooking = apperrors.New(apperrors.CodeSessionInvalidBooking, "session teacher assignment is invalid")
	// ErrInvalidTeacher indicates a self-assignment or blank teacher identity.
	ErrInvalidTeacher = apperrors.New(apperrors.CodeSessionInvalidTeacher, "teacher identity is invalid")
	// ErrInvalidState indicates the session state disallows the transition.
	ErrInvalidState = apperrors.New(apperrors.CodeSessionInvalidState, "session state does not allow this operation")
	// ErrAlreadyResolved indicates a resolve attempt on a session that is not disputed.
	ErrAlreadyResolved = apperrors.New(apperrors.CodeSessionAlreadyResolved, "session is not disputed")
	// ErrNotBooked indicates the session is not in a deliverable state.
	ErrNotBooked = apperrors.New(apperrors.CodeSessionNotBooked, "session is not booked for delivery")
	// ErrInvalidWithdrawal indicates a refund attempt while the session is committed.
	ErrInvalidWithdrawal = apperrors.New(apperrors.CodeSessionInvalidWithdrawal, "escrow cannot be refunded in this state")
	// ErrDeadlinePassed indicates a deadline-gated operation after its deadline.
	ErrDeadlinePassed = apperrors.New(apperrors.CodeSessionDeadlinePassed, "session deadline has passed")
)

// Payout instructs the caller to move a withdrawn escrow amount to a recipient.
// A zero amount means no funds moved.
type Payout struct {
	Recipient string
	Amount    int64
}

// ApplyTeacherRequest assigns a teacher to an open session.
// The booking owner may not assign themself.
func ApplyTeacherRequest(s Session, actorID, teacherID string, now time.Time) (Session, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return Session{}, ErrInvalidTeacher
	}
	if teacherID == s.Student || actorID == s.Student {
		return Session{}, ErrInvalidTeacher
	}
	if s.State != StateOpen || s.Teacher != "" {
		return Session{}, ErrInvalidBooking
	}
	updated := s
	updated.Teacher = teacherID
	updated.State = StateAssigned
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyCompletion marks an assigned session as scheduled for delivery.
// Only the accepted teacher may complete, and only before the session deadline.
func ApplyCompletion(s Session, actorID string, now time.Time) (Session, error) {
	if err := AuthorizeTeacher(s, actorID); err != nil {
		return Session{}, err
	}
	if s.State != StateAssigned {
		return Session{}, ErrInvalidState
	}
	if s.SessionDeadline != nil && !now.Before(*s.SessionDeadline) {
		return Session{}, ErrDeadlinePassed
	}
	updated := s
	updated.State = StateScheduled
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyDispute opens a dispute on an assigned or scheduled session.
func ApplyDispute(s Session, actorID string, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	if s.Teacher == "" {
		return Session{}, ErrInvalidBooking
	}
	if s.State != StateAssigned && s.State != StateScheduled {
		return Session{}, ErrNotBooked
	}
	updated := s
	updated.State = StateDisputed
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyResolution settles a disputed session, draining the escrow to the
// teacher when toTeacher is true and back to the student otherwise. The
// session returns to its pre-assignment shape.
func ApplyResolution(s Session, actorID string, toTeacher bool, now time.Time) (Session, Payout, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, Payout{}, err
	}
	if s.State != StateDisputed {
		return Session{}, Payout{}, ErrAlreadyResolved
	}
	if s.Teacher == "" {
		return Session{}, Payout{}, ErrInvalidBooking
	}
	recipient := s.Student
	if toTeacher {
		recipient = s.Teacher
	}
	updated := s
	drained, amount := s.Escrow.WithdrawAll()
	updated.Escrow = drained
	return resetAssignment(updated, now), Payout{Recipient: recipient, Amount: amount}, nil
}

// ApplyRelease pays the full escrow out to the teacher of a scheduled session
// and returns the session to its pre-assignment shape.
func ApplyRelease(s Session, actorID string, now time.Time) (Session, Payout, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, Payout{}, err
	}
	if s.State != StateScheduled {
		return Session{}, Payout{}, ErrInvalidState
	}
	if s.Teacher == "" {
		return Session{}, Payout{}, ErrInvalidBooking
	}
	recipient := s.Teacher
	updated := s
	drained, amount := s.Escrow.WithdrawAll()
	updated.Escrow = drained
	return resetAssignment(updated, now), Payout{Recipient: recipient, Amount: amount}, nil
}

// ApplyDeposit adds student funds to the session escrow in any state.
// A cap of zero disables the funds limit.
func ApplyDeposit(s Session, actorID string, amount, fundsCap int64, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	deposited, err := s.Escrow.Deposit(amount, fundsCap)
	if err != nil {
		return Session{}, err
	}
	updated := s
	updated.Escrow = deposited
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyRefund returns the full escrow to the student of an uncommitted session
// and resets any teacher assignment. Scheduled and disputed sessions cannot be
// refunded directly; release or resolution settles those.
func ApplyRefund(s Session, actorID string, now time.Time) (Session, Payout, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, Payout{}, err
	}
	if s.State == StateScheduled || s.State == StateDisputed {
		return Session{}, Payout{}, ErrInvalidWithdrawal
	}
	if s.SessionDeadline != nil && !now.Before(*s.SessionDeadline) {
		return Session{}, Payout{}, ErrDeadlinePassed
	}
	recipient := s.Student
	updated := s
	drained, amount := s.Escrow.WithdrawAll()
	updated.Escrow = drained
	return resetAssignment(updated, now), Payout{Recipient: recipient, Amount: amount}, nil
}

// ApplyCancel resets a session to its pre-assignment shape. When a teacher
// accepted but delivery was neither scheduled nor disputed, the escrow is
// refunded to the student first. Cancellation always succeeds once the caller
// is authorized, and is idempotent in its end state.
func ApplyCancel(s Session, actorID string, now time.Time) (Session, Payout, error) {
	if err := AuthorizeParticipant(s, actorID); err != nil {
		return Session{}, Payout{}, err
	}
	updated := s
	payout := Payout{}
	if s.State == StateAssigned {
		drained, amount := s.Escrow.WithdrawAll()
		updated.Escrow = drained
		payout = Payout{Recipient: s.Student, Amount: amount}
	}
	return resetAssignment(updated, now), payout, nil
}

// ApplyDescriptionUpdate replaces the session description.
func ApplyDescriptionUpdate(s Session, actorID, description string, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Session{}, ErrEmptyDescription
	}
	updated := s
	updated.Description = description
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyObjectivesUpdate replaces the session learning objectives.
func ApplyObjectivesUpdate(s Session, actorID, objectives string, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	objectives = strings.TrimSpace(objectives)
	if objectives == "" {
		return Session{}, ErrEmptyObjectives
	}
	updated := s
	updated.Objectives = objectives
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyMaterialAdd appends one content item to the session materials.
func ApplyMaterialAdd(s Session, actorID, material string, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	material = strings.TrimSpace(material)
	if material == "" {
		return Session{}, ErrEmptyMaterials
	}
	updated := s
	updated.Materials = append(append([]string(nil), s.Materials...), material)
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyPriceUpdate replaces the advisory session price.
func ApplyPriceUpdate(s Session, actorID string, price int64, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	if price <= 0 {
		return Session{}, ErrInvalidPrice
	}
	updated := s
	updated.Price = price
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyFeedback records student feedback on a scheduled session.
func ApplyFeedback(s Session, actorID, feedback string, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	if s.State != StateScheduled {
		return Session{}, ErrNotBooked
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return Session{}, ErrEmptyFeedback
	}
	updated := s
	updated.Feedback = feedback
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyRating records a 1-5 student rating on a scheduled session.
func ApplyRating(s Session, actorID string, rating int, now time.Time) (Session, error) {
	if err := AuthorizeStudent(s, actorID); err != nil {
		return Session{}, err
	}
	if s.State != StateScheduled {
		return Session{}, ErrNotBooked
	}
	if rating < RatingMin || rating > RatingMax {
		return Session{}, ErrInvalidRating
	}
	updated := s
	updated.Rating = rating
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyDeadlines sets the session and assignment deadlines to the given
// values, clearing a deadline when its value is nil.
func ApplyDeadlines(s Session, actorID string, sessionDeadline, assignmentDeadline *time.Time, now time.Time) (Session, error) {
	if err := AuthorizeParticipant(s, actorID); err != nil {
		return Session{}, err
	}
	updated := s
	updated.SessionDeadline = cloneDeadline(sessionDeadline)
	updated.AssignmentDeadline = cloneDeadline(assignmentDeadline)
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyDeadlineUpdates overwrites only the deadlines supplied, leaving absent
// fields unchanged.
func ApplyDeadlineUpdates(s Session, actorID string, sessionDeadline, assignmentDeadline *time.Time, now time.Time) (Session, error) {
	if err := AuthorizeParticipant(s, actorID); err != nil {
		return Session{}, err
	}
	updated := s
	if sessionDeadline != nil {
		updated.SessionDeadline = cloneDeadline(sessionDeadline)
	}
	if assignmentDeadline != nil {
		updated.AssignmentDeadline = cloneDeadline(assignmentDeadline)
	}
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// resetAssignment returns the session to its pre-assignment shape.
// Deadlines and escrow balance are preserved; settlement transitions drain the
// escrow before resetting.
func resetAssignment(s Session, now time.Time) Session {
	s.Teacher = ""
	s.State = StateOpen
	s.Progress = 0
	s.Feedback = ""
	s.Rating = 0
	s.UpdatedAt = now.UTC()
	return s
}

func cloneDeadline(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
