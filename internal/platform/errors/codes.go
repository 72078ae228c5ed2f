// Package errors provides structured error handling for studyhall services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Session validation errors
	CodeSessionDescriptionEmpty Code = "SESSION_DESCRIPTION_EMPTY"
	CodeSessionObjectivesEmpty  Code = "SESSION_OBJECTIVES_EMPTY"
	CodeSessionMaterialsEmpty   Code = "SESSION_MATERIALS_EMPTY"
	CodeSessionInvalidPrice     Code = "SESSION_INVALID_PRICE"
	CodeSessionInvalidRating    Code = "SESSION_INVALID_RATING"
	CodeSessionFeedbackEmpty    Code = "SESSION_FEEDBACK_EMPTY"
	CodeSessionEmptyStudent     Code = "SESSION_EMPTY_STUDENT"
	CodeSessionEmptyTeacher     Code = "SESSION_EMPTY_TEACHER"

	// Lifecycle errors
	CodeSessionInvalidBooking    Code = "SESSION_INVALID_BOOKING"
	CodeSessionInvalidTeacher    Code = "SESSION_INVALID_TEACHER"
	CodeSessionInvalidState      Code = "SESSION_INVALID_STATE"
	CodeSessionAlreadyResolved   Code = "SESSION_ALREADY_RESOLVED"
	CodeSessionNotBooked         Code = "SESSION_NOT_BOOKED"
	CodeSessionInvalidWithdrawal Code = "SESSION_INVALID_WITHDRAWAL"
	CodeSessionDeadlinePassed    Code = "SESSION_DEADLINE_PASSED"

	// Escrow errors
	CodeEscrowInvalidAmount    Code = "ESCROW_INVALID_AMOUNT"
	CodeEscrowFundsCapExceeded Code = "ESCROW_FUNDS_CAP_EXCEEDED"

	// Payment errors
	CodePaymentTransferFailed Code = "PAYMENT_TRANSFER_FAILED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input
	case CodeSessionDescriptionEmpty,
		CodeSessionObjectivesEmpty,
		CodeSessionMaterialsEmpty,
		CodeSessionInvalidPrice,
		CodeSessionInvalidRating,
		CodeSessionFeedbackEmpty,
		CodeSessionEmptyStudent,
		CodeSessionEmptyTeacher,
		CodeSessionInvalidTeacher,
		CodeEscrowInvalidAmount:
		return http.StatusBadRequest

	// Conflict - state doesn't allow the operation
	case CodeSessionInvalidBooking,
		CodeSessionInvalidState,
		CodeSessionAlreadyResolved,
		CodeSessionNotBooked,
		CodeSessionInvalidWithdrawal,
		CodeSessionDeadlinePassed,
		CodeEscrowFundsCapExceeded:
		return http.StatusConflict

	// Forbidden - caller does not hold the required role
	case CodeUnauthorized:
		return http.StatusForbidden

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
