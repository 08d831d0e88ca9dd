/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All domain error values in one place. The API layer maps these onto
  HTTP statuses; the engine itself only distinguishes three kinds of
  failure:

  1. Validation errors - a precondition failed, nothing was mutated
  2. Not-found / authorization errors - bad references or actors
  3. Store failures - persistence errors, wrapped with %w and propagated

  A full slot that cannot be bumped is NOT an error: it resolves to a
  Pending request, which is a normal arbitration outcome.

USAGE:
  if errors.Is(err, leave.ErrInsufficientBalance) { ... }

  var verr *leave.ValidationError
  if errors.As(err, &verr) { respond(verr.Code, verr.Message) }
*/
package leave

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTooFarInAdvance is returned when the requested date is more than
	// six months past the submission date.
	ErrTooFarInAdvance = errors.New("request too far in advance")

	// ErrInsufficientBalance is returned when the relevant pool(s) hold no
	// currently-earned units. Arbitration never projects future accrual.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateDay is returned when the employee already holds an
	// approved request on the target calendar day.
	ErrDuplicateDay = errors.New("day already approved for this employee")

	// ErrInvalidLeaveType is returned for requests naming a type that
	// cannot be charged directly (Holiday) or an unknown type.
	ErrInvalidLeaveType = errors.New("leave type cannot be requested directly")

	// ErrInvalidShift is returned for an unknown shift block.
	ErrInvalidShift = errors.New("unknown shift block")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRequestNotFound is returned when a referenced request doesn't exist.
	ErrRequestNotFound = errors.New("request not found")

	// ErrNotPending is returned when processing a request that already has
	// a decision. Bumped and Denied are terminal.
	ErrNotPending = errors.New("request is not pending")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotAuthorized is returned when the acting employee's admin level
	// does not permit the operation.
	ErrNotAuthorized = errors.New("not authorized")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a failed submission precondition. No state was
// mutated; Message is safe to show to the employee verbatim.
type ValidationError struct {
	Code    string
	Message string
	err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.err }

func validationErr(code, message string, sentinel error) *ValidationError {
	return &ValidationError{Code: code, Message: message, err: sentinel}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input
// rather than an engine or store failure.
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrNotPending) ||
		errors.Is(err, ErrInvalidLeaveType)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrRequestNotFound)
}
