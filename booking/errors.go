/*
errors.go - Centralized error taxonomy for the booking engine

PURPOSE:
  All error types in one place. The taxonomy mirrors what callers need to
  react to:

  1. ValidationError - malformed input, rejected before any mutation
  2. ConflictError   - double-booking or stale-version edit, no partial write
  3. StateError      - transition attempted from a state that forbids it
  4. NotFoundError   - reference to a nonexistent reservation/payment/room

PROPAGATION:
  Everything here is returned synchronously and is recoverable by the caller.
  Nothing in this package retries except the create/edit storage write, which
  retries transient failures once before surfacing ConflictError.

USAGE:
  if booking.IsConflict(err) { ... map to 409 ... }

  var se *booking.StateError
  if errors.As(err, &se) { ... se.From, se.Op ... }
*/
package booking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is wrapped by NotFoundError; stores return it for missing rows.
	ErrNotFound = errors.New("not found")

	// ErrVersionMismatch is returned by stores when an update carries a stale
	// version. The lifecycle service surfaces it as a ConflictError.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrRoomUnavailable is wrapped by ConflictError when a room/date range
	// is already taken.
	ErrRoomUnavailable = errors.New("room unavailable for the requested dates")

	// ErrLedgerImmutable is returned on any attempt to alter a completed
	// ledger entry. Corrections are additional entries.
	ErrLedgerImmutable = errors.New("completed ledger entries are immutable")

	// ErrStorageTransient marks a storage failure worth a single retry.
	ErrStorageTransient = errors.New("transient storage failure")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports malformed input. It is always produced before any
// mutation takes place.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StateError reports a transition attempted from a status that does not
// permit it.
type StateError struct {
	ReservationID ReservationID
	From          ReservationStatus
	Op            string
}

func (e *StateError) Error() string {
	if e.From.Terminal() {
		return fmt.Sprintf("%s: reservation already %s", e.Op, e.From)
	}
	return fmt.Sprintf("%s not allowed from status %q", e.Op, e.From)
}

// ConflictError reports a room double-booking or a lost-update edit. When it
// stems from an inventory clash, Conflicts carries the colliding
// reservations so the caller can present detail.
type ConflictError struct {
	RoomID    RoomID
	Stay      StayRange
	Conflicts []Reservation
	cause     error
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) > 0 {
		return fmt.Sprintf("room %s is not free for %s: %d conflicting reservation(s)",
			e.RoomID, e.Stay, len(e.Conflicts))
	}
	return fmt.Sprintf("conflict: %v", e.cause)
}

func (e *ConflictError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return ErrRoomUnavailable
}

// NotFoundError reports a dangling reference. Kind is "reservation",
// "payment" or "room".
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsValidation reports whether err is malformed-input rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a double-booking or stale-version edit.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce) || errors.Is(err, ErrVersionMismatch) || errors.Is(err, ErrRoomUnavailable)
}

// IsStateError reports whether err is a forbidden lifecycle transition.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether the caller can fix err by correcting input.
func IsClientError(err error) bool {
	return IsValidation(err) || IsConflict(err) || IsStateError(err) || IsNotFound(err)
}
