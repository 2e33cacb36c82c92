/*
conflict.go - Inventory conflict detection

PURPOSE:
  Answers "is this room free for these dates?" against the reservation store.
  Returns the full list of colliding reservations, not a boolean, so the
  caller can show which stays collide.

RULES:
  - Half-open overlap: [a1,a2) and [b1,b2) collide iff a1 < b2 && b1 < a2.
    A stay ending on day N never collides with one starting on day N.
  - Only confirmed and checked_in reservations block a room. Cancelled,
    checked_out and no_show stays never conflict.
  - Edit paths must exclude the reservation being edited, or it would
    conflict with itself.

The detector only reads; serialization of check-then-act against concurrent
writers is the lifecycle service's job (per-room locks in lifecycle.go).
*/
package booking

import "context"

// ConflictDetector finds reservations that block a room for a date range.
type ConflictDetector struct {
	Store ReservationStore
}

func NewConflictDetector(store ReservationStore) *ConflictDetector {
	return &ConflictDetector{Store: store}
}

// FindConflicts returns every blocking reservation for the room whose stay
// overlaps the given range. exclude, when non-empty, names a reservation to
// ignore (mandatory on edit paths).
func (cd *ConflictDetector) FindConflicts(
	ctx context.Context,
	roomID RoomID,
	stay StayRange,
	exclude ReservationID,
) ([]Reservation, error) {
	if err := stay.Validate(); err != nil {
		return nil, err
	}

	active, err := cd.Store.ListBlockingByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]Reservation, 0)
	for _, r := range active {
		if r.ID == exclude {
			continue
		}
		if !r.Status.Blocking() {
			// Store contract already filters, but a stale read must not
			// resurrect a released room.
			continue
		}
		if r.Stay.Overlaps(stay) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts, nil
}

// RoomFree is a convenience wrapper for callers that only need yes/no.
func (cd *ConflictDetector) RoomFree(ctx context.Context, roomID RoomID, stay StayRange, exclude ReservationID) (bool, error) {
	conflicts, err := cd.FindConflicts(ctx, roomID, stay, exclude)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}
