/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between the engine and the database. The core never
  performs I/O itself; every blocking operation is a call into one of these
  interfaces, which a caller may implement over SQLite, PostgreSQL, or memory.

CONTRACT HIGHLIGHTS:
  - Payments are append-only. The single permitted update is the
    pending -> completed/failed status transition; amount-bearing fields are
    immutable once written.
  - UpdateReservation enforces optimistic concurrency: the write must match
    the version the caller read, or fail with ErrVersionMismatch.
  - WithTx gives the lifecycle service an atomic scope for check-then-act
    sequences (conflict re-check + insert, balance read + final commit).
  - Missing rows surface as *NotFoundError, never as fabricated data.

IMPLEMENTATIONS:
  - store/sqlite: production store (WAL, schema migration on open)
  - booking/store: in-memory store for tests and dev
*/
package booking

import "context"

// ReservationStore persists reservations.
type ReservationStore interface {
	// CreateReservation inserts a new reservation with Version 1.
	CreateReservation(ctx context.Context, r *Reservation) error

	// GetReservation returns *NotFoundError when the id is unknown.
	GetReservation(ctx context.Context, id ReservationID) (*Reservation, error)

	// UpdateReservation writes r if the stored version equals r.Version,
	// then bumps r.Version. A stale version fails with ErrVersionMismatch
	// and writes nothing.
	UpdateReservation(ctx context.Context, r *Reservation) error

	// ListReservations returns all reservations, newest first.
	ListReservations(ctx context.Context) ([]Reservation, error)

	// ListBlockingByRoom returns the room's reservations whose status blocks
	// inventory (confirmed, checked_in).
	ListBlockingByRoom(ctx context.Context, roomID RoomID) ([]Reservation, error)

	// ListOverdueConfirmed returns confirmed reservations whose check-in
	// date is on or before the given date. Used by the no-show sweep.
	ListOverdueConfirmed(ctx context.Context, asOf Date) ([]Reservation, error)
}

// PaymentStore persists ledger entries. Append-only: there is no update or
// delete for amounts, and no API to rewrite history.
type PaymentStore interface {
	// AppendPayment inserts a ledger entry.
	AppendPayment(ctx context.Context, p *Payment) error

	// GetPayment returns *NotFoundError when the id is unknown.
	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)

	// PaymentsByReservation returns the reservation's entries in insertion
	// order.
	PaymentsByReservation(ctx context.Context, id ReservationID) ([]Payment, error)

	// SettlePayment transitions a pending entry to completed or failed.
	// Any other transition fails with ErrLedgerImmutable.
	SettlePayment(ctx context.Context, id PaymentID, status PaymentStatus) error
}

// RoomStore persists rooms. The engine reads rooms for pricing and flips
// their advisory status on check-in/check-out.
type RoomStore interface {
	SaveRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id RoomID) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	SetRoomStatus(ctx context.Context, id RoomID, status RoomStatus) error
}

// Store is the full persistence surface the engine needs.
type Store interface {
	ReservationStore
	PaymentStore
	RoomStore
}

// TxStore adds atomic scopes. If fn returns an error the transaction rolls
// back and nothing is visible; otherwise it commits.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
