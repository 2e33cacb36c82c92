/*
lifecycle.go - Reservation state machine and orchestration

PURPOSE:
  The Desk is the single entry point for every reservation mutation. It
  enforces the lifecycle:

      confirmed ──check-in──▶ checked_in ──check-out──▶ checked_out
          │                        │
          ├────cancel──────────────┘──▶ cancelled
          └────no-show─────────────────▶ no_show

  checked_out, cancelled and no_show are terminal. Re-entering a terminal
  state is a no-op failure (StateError: reservation already <state>).

CONCURRENCY:
  Room booking is a classic check-then-act: two concurrent requests can both
  pass the conflict check and double-book. The Desk serializes create/edit
  per room with a mutex held across check + write, and runs the check + write
  inside one store transaction. Reservation edits additionally carry the
  caller's version (optimistic concurrency) so a stale edit fails with
  ConflictError instead of silently overwriting.

RETRY:
  The atomic booking transaction retries a transient storage failure once,
  then surfaces ConflictError. Nothing else is retried.

SEE ALSO:
  - conflict.go: Overlap detection invoked on create/edit
  - pricing.go: Quote + price-delta preview invoked on create/edit
  - checkout.go: Final bill computation invoked on check-out
*/
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Desk is the reservation lifecycle service.
type Desk struct {
	Store   TxStore
	Ledger  *PaymentLedger
	Pricing *PricingCalculator

	now func() time.Time

	mu        sync.Mutex
	roomLocks map[RoomID]*sync.Mutex
}

// NewDesk wires the engine over a transactional store.
func NewDesk(store TxStore) *Desk {
	return &Desk{
		Store:     store,
		Ledger:    NewPaymentLedger(store),
		Pricing:   NewPricingCalculator(),
		now:       time.Now,
		roomLocks: make(map[RoomID]*sync.Mutex),
	}
}

// SetClock overrides the time source. Tests only.
func (d *Desk) SetClock(now func() time.Time) {
	d.now = now
	d.Ledger.now = now
}

// =============================================================================
// CREATE
// =============================================================================

// CreateReservationInput is the booking intake payload.
type CreateReservationInput struct {
	RoomID          RoomID
	GuestID         GuestID
	CheckIn         Date
	CheckOut        Date
	Adults          int
	Children        int
	Source          Source
	SpecialRequests []string
}

func (in CreateReservationInput) validate() error {
	if in.RoomID == "" {
		return &ValidationError{Field: "roomId", Message: "room is required"}
	}
	if in.GuestID == "" {
		return &ValidationError{Field: "guestId", Message: "guest is required"}
	}
	if in.Adults < 1 {
		return &ValidationError{Field: "adults", Message: "at least one adult is required"}
	}
	if in.Children < 0 {
		return &ValidationError{Field: "children", Message: "children cannot be negative"}
	}
	if in.Source != "" && !in.Source.Valid() {
		return &ValidationError{Field: "source", Message: "unknown booking source " + string(in.Source)}
	}
	return NewStayRange(in.CheckIn, in.CheckOut).Validate()
}

// CreateReservation books a room. The conflict check and the insert run
// under the room's lock and inside one store transaction, so of two
// concurrent overlapping requests exactly one succeeds.
func (d *Desk) CreateReservation(ctx context.Context, in CreateReservationInput) (*Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	stay := NewStayRange(in.CheckIn, in.CheckOut)

	unlock := d.lockRooms(in.RoomID)
	defer unlock()

	var created *Reservation
	err := d.bookingTx(ctx, func(s Store) error {
		room, err := s.GetRoom(ctx, in.RoomID)
		if err != nil {
			return err
		}

		conflicts, err := NewConflictDetector(s).FindConflicts(ctx, in.RoomID, stay, "")
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{RoomID: in.RoomID, Stay: stay, Conflicts: conflicts}
		}

		quote, err := d.Pricing.Quote(room.BasePrice, stay)
		if err != nil {
			return err
		}

		now := d.now().UTC()
		source := in.Source
		if source == "" {
			source = SourceDirect
		}

		created = &Reservation{
			ID:              ReservationID(uuid.NewString()),
			Number:          NewReservationNumber(),
			GuestID:         in.GuestID,
			RoomID:          in.RoomID,
			Stay:            stay,
			Adults:          in.Adults,
			Children:        in.Children,
			Status:          StatusConfirmed,
			RoomRate:        quote.RoomRate,
			TotalAmount:     quote.TotalAmount,
			PaidAmount:      decimal.Zero,
			SpecialRequests: in.SpecialRequests,
			Source:          source,
			CreatedAt:       now,
			UpdatedAt:       now,
			Version:         1,
		}
		return s.CreateReservation(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// =============================================================================
// EDIT - preview, then version-checked commit
// =============================================================================

// EditPatch changes dates, room, or occupancy of a confirmed reservation.
// Nil fields keep their current value.
type EditPatch struct {
	CheckIn         *Date
	CheckOut        *Date
	RoomID          *RoomID
	Adults          *int
	Children        *int
	SpecialRequests *[]string
}

// EditPreview is what the operator confirms before the edit commits.
type EditPreview struct {
	Price     PriceChange
	Conflicts []Reservation
}

func (d *Desk) resolveEdit(r *Reservation, patch EditPatch) (RoomID, StayRange, error) {
	stay := r.Stay
	if patch.CheckIn != nil {
		stay.CheckIn = *patch.CheckIn
	}
	if patch.CheckOut != nil {
		stay.CheckOut = *patch.CheckOut
	}
	roomID := r.RoomID
	if patch.RoomID != nil {
		roomID = *patch.RoomID
	}
	if roomID == "" {
		return "", StayRange{}, &ValidationError{Field: "roomId", Message: "room is required"}
	}
	if patch.Adults != nil && *patch.Adults < 1 {
		return "", StayRange{}, &ValidationError{Field: "adults", Message: "at least one adult is required"}
	}
	if patch.Children != nil && *patch.Children < 0 {
		return "", StayRange{}, &ValidationError{Field: "children", Message: "children cannot be negative"}
	}
	return roomID, stay, stay.Validate()
}

// PreviewEdit recomputes conflicts (excluding the reservation itself) and
// the price delta for the patched stay without mutating anything. A price
// change is never applied without the caller seeing this first.
func (d *Desk) PreviewEdit(ctx context.Context, id ReservationID, patch EditPatch) (*EditPreview, error) {
	r, err := d.Store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusConfirmed {
		return nil, &StateError{ReservationID: id, From: r.Status, Op: "edit"}
	}

	roomID, stay, err := d.resolveEdit(r, patch)
	if err != nil {
		return nil, err
	}

	room, err := d.Store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	conflicts, err := NewConflictDetector(d.Store).FindConflicts(ctx, roomID, stay, id)
	if err != nil {
		return nil, err
	}
	quote, err := d.Pricing.Quote(room.BasePrice, stay)
	if err != nil {
		return nil, err
	}

	return &EditPreview{
		Price:     d.Pricing.Delta(r.TotalAmount, quote),
		Conflicts: conflicts,
	}, nil
}

// EditReservation commits a previewed edit. version must be the version the
// caller read; a stale version fails with ConflictError and writes nothing.
// Only confirmed reservations can be edited.
func (d *Desk) EditReservation(ctx context.Context, id ReservationID, version int64, patch EditPatch) (*Reservation, error) {
	// Snapshot the rooms involved so both get locked; the authoritative
	// re-check happens inside the transaction.
	current, err := d.Store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	targetRoom := current.RoomID
	if patch.RoomID != nil {
		targetRoom = *patch.RoomID
	}

	unlock := d.lockRooms(current.RoomID, targetRoom)
	defer unlock()

	var updated *Reservation
	err = d.bookingTx(ctx, func(s Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusConfirmed {
			return &StateError{ReservationID: id, From: r.Status, Op: "edit"}
		}
		if r.Version != version {
			return &ConflictError{cause: fmt.Errorf("%w: reservation %s changed since it was read", ErrVersionMismatch, id)}
		}

		roomID, stay, err := d.resolveEdit(r, patch)
		if err != nil {
			return err
		}
		room, err := s.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}

		conflicts, err := NewConflictDetector(s).FindConflicts(ctx, roomID, stay, id)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{RoomID: roomID, Stay: stay, Conflicts: conflicts}
		}

		quote, err := d.Pricing.Quote(room.BasePrice, stay)
		if err != nil {
			return err
		}

		r.RoomID = roomID
		r.Stay = stay
		r.RoomRate = quote.RoomRate
		r.TotalAmount = quote.TotalAmount
		if patch.Adults != nil {
			r.Adults = *patch.Adults
		}
		if patch.Children != nil {
			r.Children = *patch.Children
		}
		if patch.SpecialRequests != nil {
			r.SpecialRequests = *patch.SpecialRequests
		}
		r.UpdatedAt = d.now().UTC()

		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, translateVersionErr(err)
	}
	return updated, nil
}

// =============================================================================
// CHECK-IN
// =============================================================================

// Deposit is an optional payment taken at the desk during check-in. It is
// recorded as a regular ledger entry so it participates in balance math.
type Deposit struct {
	Amount    decimal.Decimal
	Method    PaymentMethod
	Reference string
}

// CheckInDetails is what the front desk records at arrival.
type CheckInDetails struct {
	IdentityVerified bool
	KeyCardsIssued   int
	ActualCheckInAt  time.Time // zero value means "now"
	Notes            string
	Deposit          *Deposit
}

// CheckIn moves a confirmed reservation to checked_in. Requires verified
// identity and at least one issued key card. Flips the room to occupied.
func (d *Desk) CheckIn(ctx context.Context, id ReservationID, details CheckInDetails) (*Reservation, error) {
	if !details.IdentityVerified {
		return nil, &ValidationError{Field: "identityVerified", Message: "guest identity must be verified before check-in"}
	}
	if details.KeyCardsIssued < 1 {
		return nil, &ValidationError{Field: "keyCardsIssued", Message: "at least one key card must be issued"}
	}
	if details.Deposit != nil && !details.Deposit.Amount.IsPositive() {
		return nil, &ValidationError{Field: "deposit.amount", Message: "deposit amount must be greater than zero"}
	}

	var updated *Reservation
	err := d.Store.WithTx(ctx, func(s Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusConfirmed {
			return &StateError{ReservationID: id, From: r.Status, Op: "check-in"}
		}

		at := details.ActualCheckInAt
		if at.IsZero() {
			at = d.now()
		}
		at = at.UTC()

		if details.Deposit != nil {
			ledger := NewPaymentLedger(s)
			ledger.now = d.now
			notes := "check-in deposit"
			if _, err := ledger.AddPayment(ctx, id, details.Deposit.Amount, details.Deposit.Method, details.Deposit.Reference, notes); err != nil {
				return err
			}
		}

		paid, err := NewPaymentLedger(s).PaidAmount(ctx, id)
		if err != nil {
			return err
		}

		r.Status = StatusCheckedIn
		r.ActualCheckInAt = &at
		r.CheckInNotes = details.Notes
		r.PaidAmount = paid
		r.UpdatedAt = d.now().UTC()
		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}

		if err := s.SetRoomStatus(ctx, r.RoomID, RoomOccupied); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, translateVersionErr(err)
	}
	return updated, nil
}

// =============================================================================
// CHECK-OUT
// =============================================================================

// CheckoutResult carries the settled figures back to the operator. The
// engine never refunds automatically; RefundAmount is a prompt, not an
// action.
type CheckoutResult struct {
	Reservation     *Reservation
	IncidentalTotal decimal.Decimal
	FinalAmount     decimal.Decimal
	BalanceDue      decimal.Decimal
	RefundAmount    decimal.Decimal
}

// CheckOut settles a checked-in stay: the bill calculator extends the total
// with incidental charges, the paid amount is summed from the ledger in the
// same transaction, and the final amount is committed as the reservation's
// new total.
func (d *Desk) CheckOut(ctx context.Context, id ReservationID, charges CheckoutCharges, notes string) (*CheckoutResult, error) {
	if err := charges.Validate(); err != nil {
		return nil, err
	}

	var result *CheckoutResult
	err := d.Store.WithTx(ctx, func(s Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusCheckedIn {
			return &StateError{ReservationID: id, From: r.Status, Op: "check-out"}
		}

		paid, err := NewPaymentLedger(s).PaidAmount(ctx, id)
		if err != nil {
			return err
		}

		settlement, err := SettleCheckout(r.TotalAmount, paid, charges)
		if err != nil {
			return err
		}

		now := d.now().UTC()
		r.Status = StatusCheckedOut
		r.TotalAmount = settlement.FinalAmount
		r.PaidAmount = paid
		r.ActualCheckOutAt = &now
		r.CheckOutNotes = notes
		r.UpdatedAt = now
		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if err := s.SetRoomStatus(ctx, r.RoomID, RoomAvailable); err != nil {
			return err
		}

		result = &CheckoutResult{
			Reservation:     r,
			IncidentalTotal: settlement.IncidentalTotal,
			FinalAmount:     settlement.FinalAmount,
			BalanceDue:      settlement.BalanceDue,
			RefundAmount:    settlement.RefundAmount,
		}
		return nil
	})
	if err != nil {
		return nil, translateVersionErr(err)
	}
	return result, nil
}

// =============================================================================
// CANCEL / NO-SHOW
// =============================================================================

// Cancel terminates a confirmed or checked-in reservation and releases the
// room for its date range. A reason is required.
func (d *Desk) Cancel(ctx context.Context, id ReservationID, reason string) (*Reservation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Message: "cancellation reason is required"}
	}

	var updated *Reservation
	err := d.Store.WithTx(ctx, func(s Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusConfirmed && r.Status != StatusCheckedIn {
			return &StateError{ReservationID: id, From: r.Status, Op: "cancel"}
		}
		wasCheckedIn := r.Status == StatusCheckedIn

		now := d.now().UTC()
		r.Status = StatusCancelled
		r.CancelReason = strings.TrimSpace(reason)
		r.CancelledAt = &now
		r.UpdatedAt = now
		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}
		if wasCheckedIn {
			if err := s.SetRoomStatus(ctx, r.RoomID, RoomAvailable); err != nil {
				return err
			}
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, translateVersionErr(err)
	}
	return updated, nil
}

// MarkNoShow terminates a confirmed reservation whose check-in date has
// arrived without the guest. Not permitted before the check-in date.
func (d *Desk) MarkNoShow(ctx context.Context, id ReservationID) (*Reservation, error) {
	var updated *Reservation
	err := d.Store.WithTx(ctx, func(s Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusConfirmed {
			return &StateError{ReservationID: id, From: r.Status, Op: "no-show"}
		}
		if DateOf(d.now()).Before(r.Stay.CheckIn) {
			return &ValidationError{
				Field:   "checkInDate",
				Message: fmt.Sprintf("cannot mark no-show before check-in date %s", r.Stay.CheckIn),
			}
		}

		r.Status = StatusNoShow
		r.UpdatedAt = d.now().UTC()
		if err := s.UpdateReservation(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, translateVersionErr(err)
	}
	return updated, nil
}

// =============================================================================
// PAYMENTS - routed through the Desk so the cached projection stays fresh
// =============================================================================

// RecordPayment appends a ledger entry for the reservation and refreshes its
// cached paidAmount in the same transaction.
func (d *Desk) RecordPayment(
	ctx context.Context,
	id ReservationID,
	amount decimal.Decimal,
	method PaymentMethod,
	reference, notes string,
) (*Payment, error) {
	var payment *Payment
	err := d.Store.WithTx(ctx, func(s Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}

		ledger := NewPaymentLedger(s)
		ledger.now = d.now
		payment, err = ledger.AddPayment(ctx, id, amount, method, reference, notes)
		if err != nil {
			return err
		}
		return d.refreshPaid(ctx, s, r)
	})
	if err != nil {
		return nil, translateVersionErr(err)
	}
	return payment, nil
}

// RecordRefund appends a refund entry against a payment and refreshes the
// reservation's cached paidAmount.
func (d *Desk) RecordRefund(ctx context.Context, paymentID PaymentID, amount decimal.Decimal) (*Payment, error) {
	var refund *Payment
	err := d.Store.WithTx(ctx, func(s Store) error {
		ledger := NewPaymentLedger(s)
		ledger.now = d.now

		var err error
		refund, err = ledger.Refund(ctx, paymentID, amount)
		if err != nil {
			return err
		}

		r, err := s.GetReservation(ctx, refund.ReservationID)
		if err != nil {
			return err
		}
		return d.refreshPaid(ctx, s, r)
	})
	if err != nil {
		return nil, translateVersionErr(err)
	}
	return refund, nil
}

// SettlePendingPayment confirms or fails a pending entry (bank transfers)
// and refreshes the cached projection.
func (d *Desk) SettlePendingPayment(ctx context.Context, paymentID PaymentID, status PaymentStatus) error {
	if status != PaymentCompleted && status != PaymentFailed {
		return &ValidationError{Field: "status", Message: "pending payments settle to completed or failed"}
	}
	err := d.Store.WithTx(ctx, func(s Store) error {
		p, err := s.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := s.SettlePayment(ctx, paymentID, status); err != nil {
			return err
		}
		r, err := s.GetReservation(ctx, p.ReservationID)
		if err != nil {
			return err
		}
		return d.refreshPaid(ctx, s, r)
	})
	return translateVersionErr(err)
}

func (d *Desk) refreshPaid(ctx context.Context, s Store, r *Reservation) error {
	paid, err := NewPaymentLedger(s).PaidAmount(ctx, r.ID)
	if err != nil {
		return err
	}
	if r.PaidAmount.Equal(paid) {
		return nil
	}
	r.PaidAmount = paid
	r.UpdatedAt = d.now().UTC()
	return s.UpdateReservation(ctx, r)
}

// Balance reports the reservation's settlement position, recomputed from
// the ledger in the same transaction as the read.
func (d *Desk) Balance(ctx context.Context, id ReservationID) (BalanceSummary, error) {
	var summary BalanceSummary
	err := d.Store.WithTx(ctx, func(s Store) error {
		r, err := s.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		summary, err = NewPaymentLedger(s).Balance(ctx, id, r.TotalAmount)
		return err
	})
	return summary, err
}

// Conflicts exposes the detector for read-only callers.
func (d *Desk) Conflicts(ctx context.Context, roomID RoomID, stay StayRange, exclude ReservationID) ([]Reservation, error) {
	return NewConflictDetector(d.Store).FindConflicts(ctx, roomID, stay, exclude)
}

// =============================================================================
// INTERNAL
// =============================================================================

// bookingTx runs the atomic check-then-act transaction, retrying a transient
// storage failure once before surfacing ConflictError.
func (d *Desk) bookingTx(ctx context.Context, fn func(Store) error) error {
	err := d.Store.WithTx(ctx, fn)
	if errors.Is(err, ErrStorageTransient) {
		if err = d.Store.WithTx(ctx, fn); errors.Is(err, ErrStorageTransient) {
			return &ConflictError{cause: err}
		}
	}
	return err
}

// lockRooms acquires the per-room mutexes in a stable order so an edit that
// moves a stay between rooms cannot deadlock against the reverse move.
func (d *Desk) lockRooms(rooms ...RoomID) func() {
	seen := make(map[RoomID]bool, len(rooms))
	ids := make([]string, 0, len(rooms))
	for _, id := range rooms {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, string(id))
		}
	}
	sort.Strings(ids)

	locks := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		locks = append(locks, d.roomLock(RoomID(id)))
	}
	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

func (d *Desk) roomLock(id RoomID) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.roomLocks[id]
	if !ok {
		l = &sync.Mutex{}
		d.roomLocks[id] = l
	}
	return l
}

func translateVersionErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrVersionMismatch) {
		var ce *ConflictError
		if errors.As(err, &ce) {
			return err
		}
		return &ConflictError{cause: err}
	}
	return err
}
