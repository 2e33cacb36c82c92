/*
Package booking provides the reservation lifecycle and billing engine.

PURPOSE:
  This package contains the domain types and algorithms for running a hotel
  front desk: how a reservation moves through its lifecycle, how room/date
  conflicts are detected, how nightly pricing is computed, and how payments
  and refunds reconcile into a balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Reservation: A stay for one room over a half-open date range
  - Payment: An immutable ledger entry (positive = payment, negative = refund)
  - Room: Pricing/inventory reference, read-mostly here
  - Status enums: Reservation lifecycle, payment state, payment method

DESIGN PRINCIPLES:
  1. Derived, never stored: nights and paid amounts are always recomputed
  2. Precision: decimal.Decimal for all money, never float
  3. Terminal means terminal: checked_out/cancelled/no_show never transition
  4. Append-only billing: corrections are new ledger entries, not edits

SEE ALSO:
  - lifecycle.go: State transitions and orchestration
  - ledger.go: Payment ledger and balance derivation
  - date.go: Day-granularity dates and the half-open stay range
*/
package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ReservationID string
type PaymentID string
type RoomID string
type GuestID string

// NewReservationNumber returns a human-facing reference like RES-1A2B3C4D.
// Operators read these over the phone, so they are short and uppercase.
func NewReservationNumber() string {
	return "RES-" + shortRef()
}

// NewPaymentNumber returns a receipt-style reference like PAY-1A2B3C4D.
func NewPaymentNumber() string {
	return "PAY-" + shortRef()
}

func shortRef() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// =============================================================================
// RESERVATION STATUS - The lifecycle states
// =============================================================================

type ReservationStatus string

const (
	StatusConfirmed  ReservationStatus = "confirmed"  // Initial state at booking intake
	StatusCheckedIn  ReservationStatus = "checked_in" // Guest is in the room
	StatusCheckedOut ReservationStatus = "checked_out" // Terminal
	StatusCancelled  ReservationStatus = "cancelled"   // Terminal
	StatusNoShow     ReservationStatus = "no_show"     // Terminal
)

// Terminal reports whether no further transition is permitted from s.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled || s == StatusNoShow
}

// Blocking reports whether a reservation in this status occupies its room
// for conflict detection. Cancelled/checked-out/no-show stays never conflict.
func (s ReservationStatus) Blocking() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

// =============================================================================
// BOOKING SOURCE
// =============================================================================

type Source string

const (
	SourceDirect     Source = "direct"
	SourcePhone      Source = "phone"
	SourceEmail      Source = "email"
	SourceWalkIn     Source = "walk_in"
	SourceBookingCom Source = "booking_com"
	SourceExpedia    Source = "expedia"
	SourceOther      Source = "other"
)

var knownSources = map[Source]bool{
	SourceDirect: true, SourcePhone: true, SourceEmail: true, SourceWalkIn: true,
	SourceBookingCom: true, SourceExpedia: true, SourceOther: true,
}

// Valid reports whether src is a recognized booking channel.
func (src Source) Valid() bool { return knownSources[src] }

// =============================================================================
// RESERVATION
// =============================================================================

// Reservation is a stay for one room over a half-open [CheckIn, CheckOut)
// date range. It is created in StatusConfirmed by booking intake and mutated
// only through Desk operations; cancellation is a terminal state, never a
// deletion.
type Reservation struct {
	ID     ReservationID
	Number string // Human-facing reference (RES-...)

	GuestID GuestID
	RoomID  RoomID

	Stay     StayRange // Half-open: the checkout day is not an occupied night
	Adults   int
	Children int

	Status ReservationStatus

	// RoomRate is the nightly rate snapshot taken at booking (or last edit)
	// time. TotalAmount is rate*nights plus tax. PaidAmount is a cached
	// projection of the ledger; the ledger is authoritative.
	RoomRate    decimal.Decimal
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal

	SpecialRequests []string
	Source          Source

	// Stamped by transitions.
	ActualCheckInAt  *time.Time
	ActualCheckOutAt *time.Time
	CheckInNotes     string
	CheckOutNotes    string
	CancelReason     string
	CancelledAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version implements optimistic concurrency: every committed mutation
	// bumps it, and the store rejects writes against a stale version.
	Version int64
}

// Nights returns the derived stay length. Never read a stored value for this.
func (r *Reservation) Nights() int { return r.Stay.Nights() }

// =============================================================================
// PAYMENT - Ledger entry
// =============================================================================

type PaymentMethod string

const (
	MethodCash          PaymentMethod = "cash"
	MethodCreditCard    PaymentMethod = "credit_card"
	MethodDebitCard     PaymentMethod = "debit_card"
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodMobilePayment PaymentMethod = "mobile_payment"
)

var knownMethods = map[PaymentMethod]bool{
	MethodCash: true, MethodCreditCard: true, MethodDebitCard: true,
	MethodBankTransfer: true, MethodMobilePayment: true,
}

// Valid reports whether m is a recognized payment method.
func (m PaymentMethod) Valid() bool { return knownMethods[m] }

// RequiresReference reports whether entries for this method must carry an
// external reference (the transfer slip for bank transfers).
func (m PaymentMethod) RequiresReference() bool { return m == MethodBankTransfer }

// SettlesImmediately reports whether a new entry for this method is recorded
// as completed. Bank transfers wait for external confirmation.
func (m PaymentMethod) SettlesImmediately() bool { return m != MethodBankTransfer }

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is one ledger entry. Amount is signed: positive entries are
// payments, negative entries are refunds. Once completed, an entry is
// immutable; corrections are additional entries.
type Payment struct {
	ID            PaymentID
	Number        string // Receipt-style reference (PAY-...)
	ReservationID ReservationID

	Amount decimal.Decimal
	Method PaymentMethod
	Status PaymentStatus

	// RefundOf links a refund entry back to the payment it reverses.
	RefundOf PaymentID

	Reference string
	Notes     string
	CreatedAt time.Time
}

// IsRefund reports whether the entry reverses an earlier payment.
func (p *Payment) IsRefund() bool { return p.RefundOf != "" }

// =============================================================================
// ROOM - External reference, read-mostly in this core
// =============================================================================

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
	RoomCleaning    RoomStatus = "cleaning"
	RoomOutOfOrder  RoomStatus = "out_of_order"
)

// Room is consulted for pricing (BasePrice) and referenced by conflict
// checks. Status is advisory for housekeeping; conflict detection only ever
// looks at reservation intervals.
type Room struct {
	ID        RoomID
	Number    string
	Type      string
	BasePrice decimal.Decimal
	Status    RoomStatus
}

// =============================================================================
// BALANCE SUMMARY
// =============================================================================

// BalanceSummary is the single source of balance math. Exactly one of
// BalanceDue/Overpayment is nonzero (or both are zero).
type BalanceSummary struct {
	PaidAmount  decimal.Decimal
	BalanceDue  decimal.Decimal
	Overpayment decimal.Decimal
}
