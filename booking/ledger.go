/*
ledger.go - Append-only payment ledger

PURPOSE:
  The ledger is the source of truth for everything a guest has paid. Every
  payment, refund, and deposit is an immutable entry; the reservation's
  paidAmount is a cached projection that is always recomputed from the
  entries, never incremented in place.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: corrections are new entries, never edits
  2. SIGNED AMOUNTS: payments positive, refunds negative
  3. DERIVED BALANCE: paidAmount == sum of completed entries
  4. The only mutation of an existing entry is pending -> completed/failed
     for methods that await external confirmation (bank transfers)

WHY APPEND-ONLY?
  Front-desk disputes come down to "explain this bill". With an immutable
  trail every figure on the folio is reproducible from the entries.

REFUNDS:
  A refund is a negative completed entry linked to its source payment via
  RefundOf. The refundable remainder of a payment is its amount minus all
  completed refunds already linked to it; a refund can never exceed that.
*/
package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentLedger records payments/refunds and derives balances.
type PaymentLedger struct {
	Store PaymentStore
	now   func() time.Time
}

func NewPaymentLedger(store PaymentStore) *PaymentLedger {
	return &PaymentLedger{Store: store, now: time.Now}
}

// =============================================================================
// RECORDING
// =============================================================================

// AddPayment appends a payment entry. amount must be positive; bank
// transfers require a reference and enter as pending, everything else as
// completed.
func (l *PaymentLedger) AddPayment(
	ctx context.Context,
	reservationID ReservationID,
	amount decimal.Decimal,
	method PaymentMethod,
	reference, notes string,
) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "payment amount must be greater than zero"}
	}
	if !method.Valid() {
		return nil, &ValidationError{Field: "method", Message: "unknown payment method " + string(method)}
	}
	if method.RequiresReference() && strings.TrimSpace(reference) == "" {
		return nil, &ValidationError{Field: "reference", Message: "bank transfers require a transfer reference"}
	}

	status := PaymentCompleted
	if !method.SettlesImmediately() {
		status = PaymentPending
	}

	p := &Payment{
		ID:            PaymentID(uuid.NewString()),
		Number:        NewPaymentNumber(),
		ReservationID: reservationID,
		Amount:        amount,
		Method:        method,
		Status:        status,
		Reference:     strings.TrimSpace(reference),
		Notes:         notes,
		CreatedAt:     l.now().UTC(),
	}

	if err := l.Store.AppendPayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Refund appends a negative completed entry reversing part or all of a
// completed payment. The amount may not exceed the payment's remaining
// non-refunded amount.
func (l *PaymentLedger) Refund(ctx context.Context, paymentID PaymentID, amount decimal.Decimal) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "refund amount must be greater than zero"}
	}

	source, err := l.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if source.IsRefund() {
		return nil, &ValidationError{Field: "paymentId", Message: "cannot refund a refund entry"}
	}
	if source.Status != PaymentCompleted {
		return nil, &ValidationError{Field: "paymentId", Message: "only completed payments can be refunded"}
	}

	remaining, err := l.refundableRemainder(ctx, source)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(remaining) {
		return nil, &ValidationError{
			Field:   "amount",
			Message: "refund exceeds remaining amount " + remaining.String() + " of payment " + string(paymentID),
		}
	}

	refund := &Payment{
		ID:            PaymentID(uuid.NewString()),
		Number:        NewPaymentNumber(),
		ReservationID: source.ReservationID,
		Amount:        amount.Neg(),
		Method:        source.Method,
		Status:        PaymentCompleted,
		RefundOf:      source.ID,
		Reference:     source.Reference,
		CreatedAt:     l.now().UTC(),
	}

	if err := l.Store.AppendPayment(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

func (l *PaymentLedger) refundableRemainder(ctx context.Context, source *Payment) (decimal.Decimal, error) {
	entries, err := l.Store.PaymentsByReservation(ctx, source.ReservationID)
	if err != nil {
		return decimal.Zero, err
	}

	remaining := source.Amount
	for _, e := range entries {
		if e.RefundOf == source.ID && e.Status == PaymentCompleted {
			remaining = remaining.Add(e.Amount) // refund amounts are negative
		}
	}
	return remaining, nil
}

// =============================================================================
// SETTLEMENT OF PENDING ENTRIES
// =============================================================================

// ConfirmPayment marks a pending entry completed, bringing it into balance
// math. Status is the only field that changes.
func (l *PaymentLedger) ConfirmPayment(ctx context.Context, id PaymentID) error {
	return l.Store.SettlePayment(ctx, id, PaymentCompleted)
}

// FailPayment marks a pending entry failed. Failed entries never count.
func (l *PaymentLedger) FailPayment(ctx context.Context, id PaymentID) error {
	return l.Store.SettlePayment(ctx, id, PaymentFailed)
}

// =============================================================================
// BALANCE DERIVATION
// =============================================================================

// PaidAmount recomputes the reservation's paid total from its completed
// entries. Signed amounts make this a straight sum: payments add, refunds
// subtract.
func (l *PaymentLedger) PaidAmount(ctx context.Context, id ReservationID) (decimal.Decimal, error) {
	entries, err := l.Store.PaymentsByReservation(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, e := range entries {
		if e.Status == PaymentCompleted {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

// Balance derives balanceDue/overpayment for a reservation total. Repeated
// calls without an intervening mutation return identical results.
func (l *PaymentLedger) Balance(ctx context.Context, id ReservationID, totalAmount decimal.Decimal) (BalanceSummary, error) {
	paid, err := l.PaidAmount(ctx, id)
	if err != nil {
		return BalanceSummary{}, err
	}
	return SummarizeBalance(totalAmount, paid), nil
}

// SummarizeBalance is the consolidated balance math:
// balanceDue = max(0, total-paid), overpayment = max(0, paid-total).
func SummarizeBalance(totalAmount, paidAmount decimal.Decimal) BalanceSummary {
	due := totalAmount.Sub(paidAmount)
	over := paidAmount.Sub(totalAmount)
	if due.IsNegative() {
		due = decimal.Zero
	}
	if over.IsNegative() {
		over = decimal.Zero
	}
	return BalanceSummary{PaidAmount: paidAmount, BalanceDue: due, Overpayment: over}
}
