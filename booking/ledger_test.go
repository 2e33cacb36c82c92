package booking_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysora/booking-engine/booking"
	"github.com/sysora/booking-engine/booking/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) *booking.PaymentLedger {
	t.Helper()
	return booking.NewPaymentLedger(store.NewMemory())
}

func money(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// =============================================================================
// PAYMENT VALIDATION
// =============================================================================

func TestLedger_AddPayment_Completed(t *testing.T) {
	// GIVEN: An empty ledger
	// WHEN: Recording a 5000 cash payment
	// THEN: Entry is completed immediately and paid amount reflects it

	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(5000), booking.MethodCash, "", "")
	require.NoError(t, err)

	assert.Equal(t, booking.PaymentCompleted, p.Status)
	assert.False(t, p.IsRefund())
	assert.NotEmpty(t, p.Number)

	paid, err := ledger.PaidAmount(ctx, "res-1")
	require.NoError(t, err)
	assert.True(t, paid.Equal(money(5000)))
}

func TestLedger_AddPayment_ZeroOrNegative_Rejected(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.AddPayment(ctx, "res-1", money(0), booking.MethodCash, "", "")
	assert.True(t, booking.IsValidation(err))

	_, err = ledger.AddPayment(ctx, "res-1", money(-100), booking.MethodCash, "", "")
	assert.True(t, booking.IsValidation(err))
}

func TestLedger_AddPayment_UnknownMethod_Rejected(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AddPayment(context.Background(), "res-1", money(100), "cheque", "", "")
	assert.True(t, booking.IsValidation(err))
}

// =============================================================================
// BANK TRANSFER SETTLEMENT
// =============================================================================

func TestLedger_BankTransfer_RequiresReference(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AddPayment(context.Background(), "res-1", money(100), booking.MethodBankTransfer, "", "")
	assert.True(t, booking.IsValidation(err), "bank transfers need a reference")
}

func TestLedger_BankTransfer_PendingUntilConfirmed(t *testing.T) {
	// GIVEN: A 4000 bank transfer
	// WHEN: It is recorded
	// THEN: It stays pending and is excluded from paid amount until confirmed

	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(4000), booking.MethodBankTransfer, "TRX-1", "")
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentPending, p.Status)

	paid, err := ledger.PaidAmount(ctx, "res-1")
	require.NoError(t, err)
	assert.True(t, paid.IsZero(), "pending entries must not count")

	require.NoError(t, ledger.ConfirmPayment(ctx, p.ID))

	paid, err = ledger.PaidAmount(ctx, "res-1")
	require.NoError(t, err)
	assert.True(t, paid.Equal(money(4000)))
}

func TestLedger_BankTransfer_FailedNeverCounts(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(4000), booking.MethodBankTransfer, "TRX-1", "")
	require.NoError(t, err)

	require.NoError(t, ledger.FailPayment(ctx, p.ID))

	paid, err := ledger.PaidAmount(ctx, "res-1")
	require.NoError(t, err)
	assert.True(t, paid.IsZero())
}

func TestLedger_Settle_OnlyPendingEntries(t *testing.T) {
	// A completed cash payment cannot be re-settled; the ledger is immutable.

	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(100), booking.MethodCash, "", "")
	require.NoError(t, err)

	err = ledger.ConfirmPayment(ctx, p.ID)
	assert.ErrorIs(t, err, booking.ErrLedgerImmutable)
}

// =============================================================================
// REFUNDS
// =============================================================================

func TestLedger_Refund_LinkedNegativeEntry(t *testing.T) {
	// GIVEN: A completed 5000 payment
	// WHEN: Refunding 2000
	// THEN: A new negative entry linked to the source; paid drops to 3000

	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(5000), booking.MethodCash, "", "")
	require.NoError(t, err)

	refund, err := ledger.Refund(ctx, p.ID, money(2000))
	require.NoError(t, err)

	assert.True(t, refund.IsRefund())
	assert.True(t, refund.Amount.Equal(money(-2000)))
	assert.Equal(t, p.ID, refund.RefundOf)
	assert.Equal(t, booking.PaymentCompleted, refund.Status)

	paid, err := ledger.PaidAmount(ctx, "res-1")
	require.NoError(t, err)
	assert.True(t, paid.Equal(money(3000)))
}

func TestLedger_Refund_CappedAtRemainder(t *testing.T) {
	// GIVEN: A 5000 payment already refunded 4000
	// WHEN: Refunding another 2000
	// THEN: Rejected; only 1000 is refundable

	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(5000), booking.MethodCash, "", "")
	require.NoError(t, err)

	_, err = ledger.Refund(ctx, p.ID, money(4000))
	require.NoError(t, err)

	_, err = ledger.Refund(ctx, p.ID, money(2000))
	assert.True(t, booking.IsValidation(err), "over-refund must be rejected")

	_, err = ledger.Refund(ctx, p.ID, money(1000))
	assert.NoError(t, err, "refunding the exact remainder is fine")
}

func TestLedger_Refund_OfPending_Rejected(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(4000), booking.MethodBankTransfer, "TRX-1", "")
	require.NoError(t, err)

	_, err = ledger.Refund(ctx, p.ID, money(100))
	assert.True(t, booking.IsValidation(err), "pending payments cannot be refunded")
}

func TestLedger_Refund_OfRefund_Rejected(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.AddPayment(ctx, "res-1", money(5000), booking.MethodCash, "", "")
	require.NoError(t, err)
	refund, err := ledger.Refund(ctx, p.ID, money(1000))
	require.NoError(t, err)

	_, err = ledger.Refund(ctx, refund.ID, money(100))
	assert.True(t, booking.IsValidation(err))
}

func TestLedger_Refund_UnknownPayment_NotFound(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.Refund(context.Background(), "pay-missing", money(100))
	assert.True(t, booking.IsNotFound(err))
}

// =============================================================================
// BALANCE DERIVATION
// =============================================================================

func TestLedger_Balance_Derived(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.AddPayment(ctx, "res-1", money(5000), booking.MethodCash, "", "")
	require.NoError(t, err)
	_, err = ledger.AddPayment(ctx, "res-1", money(3000), booking.MethodCreditCard, "", "")
	require.NoError(t, err)

	summary, err := ledger.Balance(ctx, "res-1", money(11000))
	require.NoError(t, err)

	assert.True(t, summary.PaidAmount.Equal(money(8000)))
	assert.True(t, summary.BalanceDue.Equal(money(3000)))
	assert.True(t, summary.Overpayment.IsZero())
}

func TestLedger_Balance_Overpaid(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.AddPayment(ctx, "res-1", money(12000), booking.MethodCash, "", "")
	require.NoError(t, err)

	summary, err := ledger.Balance(ctx, "res-1", money(11000))
	require.NoError(t, err)

	assert.True(t, summary.BalanceDue.IsZero())
	assert.True(t, summary.Overpayment.Equal(money(1000)))
}

func TestSummarizeBalance_NeverNegative(t *testing.T) {
	s := booking.SummarizeBalance(money(100), money(250))
	assert.True(t, s.BalanceDue.IsZero())
	assert.True(t, s.Overpayment.Equal(money(150)))

	s = booking.SummarizeBalance(money(250), money(100))
	assert.True(t, s.BalanceDue.Equal(money(150)))
	assert.True(t, s.Overpayment.IsZero())
}

func TestLedger_PaidAmount_AlwaysRecomputed(t *testing.T) {
	// Appending then refunding repeatedly must keep the derived sum exact.

	ledger := newTestLedger(t)
	ctx := context.Background()

	p1, err := ledger.AddPayment(ctx, "res-1", money(1000), booking.MethodCash, "", "")
	require.NoError(t, err)
	_, err = ledger.AddPayment(ctx, "res-1", money(2000), booking.MethodDebitCard, "", "")
	require.NoError(t, err)
	_, err = ledger.Refund(ctx, p1.ID, money(500))
	require.NoError(t, err)

	paid, err := ledger.PaidAmount(ctx, "res-1")
	require.NoError(t, err)
	assert.True(t, paid.Equal(money(2500)))
}
