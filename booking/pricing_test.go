package booking_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysora/booking-engine/booking"
)

// =============================================================================
// QUOTE TESTS
// =============================================================================

func TestPricing_TwoNightStay(t *testing.T) {
	// GIVEN: A room at 5000/night and a 2-night stay
	// WHEN: Quoting the stay
	// THEN: base 10000, tax 1000 (10%), total 11000

	pc := booking.NewPricingCalculator()
	stay := booking.NewStayRange(
		booking.NewDate(2026, time.March, 10),
		booking.NewDate(2026, time.March, 12),
	)

	q, err := pc.Quote(decimal.NewFromInt(5000), stay)
	require.NoError(t, err)

	assert.Equal(t, 2, q.Nights)
	assert.True(t, q.BaseAmount.Equal(decimal.NewFromInt(10000)), "base = %s", q.BaseAmount)
	assert.True(t, q.TaxAmount.Equal(decimal.NewFromInt(1000)), "tax = %s", q.TaxAmount)
	assert.True(t, q.TotalAmount.Equal(decimal.NewFromInt(11000)), "total = %s", q.TotalAmount)
}

func TestPricing_FractionalRate(t *testing.T) {
	// Decimal math must not drift: 3 nights at 99.99 = 299.97 + 29.997 tax.

	pc := booking.NewPricingCalculator()
	stay := booking.NewStayRange(
		booking.NewDate(2026, time.June, 1),
		booking.NewDate(2026, time.June, 4),
	)

	rate, _ := decimal.NewFromString("99.99")
	q, err := pc.Quote(rate, stay)
	require.NoError(t, err)

	wantBase, _ := decimal.NewFromString("299.97")
	wantTax, _ := decimal.NewFromString("29.997")
	assert.True(t, q.BaseAmount.Equal(wantBase))
	assert.True(t, q.TaxAmount.Equal(wantTax))
	assert.True(t, q.TotalAmount.Equal(wantBase.Add(wantTax)))
}

func TestPricing_ZeroNights_Rejected(t *testing.T) {
	// GIVEN: checkOut == checkIn
	// WHEN: Quoting
	// THEN: ValidationError, never a zero-amount quote

	pc := booking.NewPricingCalculator()
	day := booking.NewDate(2026, time.March, 10)

	_, err := pc.Quote(decimal.NewFromInt(5000), booking.NewStayRange(day, day))
	assert.True(t, booking.IsValidation(err), "got %v", err)
}

func TestPricing_ReversedRange_Rejected(t *testing.T) {
	pc := booking.NewPricingCalculator()
	stay := booking.NewStayRange(
		booking.NewDate(2026, time.March, 12),
		booking.NewDate(2026, time.March, 10),
	)

	_, err := pc.Quote(decimal.NewFromInt(5000), stay)
	assert.True(t, booking.IsValidation(err))
}

func TestPricing_NegativeRate_Rejected(t *testing.T) {
	pc := booking.NewPricingCalculator()
	stay := booking.NewStayRange(
		booking.NewDate(2026, time.March, 10),
		booking.NewDate(2026, time.March, 12),
	)

	_, err := pc.Quote(decimal.NewFromInt(-100), stay)
	assert.True(t, booking.IsValidation(err))
}

func TestPricing_ConfigurableTaxRate(t *testing.T) {
	// A property with 20% tax.
	pc := booking.NewPricingCalculator()
	pc.TaxRate = decimal.New(2, -1)

	stay := booking.NewStayRange(
		booking.NewDate(2026, time.March, 10),
		booking.NewDate(2026, time.March, 11),
	)

	q, err := pc.Quote(decimal.NewFromInt(1000), stay)
	require.NoError(t, err)
	assert.True(t, q.TaxAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, q.TotalAmount.Equal(decimal.NewFromInt(1200)))
}

// =============================================================================
// EDIT DELTA TESTS
// =============================================================================

func TestPricing_Delta_Extension(t *testing.T) {
	// GIVEN: An 11000 reservation re-quoted to 3 nights (16500)
	// WHEN: Computing the price change
	// THEN: Difference is +5500

	pc := booking.NewPricingCalculator()
	stay := booking.NewStayRange(
		booking.NewDate(2026, time.March, 10),
		booking.NewDate(2026, time.March, 13),
	)

	q, err := pc.Quote(decimal.NewFromInt(5000), stay)
	require.NoError(t, err)

	change := pc.Delta(decimal.NewFromInt(11000), q)
	assert.True(t, change.NewTotal.Equal(decimal.NewFromInt(16500)))
	assert.True(t, change.Difference.Equal(decimal.NewFromInt(5500)))
	assert.Equal(t, 3, change.Nights)
}

func TestPricing_Delta_Shortening_Negative(t *testing.T) {
	pc := booking.NewPricingCalculator()
	stay := booking.NewStayRange(
		booking.NewDate(2026, time.March, 10),
		booking.NewDate(2026, time.March, 11),
	)

	q, err := pc.Quote(decimal.NewFromInt(5000), stay)
	require.NoError(t, err)

	change := pc.Delta(decimal.NewFromInt(11000), q)
	assert.True(t, change.Difference.Equal(decimal.NewFromInt(-5500)), "difference = %s", change.Difference)
}
