package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysora/booking-engine/booking"
)

func stay(inY int, inM time.Month, inD, outY int, outM time.Month, outD int) booking.StayRange {
	return booking.NewStayRange(
		booking.NewDate(inY, inM, inD),
		booking.NewDate(outY, outM, outD),
	)
}

// =============================================================================
// HALF-OPEN INTERVAL TESTS
// =============================================================================

func TestStayRange_BackToBack_NoOverlap(t *testing.T) {
	// GIVEN: Guest A checks out March 12, guest B checks in March 12
	// WHEN: Comparing the two stays
	// THEN: No overlap; checkout day is not occupancy

	a := stay(2026, time.March, 10, 2026, time.March, 12)
	b := stay(2026, time.March, 12, 2026, time.March, 14)

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestStayRange_SingleSharedNight_Overlaps(t *testing.T) {
	a := stay(2026, time.March, 10, 2026, time.March, 12)
	b := stay(2026, time.March, 11, 2026, time.March, 14)

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
}

func TestStayRange_Containment_Overlaps(t *testing.T) {
	outer := stay(2026, time.March, 1, 2026, time.March, 31)
	inner := stay(2026, time.March, 10, 2026, time.March, 12)

	assert.True(t, outer.Overlaps(inner))
	assert.True(t, inner.Overlaps(outer))
}

func TestStayRange_IdenticalRanges_Overlap(t *testing.T) {
	a := stay(2026, time.March, 10, 2026, time.March, 12)
	b := stay(2026, time.March, 10, 2026, time.March, 12)

	assert.True(t, a.Overlaps(b))
}

func TestStayRange_Disjoint_NoOverlap(t *testing.T) {
	a := stay(2026, time.March, 10, 2026, time.March, 12)
	b := stay(2026, time.April, 1, 2026, time.April, 3)

	assert.False(t, a.Overlaps(b))
}

// =============================================================================
// NIGHTS AND VALIDATION
// =============================================================================

func TestStayRange_Nights(t *testing.T) {
	assert.Equal(t, 2, stay(2026, time.March, 10, 2026, time.March, 12).Nights())
	assert.Equal(t, 1, stay(2026, time.March, 10, 2026, time.March, 11).Nights())

	// Across a month boundary
	assert.Equal(t, 3, stay(2026, time.March, 30, 2026, time.April, 2).Nights())
}

func TestStayRange_Validate(t *testing.T) {
	day := booking.NewDate(2026, time.March, 10)

	assert.NoError(t, stay(2026, time.March, 10, 2026, time.March, 11).Validate())

	err := booking.NewStayRange(day, day).Validate()
	assert.True(t, booking.IsValidation(err), "zero-night stay must be rejected")

	err = stay(2026, time.March, 12, 2026, time.March, 10).Validate()
	assert.True(t, booking.IsValidation(err), "reversed range must be rejected")
}

func TestStayRange_Contains(t *testing.T) {
	s := stay(2026, time.March, 10, 2026, time.March, 12)

	assert.True(t, s.Contains(booking.NewDate(2026, time.March, 10)))
	assert.True(t, s.Contains(booking.NewDate(2026, time.March, 11)))
	assert.False(t, s.Contains(booking.NewDate(2026, time.March, 12)), "checkout day is exclusive")
}

// =============================================================================
// DATE TESTS
// =============================================================================

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := booking.ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", d.String())

	_, err = booking.ParseDate("10/03/2026")
	assert.Error(t, err)
}

func TestDateOf_TruncatesToDay(t *testing.T) {
	ts := time.Date(2026, time.March, 10, 23, 59, 58, 0, time.UTC)
	assert.True(t, booking.DateOf(ts).Equal(booking.NewDate(2026, time.March, 10)))
}

func TestDaysBetween(t *testing.T) {
	a := booking.NewDate(2026, time.February, 27)
	b := booking.NewDate(2026, time.March, 2)
	assert.Equal(t, 3, booking.DaysBetween(a, b))
}
