package booking

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (UTC)
// =============================================================================

// Date is a calendar date with day granularity. Hotel nights are whole days;
// normalizing here keeps every comparison timezone- and clock-free.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Time() time.Time    { return d.t }
func (d Date) String() string     { return d.t.Format(dateLayout) }

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// =============================================================================
// STAY RANGE - Half-open [CheckIn, CheckOut) interval
// =============================================================================

// StayRange is the half-open interval of a stay: the checkout date is
// excluded, so a reservation ending on day N never conflicts with one
// starting on day N.
type StayRange struct {
	CheckIn  Date
	CheckOut Date
}

func NewStayRange(checkIn, checkOut Date) StayRange {
	return StayRange{CheckIn: checkIn, CheckOut: checkOut}
}

// Nights returns the number of occupied nights.
func (s StayRange) Nights() int { return DaysBetween(s.CheckIn, s.CheckOut) }

// Validate enforces checkIn < checkOut.
func (s StayRange) Validate() error {
	if s.CheckIn.IsZero() || s.CheckOut.IsZero() {
		return &ValidationError{Field: "stay", Message: "check-in and check-out dates are required"}
	}
	if !s.CheckIn.Before(s.CheckOut) {
		return &ValidationError{
			Field:   "stay",
			Message: fmt.Sprintf("check-in %s must be before check-out %s", s.CheckIn, s.CheckOut),
		}
	}
	return nil
}

// Overlaps implements the half-open overlap predicate:
// [a1,a2) and [b1,b2) overlap iff a1 < b2 && b1 < a2.
func (s StayRange) Overlaps(other StayRange) bool {
	return s.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(s.CheckOut)
}

// Contains reports whether the date is an occupied night of the stay.
func (s StayRange) Contains(d Date) bool {
	return !d.Before(s.CheckIn) && d.Before(s.CheckOut)
}

func (s StayRange) String() string {
	return fmt.Sprintf("[%s, %s)", s.CheckIn, s.CheckOut)
}
