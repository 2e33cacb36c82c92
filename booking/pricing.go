/*
pricing.go - Nightly pricing and tax

PURPOSE:
  Computes what a stay costs: nights x nightly rate, plus tax. Also produces
  the price-delta preview shown to the operator before an edit is committed -
  a price change is never applied silently.

CALCULATION:
  nights      = checkOut - checkIn (whole days, half-open)
  baseAmount  = nights * rate
  taxAmount   = baseAmount * taxRate   (default 10%)
  totalAmount = baseAmount + taxAmount

All arithmetic is decimal; rounding happens only at presentation time.
*/
package booking

import "github.com/shopspring/decimal"

// DefaultTaxRate is the observed lodging tax rate. Configurable per engine.
var DefaultTaxRate = decimal.New(1, -1) // 0.10

// Quote is the priced breakdown of a stay.
type Quote struct {
	Nights      int
	RoomRate    decimal.Decimal
	BaseAmount  decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// PriceChange is the preview an operator must confirm before an edit commits.
type PriceChange struct {
	OriginalTotal decimal.Decimal
	NewTotal      decimal.Decimal
	Difference    decimal.Decimal // NewTotal - OriginalTotal, signed
	Nights        int
}

// PricingCalculator prices stays against a nightly rate snapshot.
type PricingCalculator struct {
	TaxRate decimal.Decimal
}

func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{TaxRate: DefaultTaxRate}
}

// Quote prices a stay at the given nightly rate. Fails with ValidationError
// when the range yields no nights or the rate is negative.
func (pc *PricingCalculator) Quote(rate decimal.Decimal, stay StayRange) (Quote, error) {
	if err := stay.Validate(); err != nil {
		return Quote{}, err
	}
	if rate.IsNegative() {
		return Quote{}, &ValidationError{Field: "roomRate", Message: "nightly rate cannot be negative"}
	}

	nights := stay.Nights()
	if nights <= 0 {
		return Quote{}, &ValidationError{Field: "stay", Message: "stay must include at least one night"}
	}

	base := rate.Mul(decimal.NewFromInt(int64(nights)))
	tax := base.Mul(pc.TaxRate)

	return Quote{
		Nights:      nights,
		RoomRate:    rate,
		BaseAmount:  base,
		TaxAmount:   tax,
		TotalAmount: base.Add(tax),
	}, nil
}

// Delta compares a committed total against a fresh quote for the edited stay.
func (pc *PricingCalculator) Delta(originalTotal decimal.Decimal, q Quote) PriceChange {
	return PriceChange{
		OriginalTotal: originalTotal,
		NewTotal:      q.TotalAmount,
		Difference:    q.TotalAmount.Sub(originalTotal),
		Nights:        q.Nights,
	}
}
