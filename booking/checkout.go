/*
checkout.go - Checkout bill calculator

PURPOSE:
  Extends a reservation's committed total with incidental charges at
  check-out time and produces the final settlement figures. The calculator is
  pure: it writes nothing and refunds nothing. The lifecycle service commits
  finalAmount as the new totalAmount; the operator decides what to do about
  any refund it surfaces.

CALCULATION:
  incidental  = minibar + phone + laundry + damage + lateCheckoutFee
                + sum(custom charges)
  finalAmount = totalAmount + incidental
  balanceDue  = finalAmount - paidAmount
  refund      = |balanceDue| when balanceDue < 0, else 0
*/
package booking

import "github.com/shopspring/decimal"

// CustomCharge is an arbitrary itemized checkout charge.
type CustomCharge struct {
	Description string
	Amount      decimal.Decimal
}

// CheckoutCharges are the incidental charges collected at check-out.
type CheckoutCharges struct {
	Minibar         decimal.Decimal
	Phone           decimal.Decimal
	Laundry         decimal.Decimal
	Damage          decimal.Decimal
	LateCheckoutFee decimal.Decimal
	Custom          []CustomCharge
}

// Validate rejects negative charge lines and unnamed custom charges.
func (c CheckoutCharges) Validate() error {
	named := []struct {
		field  string
		amount decimal.Decimal
	}{
		{"minibar", c.Minibar},
		{"phone", c.Phone},
		{"laundry", c.Laundry},
		{"damage", c.Damage},
		{"lateCheckoutFee", c.LateCheckoutFee},
	}
	for _, ch := range named {
		if ch.amount.IsNegative() {
			return &ValidationError{Field: ch.field, Message: "charge cannot be negative"}
		}
	}
	for _, cc := range c.Custom {
		if cc.Description == "" {
			return &ValidationError{Field: "custom", Message: "custom charge needs a description"}
		}
		if cc.Amount.IsNegative() {
			return &ValidationError{Field: "custom", Message: "charge cannot be negative: " + cc.Description}
		}
	}
	return nil
}

// Total sums every incidental line.
func (c CheckoutCharges) Total() decimal.Decimal {
	total := c.Minibar.Add(c.Phone).Add(c.Laundry).Add(c.Damage).Add(c.LateCheckoutFee)
	for _, cc := range c.Custom {
		total = total.Add(cc.Amount)
	}
	return total
}

// Settlement is the final bill produced at check-out.
type Settlement struct {
	IncidentalTotal decimal.Decimal
	FinalAmount     decimal.Decimal

	// BalanceDue is signed here: negative means the guest overpaid. The
	// overpaid portion is mirrored into RefundAmount for the operator's
	// explicit refund decision.
	BalanceDue   decimal.Decimal
	RefundAmount decimal.Decimal
}

// SettleCheckout computes the final bill for a stay. Pure function.
func SettleCheckout(totalAmount, paidAmount decimal.Decimal, charges CheckoutCharges) (Settlement, error) {
	if err := charges.Validate(); err != nil {
		return Settlement{}, err
	}

	incidental := charges.Total()
	final := totalAmount.Add(incidental)
	due := final.Sub(paidAmount)

	refund := decimal.Zero
	if due.IsNegative() {
		refund = due.Abs()
	}

	return Settlement{
		IncidentalTotal: incidental,
		FinalAmount:     final,
		BalanceDue:      due,
		RefundAmount:    refund,
	}, nil
}
