/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  All monetary fields travel as decimal strings ("11000", "550.50") to
  avoid float rounding on the wire. Clients parse them with their own
  decimal library.

DATES:
  Stay dates are YYYY-MM-DD strings (hotel-day granularity). Event
  timestamps are RFC3339.

SEE ALSO:
  - handlers.go: Uses these types
  - booking/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/sysora/booking-engine/booking"
)

// =============================================================================
// RESERVATION TYPES
// =============================================================================

// ReservationDTO represents a reservation in API responses.
type ReservationDTO struct {
	ID               string   `json:"id"`
	Number           string   `json:"number"`
	GuestID          string   `json:"guest_id"`
	RoomID           string   `json:"room_id"`
	CheckIn          string   `json:"check_in"`
	CheckOut         string   `json:"check_out"`
	Nights           int      `json:"nights"`
	Adults           int      `json:"adults"`
	Children         int      `json:"children"`
	Status           string   `json:"status"`
	RoomRate         string   `json:"room_rate"`
	TotalAmount      string   `json:"total_amount"`
	PaidAmount       string   `json:"paid_amount"`
	SpecialRequests  []string `json:"special_requests,omitempty"`
	Source           string   `json:"source"`
	ActualCheckInAt  string   `json:"actual_check_in_at,omitempty"`
	ActualCheckOutAt string   `json:"actual_check_out_at,omitempty"`
	CheckInNotes     string   `json:"check_in_notes,omitempty"`
	CheckOutNotes    string   `json:"check_out_notes,omitempty"`
	CancelReason     string   `json:"cancel_reason,omitempty"`
	CancelledAt      string   `json:"cancelled_at,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
	Version          int64    `json:"version"`
}

// CreateReservationRequest is the request to create a reservation.
type CreateReservationRequest struct {
	RoomID          string   `json:"room_id"`
	GuestID         string   `json:"guest_id"`
	CheckIn         string   `json:"check_in"`
	CheckOut        string   `json:"check_out"`
	Adults          int      `json:"adults"`
	Children        int      `json:"children"`
	Source          string   `json:"source,omitempty"`
	SpecialRequests []string `json:"special_requests,omitempty"`
}

// EditReservationRequest patches a reservation. Nil fields are unchanged.
// Version carries the optimistic concurrency token read by the client.
type EditReservationRequest struct {
	Version         int64     `json:"version"`
	CheckIn         *string   `json:"check_in,omitempty"`
	CheckOut        *string   `json:"check_out,omitempty"`
	RoomID          *string   `json:"room_id,omitempty"`
	Adults          *int      `json:"adults,omitempty"`
	Children        *int      `json:"children,omitempty"`
	SpecialRequests *[]string `json:"special_requests,omitempty"`
}

// EditPreviewDTO shows the price impact of a pending edit before the
// client confirms it.
type EditPreviewDTO struct {
	OriginalTotal string           `json:"original_total"`
	NewTotal      string           `json:"new_total"`
	Difference    string           `json:"difference"`
	Nights        int              `json:"nights"`
	Conflicts     []ReservationDTO `json:"conflicts"`
}

// CheckInRequest performs check-in on a confirmed reservation.
type CheckInRequest struct {
	IdentityVerified bool            `json:"identity_verified"`
	KeyCardsIssued   int             `json:"key_cards_issued"`
	ActualCheckInAt  string          `json:"actual_check_in_at,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Deposit          *DepositRequest `json:"deposit,omitempty"`
}

// DepositRequest is the optional security deposit collected at check-in.
type DepositRequest struct {
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}

// CheckOutRequest settles the bill for a checked-in reservation.
type CheckOutRequest struct {
	Minibar         string            `json:"minibar_charges,omitempty"`
	Phone           string            `json:"phone_charges,omitempty"`
	Laundry         string            `json:"laundry_charges,omitempty"`
	Damage          string            `json:"damage_charges,omitempty"`
	LateCheckoutFee string            `json:"late_checkout_fee,omitempty"`
	Custom          []CustomChargeDTO `json:"additional_charges,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// CustomChargeDTO is a free-form incidental line item.
type CustomChargeDTO struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// CheckOutResponse reports the settled bill.
type CheckOutResponse struct {
	Reservation     ReservationDTO `json:"reservation"`
	IncidentalTotal string         `json:"incidental_total"`
	FinalAmount     string         `json:"final_amount"`
	BalanceDue      string         `json:"balance_due"`
	RefundAmount    string         `json:"refund_amount"`
}

// CancelRequest cancels a reservation with a required reason.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// =============================================================================
// PAYMENT TYPES
// =============================================================================

// PaymentDTO represents a ledger entry in API responses.
type PaymentDTO struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	ReservationID string `json:"reservation_id"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	Status        string `json:"status"`
	RefundOf      string `json:"refund_of,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// RecordPaymentRequest appends a payment to a reservation's ledger.
type RecordPaymentRequest struct {
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// RefundRequest refunds part or all of a completed payment.
type RefundRequest struct {
	Amount string `json:"amount"`
}

// BalanceDTO is the derived billing position of a reservation.
type BalanceDTO struct {
	TotalAmount string `json:"total_amount"`
	PaidAmount  string `json:"paid_amount"`
	BalanceDue  string `json:"balance_due"`
	Overpayment string `json:"overpayment"`
}

// =============================================================================
// ROOM TYPES
// =============================================================================

// RoomDTO represents a room in API responses.
type RoomDTO struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Type      string `json:"type"`
	BasePrice string `json:"base_price"`
	Status    string `json:"status"`
}

// CreateRoomRequest creates or updates a room.
type CreateRoomRequest struct {
	ID        string `json:"id,omitempty"`
	Number    string `json:"number"`
	Type      string `json:"type"`
	BasePrice string `json:"base_price"`
	Status    string `json:"status,omitempty"`
}

// RoomStatusRequest changes a room's housekeeping status.
type RoomStatusRequest struct {
	Status string `json:"status"`
}

// AvailabilityDTO reports whether a room is free for a stay range.
type AvailabilityDTO struct {
	RoomID    string           `json:"room_id"`
	CheckIn   string           `json:"check_in"`
	CheckOut  string           `json:"check_out"`
	Available bool             `json:"available"`
	Conflicts []ReservationDTO `json:"conflicts"`
}

// =============================================================================
// QUOTE TYPES
// =============================================================================

// QuoteRequest asks for a price quote without creating anything.
type QuoteRequest struct {
	RoomID   string `json:"room_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// QuoteDTO is the itemized price of a prospective stay.
type QuoteDTO struct {
	Nights      int    `json:"nights"`
	RoomRate    string `json:"room_rate"`
	BaseAmount  string `json:"base_amount"`
	TaxAmount   string `json:"tax_amount"`
	TotalAmount string `json:"total_amount"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toReservationDTO(r *booking.Reservation) ReservationDTO {
	dto := ReservationDTO{
		ID:              string(r.ID),
		Number:          r.Number,
		GuestID:         string(r.GuestID),
		RoomID:          string(r.RoomID),
		CheckIn:         r.Stay.CheckIn.String(),
		CheckOut:        r.Stay.CheckOut.String(),
		Nights:          r.Nights(),
		Adults:          r.Adults,
		Children:        r.Children,
		Status:          string(r.Status),
		RoomRate:        r.RoomRate.String(),
		TotalAmount:     r.TotalAmount.String(),
		PaidAmount:      r.PaidAmount.String(),
		SpecialRequests: r.SpecialRequests,
		Source:          string(r.Source),
		CheckInNotes:    r.CheckInNotes,
		CheckOutNotes:   r.CheckOutNotes,
		CancelReason:    r.CancelReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
		Version:         r.Version,
	}
	if r.ActualCheckInAt != nil {
		dto.ActualCheckInAt = r.ActualCheckInAt.Format(time.RFC3339)
	}
	if r.ActualCheckOutAt != nil {
		dto.ActualCheckOutAt = r.ActualCheckOutAt.Format(time.RFC3339)
	}
	if r.CancelledAt != nil {
		dto.CancelledAt = r.CancelledAt.Format(time.RFC3339)
	}
	return dto
}

func toReservationDTOs(rs []booking.Reservation) []ReservationDTO {
	dtos := make([]ReservationDTO, len(rs))
	for i := range rs {
		dtos[i] = toReservationDTO(&rs[i])
	}
	return dtos
}

func toPaymentDTO(p *booking.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            string(p.ID),
		Number:        p.Number,
		ReservationID: string(p.ReservationID),
		Amount:        p.Amount.String(),
		Method:        string(p.Method),
		Status:        string(p.Status),
		RefundOf:      string(p.RefundOf),
		Reference:     p.Reference,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

func toRoomDTO(room *booking.Room) RoomDTO {
	return RoomDTO{
		ID:        string(room.ID),
		Number:    room.Number,
		Type:      room.Type,
		BasePrice: room.BasePrice.String(),
		Status:    string(room.Status),
	}
}
