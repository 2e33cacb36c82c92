/*
handlers.go - HTTP API handlers for the front-desk booking engine

PURPOSE:
  Exposes the reservation and billing engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Rooms:
    GET    /api/rooms                       List all rooms
    POST   /api/rooms                       Create/update room
    GET    /api/rooms/{id}                  Get room
    PUT    /api/rooms/{id}/status           Change housekeeping status
    GET    /api/rooms/{id}/availability     Availability for a date range

  Reservations:
    GET    /api/reservations                List reservations
    POST   /api/reservations                Create reservation
    GET    /api/reservations/{id}           Get reservation
    PUT    /api/reservations/{id}           Edit (versioned, confirmed only)
    POST   /api/reservations/{id}/edit/preview  Price preview of an edit
    POST   /api/reservations/{id}/check-in  Check in
    POST   /api/reservations/{id}/check-out Settle bill and check out
    POST   /api/reservations/{id}/cancel    Cancel with reason
    POST   /api/reservations/{id}/no-show   Mark no-show
    GET    /api/reservations/{id}/balance   Derived billing position
    GET    /api/reservations/{id}/payments  Ledger entries
    POST   /api/reservations/{id}/payments  Record a payment

  Payments:
    GET    /api/payments/{id}               Get ledger entry
    POST   /api/payments/{id}/refund        Refund a completed payment
    POST   /api/payments/{id}/confirm       Settle pending -> completed
    POST   /api/payments/{id}/fail          Settle pending -> failed

  Quotes:
    POST   /api/quotes                      Price a prospective stay

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (reads)
  - Desk:  All state-changing reservation operations

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (desk, ledger, conflict detector)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (double booking, stale version, invalid transition)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sysora/booking-engine/booking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store booking.TxStore
	Desk  *booking.Desk

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store booking.TxStore) *Handler {
	return &Handler{
		Store: store,
		Desk:  booking.NewDesk(store),
	}
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// ListRooms returns all rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.ListRooms(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]RoomDTO, len(rooms))
	for i := range rooms {
		dtos[i] = toRoomDTO(&rooms[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRoom creates (or updates) a room.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Number == "" {
		writeError(w, http.StatusBadRequest, "Room number is required", nil)
		return
	}

	price, err := parseMoney("base_price", req.BasePrice)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	room := booking.Room{
		ID:        booking.RoomID(req.ID),
		Number:    req.Number,
		Type:      req.Type,
		BasePrice: price,
		Status:    booking.RoomStatus(req.Status),
	}
	if room.ID == "" {
		room.ID = booking.RoomID(req.Number)
	}

	if err := h.Store.SaveRoom(r.Context(), &room); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(&room))
}

// GetRoom returns a single room.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Store.GetRoom(r.Context(), booking.RoomID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

// SetRoomStatus changes a room's housekeeping status.
func (h *Handler) SetRoomStatus(w http.ResponseWriter, r *http.Request) {
	var req RoomStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := booking.RoomID(chi.URLParam(r, "id"))
	if err := h.Store.SetRoomStatus(r.Context(), id, booking.RoomStatus(req.Status)); err != nil {
		writeDomainError(w, err)
		return
	}

	room, err := h.Store.GetRoom(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

// GetRoomAvailability reports whether a room is free for a date range.
// Query params: check_in, check_out (YYYY-MM-DD).
func (h *Handler) GetRoomAvailability(w http.ResponseWriter, r *http.Request) {
	roomID := booking.RoomID(chi.URLParam(r, "id"))

	stay, err := parseStay(r.URL.Query().Get("check_in"), r.URL.Query().Get("check_out"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	conflicts, err := h.Desk.Conflicts(r.Context(), roomID, stay, "")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityDTO{
		RoomID:    string(roomID),
		CheckIn:   stay.CheckIn.String(),
		CheckOut:  stay.CheckOut.String(),
		Available: len(conflicts) == 0,
		Conflicts: toReservationDTOs(conflicts),
	})
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

// ListReservations returns all reservations, optionally filtered by
// ?status= and ?room_id=.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.Store.ListReservations(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := r.URL.Query().Get("status")
	roomID := r.URL.Query().Get("room_id")

	filtered := reservations[:0]
	for _, res := range reservations {
		if status != "" && string(res.Status) != status {
			continue
		}
		if roomID != "" && string(res.RoomID) != roomID {
			continue
		}
		filtered = append(filtered, res)
	}

	writeJSON(w, http.StatusOK, toReservationDTOs(filtered))
}

// CreateReservation books a room for a date range. Returns 409 if the room
// is already taken for any overlapping stay.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := h.Desk.CreateReservation(r.Context(), booking.CreateReservationInput{
		RoomID:          booking.RoomID(req.RoomID),
		GuestID:         booking.GuestID(req.GuestID),
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		Adults:          req.Adults,
		Children:        req.Children,
		Source:          booking.Source(req.Source),
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(res))
}

// GetReservation returns a single reservation.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.GetReservation(r.Context(), booking.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// PreviewEdit prices a prospective edit without applying it. The client
// shows the price difference and then confirms with PUT.
func (h *Handler) PreviewEdit(w http.ResponseWriter, r *http.Request) {
	var req EditReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch, err := toEditPatch(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	preview, err := h.Desk.PreviewEdit(r.Context(), booking.ReservationID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EditPreviewDTO{
		OriginalTotal: preview.Price.OriginalTotal.String(),
		NewTotal:      preview.Price.NewTotal.String(),
		Difference:    preview.Price.Difference.String(),
		Nights:        preview.Price.Nights,
		Conflicts:     toReservationDTOs(preview.Conflicts),
	})
}

// EditReservation applies a confirmed edit. The request must carry the
// version the client last read; a stale version returns 409.
func (h *Handler) EditReservation(w http.ResponseWriter, r *http.Request) {
	var req EditReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Version < 1 {
		writeError(w, http.StatusBadRequest, "Version is required", nil)
		return
	}

	patch, err := toEditPatch(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := h.Desk.EditReservation(r.Context(),
		booking.ReservationID(chi.URLParam(r, "id")), req.Version, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// CheckInReservation checks a guest in.
func (h *Handler) CheckInReservation(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	details := booking.CheckInDetails{
		IdentityVerified: req.IdentityVerified,
		KeyCardsIssued:   req.KeyCardsIssued,
		Notes:            req.Notes,
	}
	if req.ActualCheckInAt != "" {
		t, err := parseTimestamp("actual_check_in_at", req.ActualCheckInAt)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		details.ActualCheckInAt = t
	}
	if req.Deposit != nil {
		amount, err := parseMoney("deposit.amount", req.Deposit.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		details.Deposit = &booking.Deposit{
			Amount:    amount,
			Method:    booking.PaymentMethod(req.Deposit.Method),
			Reference: req.Deposit.Reference,
		}
	}

	res, err := h.Desk.CheckIn(r.Context(), booking.ReservationID(chi.URLParam(r, "id")), details)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// CheckOutReservation settles the bill and checks the guest out.
func (h *Handler) CheckOutReservation(w http.ResponseWriter, r *http.Request) {
	var req CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	charges, err := toCheckoutCharges(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.Desk.CheckOut(r.Context(),
		booking.ReservationID(chi.URLParam(r, "id")), charges, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CheckOutResponse{
		Reservation:     toReservationDTO(result.Reservation),
		IncidentalTotal: result.IncidentalTotal.String(),
		FinalAmount:     result.FinalAmount.String(),
		BalanceDue:      result.BalanceDue.String(),
		RefundAmount:    result.RefundAmount.String(),
	})
}

// CancelReservation cancels a reservation. A reason is required.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := h.Desk.Cancel(r.Context(), booking.ReservationID(chi.URLParam(r, "id")), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// MarkNoShow flags a confirmed reservation whose guest never arrived.
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	res, err := h.Desk.MarkNoShow(r.Context(), booking.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

// =============================================================================
// BILLING HANDLERS
// =============================================================================

// GetBalance returns the derived billing position of a reservation.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := booking.ReservationID(chi.URLParam(r, "id"))

	res, err := h.Store.GetReservation(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	summary, err := h.Desk.Balance(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		TotalAmount: res.TotalAmount.String(),
		PaidAmount:  summary.PaidAmount.String(),
		BalanceDue:  summary.BalanceDue.String(),
		Overpayment: summary.Overpayment.String(),
	})
}

// ListPayments returns the ledger entries for a reservation, oldest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.PaymentsByReservation(r.Context(),
		booking.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i := range payments {
		dtos[i] = toPaymentDTO(&payments[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordPayment appends a payment to a reservation's ledger.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payment, err := h.Desk.RecordPayment(r.Context(),
		booking.ReservationID(chi.URLParam(r, "id")),
		amount, booking.PaymentMethod(req.Method), req.Reference, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(payment))
}

// GetPayment returns a single ledger entry.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.Store.GetPayment(r.Context(), booking.PaymentID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(payment))
}

// RefundPayment appends a refund entry against a completed payment.
func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	refund, err := h.Desk.RecordRefund(r.Context(), booking.PaymentID(chi.URLParam(r, "id")), amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(refund))
}

// ConfirmPayment settles a pending payment as completed.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.settlePayment(w, r, booking.PaymentCompleted)
}

// FailPayment settles a pending payment as failed.
func (h *Handler) FailPayment(w http.ResponseWriter, r *http.Request) {
	h.settlePayment(w, r, booking.PaymentFailed)
}

func (h *Handler) settlePayment(w http.ResponseWriter, r *http.Request, status booking.PaymentStatus) {
	id := booking.PaymentID(chi.URLParam(r, "id"))

	if err := h.Desk.SettlePendingPayment(r.Context(), id, status); err != nil {
		writeDomainError(w, err)
		return
	}
	payment, err := h.Store.GetPayment(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(payment))
}

// =============================================================================
// QUOTE HANDLER
// =============================================================================

// CreateQuote prices a prospective stay without creating anything.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	room, err := h.Store.GetRoom(r.Context(), booking.RoomID(req.RoomID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	quote, err := h.Desk.Pricing.Quote(room.BasePrice, stay)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QuoteDTO{
		Nights:      quote.Nights,
		RoomRate:    quote.RoomRate.String(),
		BaseAmount:  quote.BaseAmount.String(),
		TaxAmount:   quote.TaxAmount.String(),
		TotalAmount: quote.TotalAmount.String(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case booking.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case booking.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case booking.IsStateError(err):
		writeError(w, http.StatusConflict, "Invalid state transition", err)
	case booking.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, booking.ErrLedgerImmutable):
		writeError(w, http.StatusConflict, "Ledger entry is immutable", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, &booking.ValidationError{Field: field, Message: "amount is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &booking.ValidationError{Field: field, Message: "invalid decimal amount"}
	}
	return d, nil
}

// parseOptionalMoney treats empty strings as zero (unset charge fields).
func parseOptionalMoney(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseMoney(field, s)
}

func parseStay(checkIn, checkOut string) (booking.StayRange, error) {
	in, err := booking.ParseDate(checkIn)
	if err != nil {
		return booking.StayRange{}, &booking.ValidationError{Field: "check_in", Message: "invalid date, use YYYY-MM-DD"}
	}
	out, err := booking.ParseDate(checkOut)
	if err != nil {
		return booking.StayRange{}, &booking.ValidationError{Field: "check_out", Message: "invalid date, use YYYY-MM-DD"}
	}
	return booking.NewStayRange(in, out), nil
}

func parseTimestamp(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &booking.ValidationError{Field: field, Message: "invalid timestamp, use RFC3339"}
	}
	return t, nil
}

func toEditPatch(req EditReservationRequest) (booking.EditPatch, error) {
	var patch booking.EditPatch
	if req.CheckIn != nil {
		d, err := booking.ParseDate(*req.CheckIn)
		if err != nil {
			return patch, &booking.ValidationError{Field: "check_in", Message: "invalid date, use YYYY-MM-DD"}
		}
		patch.CheckIn = &d
	}
	if req.CheckOut != nil {
		d, err := booking.ParseDate(*req.CheckOut)
		if err != nil {
			return patch, &booking.ValidationError{Field: "check_out", Message: "invalid date, use YYYY-MM-DD"}
		}
		patch.CheckOut = &d
	}
	if req.RoomID != nil {
		id := booking.RoomID(*req.RoomID)
		patch.RoomID = &id
	}
	patch.Adults = req.Adults
	patch.Children = req.Children
	patch.SpecialRequests = req.SpecialRequests
	return patch, nil
}

func toCheckoutCharges(req CheckOutRequest) (booking.CheckoutCharges, error) {
	var (
		charges booking.CheckoutCharges
		err     error
	)
	if charges.Minibar, err = parseOptionalMoney("minibar_charges", req.Minibar); err != nil {
		return charges, err
	}
	if charges.Phone, err = parseOptionalMoney("phone_charges", req.Phone); err != nil {
		return charges, err
	}
	if charges.Laundry, err = parseOptionalMoney("laundry_charges", req.Laundry); err != nil {
		return charges, err
	}
	if charges.Damage, err = parseOptionalMoney("damage_charges", req.Damage); err != nil {
		return charges, err
	}
	if charges.LateCheckoutFee, err = parseOptionalMoney("late_checkout_fee", req.LateCheckoutFee); err != nil {
		return charges, err
	}
	for _, c := range req.Custom {
		amount, err := parseMoney("additional_charges.amount", c.Amount)
		if err != nil {
			return charges, err
		}
		charges.Custom = append(charges.Custom, booking.CustomCharge{
			Description: c.Description,
			Amount:      amount,
		})
	}
	return charges, nil
}
