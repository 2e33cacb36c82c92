/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Reservation lifecycle over HTTP (create, edit, check-in, check-out)
- Error taxonomy to HTTP status mapping (400/404/409)
- Payment and refund endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysora/booking-engine/booking"
	"github.com/sysora/booking-engine/booking/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()

	h := NewHandler(store.NewMemory())
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, h
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedTestRoom(t *testing.T, h *Handler, number string, price int64) {
	t.Helper()
	err := h.Store.SaveRoom(context.Background(), &booking.Room{
		ID:        booking.RoomID(number),
		Number:    number,
		Type:      "standard",
		BasePrice: decimal.NewFromInt(price),
		Status:    booking.RoomAvailable,
	})
	require.NoError(t, err)
}

func futureDate(days int) string {
	return booking.DateOf(time.Now().UTC()).AddDays(days).String()
}

func createTestReservation(t *testing.T, srv *httptest.Server, room string, inDays, outDays int) ReservationDTO {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reservations", CreateReservationRequest{
		RoomID:   room,
		GuestID:  "guest-1",
		CheckIn:  futureDate(inDays),
		CheckOut: futureDate(outDays),
		Adults:   2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[ReservationDTO](t, resp)
}

// =============================================================================
// RESERVATION ENDPOINTS
// =============================================================================

func TestAPI_CreateReservation(t *testing.T) {
	// GIVEN: Room 101 at 5000/night
	// WHEN: POSTing a 2-night booking
	// THEN: 201 with priced, versioned, confirmed reservation

	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)

	dto := createTestReservation(t, srv, "101", 10, 12)

	assert.Equal(t, "confirmed", dto.Status)
	assert.Equal(t, "11000", dto.TotalAmount)
	assert.Equal(t, 2, dto.Nights)
	assert.Equal(t, int64(1), dto.Version)
	assert.NotEmpty(t, dto.Number)
}

func TestAPI_CreateReservation_DoubleBooking_409(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)

	createTestReservation(t, srv, "101", 10, 12)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reservations", CreateReservationRequest{
		RoomID: "101", GuestID: "guest-2",
		CheckIn: futureDate(11), CheckOut: futureDate(13), Adults: 1,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_CreateReservation_BadDates_400(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reservations", CreateReservationRequest{
		RoomID: "101", GuestID: "guest-1",
		CheckIn: "03/10/2026", CheckOut: futureDate(12), Adults: 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errBody := decode[ErrorResponse](t, resp)
	assert.NotEmpty(t, errBody.Error)
}

func TestAPI_GetReservation_Missing_404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/reservations/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_EditReservation_VersionedFlow(t *testing.T) {
	// Preview, then commit with the read version; a stale re-commit gets 409.

	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	dto := createTestReservation(t, srv, "101", 10, 12)

	newOut := futureDate(13)

	// Preview shows the delta without applying it
	preview := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/edit/preview", srv.URL, dto.ID),
		EditReservationRequest{CheckOut: &newOut})
	require.Equal(t, http.StatusOK, preview.StatusCode)

	previewBody := decode[EditPreviewDTO](t, preview)
	assert.Equal(t, "16500", previewBody.NewTotal)
	assert.Equal(t, "5500", previewBody.Difference)

	// Commit
	commit := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/reservations/%s", srv.URL, dto.ID),
		EditReservationRequest{Version: dto.Version, CheckOut: &newOut})
	require.Equal(t, http.StatusOK, commit.StatusCode)

	updated := decode[ReservationDTO](t, commit)
	assert.Equal(t, "16500", updated.TotalAmount)
	assert.Equal(t, int64(2), updated.Version)

	// Replay with the stale version
	stale := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/reservations/%s", srv.URL, dto.ID),
		EditReservationRequest{Version: dto.Version, CheckOut: &newOut})
	assert.Equal(t, http.StatusConflict, stale.StatusCode)
}

func TestAPI_CheckInCheckOut_FullStay(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	dto := createTestReservation(t, srv, "101", 0, 2)

	// Check in with a deposit
	checkin := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/check-in", srv.URL, dto.ID),
		CheckInRequest{
			IdentityVerified: true,
			KeyCardsIssued:   1,
			Deposit:          &DepositRequest{Amount: "2000", Method: "cash"},
		})
	require.Equal(t, http.StatusOK, checkin.StatusCode)

	checkedIn := decode[ReservationDTO](t, checkin)
	assert.Equal(t, "checked_in", checkedIn.Status)
	assert.Equal(t, "2000", checkedIn.PaidAmount)

	// Pay the rest
	pay := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/payments", srv.URL, dto.ID),
		RecordPaymentRequest{Amount: "9000", Method: "credit_card"})
	require.Equal(t, http.StatusCreated, pay.StatusCode)

	// Check out with incidentals
	checkout := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/check-out", srv.URL, dto.ID),
		CheckOutRequest{Minibar: "500", LateCheckoutFee: "200"})
	require.Equal(t, http.StatusOK, checkout.StatusCode)

	bill := decode[CheckOutResponse](t, checkout)
	assert.Equal(t, "checked_out", bill.Reservation.Status)
	assert.Equal(t, "700", bill.IncidentalTotal)
	assert.Equal(t, "11700", bill.FinalAmount)
	assert.Equal(t, "700", bill.BalanceDue)
	assert.Equal(t, "0", bill.RefundAmount)
}

func TestAPI_CheckIn_WithoutIdentity_400(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	dto := createTestReservation(t, srv, "101", 0, 2)

	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/check-in", srv.URL, dto.ID),
		CheckInRequest{KeyCardsIssued: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Cancel_ThenCancelAgain_409(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	dto := createTestReservation(t, srv, "101", 10, 12)

	first := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/cancel", srv.URL, dto.ID),
		CancelRequest{Reason: "guest request"})
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/cancel", srv.URL, dto.ID),
		CancelRequest{Reason: "again"})
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

// =============================================================================
// BILLING ENDPOINTS
// =============================================================================

func TestAPI_PaymentsAndBalance(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	dto := createTestReservation(t, srv, "101", 10, 12)

	pay := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/payments", srv.URL, dto.ID),
		RecordPaymentRequest{Amount: "4000", Method: "cash"})
	require.Equal(t, http.StatusCreated, pay.StatusCode)

	balance := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/reservations/%s/balance", srv.URL, dto.ID), nil)
	require.Equal(t, http.StatusOK, balance.StatusCode)

	b := decode[BalanceDTO](t, balance)
	assert.Equal(t, "4000", b.PaidAmount)
	assert.Equal(t, "7000", b.BalanceDue)
	assert.Equal(t, "0", b.Overpayment)
}

func TestAPI_BankTransfer_ConfirmFlow(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	dto := createTestReservation(t, srv, "101", 10, 12)

	pay := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/payments", srv.URL, dto.ID),
		RecordPaymentRequest{Amount: "11000", Method: "bank_transfer", Reference: "TRX-1"})
	require.Equal(t, http.StatusCreated, pay.StatusCode)

	payment := decode[PaymentDTO](t, pay)
	assert.Equal(t, "pending", payment.Status)

	confirm := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/payments/%s/confirm", srv.URL, payment.ID), nil)
	require.Equal(t, http.StatusOK, confirm.StatusCode)
	assert.Equal(t, "completed", decode[PaymentDTO](t, confirm).Status)

	// A second confirm hits the immutability guard
	again := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/payments/%s/confirm", srv.URL, payment.ID), nil)
	assert.Equal(t, http.StatusConflict, again.StatusCode)
}

func TestAPI_Refund(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	dto := createTestReservation(t, srv, "101", 10, 12)

	pay := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/reservations/%s/payments", srv.URL, dto.ID),
		RecordPaymentRequest{Amount: "5000", Method: "cash"})
	payment := decode[PaymentDTO](t, pay)

	refund := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/payments/%s/refund", srv.URL, payment.ID),
		RefundRequest{Amount: "2000"})
	require.Equal(t, http.StatusCreated, refund.StatusCode)

	r := decode[PaymentDTO](t, refund)
	assert.Equal(t, "-2000", r.Amount)
	assert.Equal(t, payment.ID, r.RefundOf)

	// Over-refunding the remainder is a validation error
	over := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/payments/%s/refund", srv.URL, payment.ID),
		RefundRequest{Amount: "4000"})
	assert.Equal(t, http.StatusBadRequest, over.StatusCode)
}

// =============================================================================
// ROOM AND QUOTE ENDPOINTS
// =============================================================================

func TestAPI_RoomAvailability(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)
	createTestReservation(t, srv, "101", 10, 12)

	busy := doJSON(t, http.MethodGet, fmt.Sprintf(
		"%s/api/rooms/101/availability?check_in=%s&check_out=%s",
		srv.URL, futureDate(11), futureDate(13)), nil)
	require.Equal(t, http.StatusOK, busy.StatusCode)

	a := decode[AvailabilityDTO](t, busy)
	assert.False(t, a.Available)
	assert.Len(t, a.Conflicts, 1)

	free := doJSON(t, http.MethodGet, fmt.Sprintf(
		"%s/api/rooms/101/availability?check_in=%s&check_out=%s",
		srv.URL, futureDate(12), futureDate(14)), nil)
	require.Equal(t, http.StatusOK, free.StatusCode)
	assert.True(t, decode[AvailabilityDTO](t, free).Available)
}

func TestAPI_Quote(t *testing.T) {
	srv, h := newTestServer(t)
	seedTestRoom(t, h, "101", 5000)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/quotes", QuoteRequest{
		RoomID: "101", CheckIn: futureDate(10), CheckOut: futureDate(12),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	q := decode[QuoteDTO](t, resp)
	assert.Equal(t, 2, q.Nights)
	assert.Equal(t, "10000", q.BaseAmount)
	assert.Equal(t, "1000", q.TaxAmount)
	assert.Equal(t, "11000", q.TotalAmount)
}

func TestAPI_CreateRoom_AndList(t *testing.T) {
	srv, _ := newTestServer(t)

	created := doJSON(t, http.MethodPost, srv.URL+"/api/rooms", CreateRoomRequest{
		Number: "305", Type: "suite", BasePrice: "9000",
	})
	require.Equal(t, http.StatusCreated, created.StatusCode)

	list := doJSON(t, http.MethodGet, srv.URL+"/api/rooms", nil)
	require.Equal(t, http.StatusOK, list.StatusCode)

	rooms := decode[[]RoomDTO](t, list)
	require.Len(t, rooms, 1)
	assert.Equal(t, "305", rooms[0].Number)
	assert.Equal(t, "available", rooms[0].Status)
}
