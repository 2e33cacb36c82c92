/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates rooms, reservations,
	and ledger entries that demonstrate specific features.

AVAILABLE SCENARIOS:

	quiet-week:   A few rooms with upcoming confirmed reservations
	arrival-day:  A guest arriving today plus one already checked in
	billing-demo: Partial payments, a pending bank transfer, and a deposit

HOW SCENARIOS WORK:
 1. Create rooms
 2. Book reservations through the desk (so pricing and conflict
    detection run exactly as they would for real requests)
 3. Optionally check guests in and record payments

DATES:

	All stays are relative to today so the demo stays meaningful no matter
	when it is loaded.

NOTE:

	Scenarios seed on top of the current database. Point the server at a
	fresh database file for a clean demo.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "arrival-day"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

SEE ALSO:
  - handlers.go: Handler dependencies
  - booking/lifecycle.go: Desk operations used by loaders
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sysora/booking-engine/booking"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "quiet-week",
		Name:        "Quiet Week",
		Description: "Five rooms with a couple of upcoming confirmed reservations",
	},
	{
		ID:          "arrival-day",
		Name:        "Arrival Day",
		Description: "A guest arriving today and another already checked in",
	},
	{
		ID:          "billing-demo",
		Name:        "Billing Demo",
		Description: "Partial payment, pending bank transfer, and a check-in deposit",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario seeds the database with the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error

	switch req.ScenarioID {
	case "quiet-week":
		err = loadQuietWeekScenario(ctx, h)
	case "arrival-day":
		err = loadArrivalDayScenario(ctx, h)
	case "billing-demo":
		err = loadBillingDemoScenario(ctx, h)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type seedRoom struct {
	number string
	typ    string
	price  string
}

func seedRooms(ctx context.Context, h *Handler, rooms []seedRoom) error {
	for _, sr := range rooms {
		price, err := decimal.NewFromString(sr.price)
		if err != nil {
			return err
		}
		room := booking.Room{
			ID:        booking.RoomID(sr.number),
			Number:    sr.number,
			Type:      sr.typ,
			BasePrice: price,
			Status:    booking.RoomAvailable,
		}
		if err := h.Store.SaveRoom(ctx, &room); err != nil {
			return err
		}
	}
	return nil
}

func today() booking.Date {
	return booking.DateOf(time.Now().UTC())
}

// loadQuietWeekScenario: rooms plus two upcoming confirmed stays.
func loadQuietWeekScenario(ctx context.Context, h *Handler) error {
	err := seedRooms(ctx, h, []seedRoom{
		{"101", "standard", "4000"},
		{"102", "standard", "4000"},
		{"103", "standard", "4500"},
		{"201", "deluxe", "5000"},
		{"202", "suite", "9000"},
	})
	if err != nil {
		return err
	}

	_, err = h.Desk.CreateReservation(ctx, booking.CreateReservationInput{
		RoomID:   "201",
		GuestID:  "guest-amelia",
		CheckIn:  today().AddDays(2),
		CheckOut: today().AddDays(4),
		Adults:   2,
		Source:   booking.SourceDirect,
	})
	if err != nil {
		return err
	}

	_, err = h.Desk.CreateReservation(ctx, booking.CreateReservationInput{
		RoomID:          "202",
		GuestID:         "guest-bashir",
		CheckIn:         today().AddDays(3),
		CheckOut:        today().AddDays(8),
		Adults:          2,
		Children:        1,
		Source:          booking.SourceBookingCom,
		SpecialRequests: []string{"extra bed", "late arrival"},
	})
	return err
}

// loadArrivalDayScenario: one confirmed arrival for today, one guest
// already in house.
func loadArrivalDayScenario(ctx context.Context, h *Handler) error {
	err := seedRooms(ctx, h, []seedRoom{
		{"301", "standard", "4200"},
		{"302", "deluxe", "5500"},
	})
	if err != nil {
		return err
	}

	// Arriving today, ready for check-in.
	_, err = h.Desk.CreateReservation(ctx, booking.CreateReservationInput{
		RoomID:   "301",
		GuestID:  "guest-chika",
		CheckIn:  today(),
		CheckOut: today().AddDays(3),
		Adults:   1,
		Source:   booking.SourcePhone,
	})
	if err != nil {
		return err
	}

	// Arrived yesterday, already checked in.
	inHouse, err := h.Desk.CreateReservation(ctx, booking.CreateReservationInput{
		RoomID:   "302",
		GuestID:  "guest-darian",
		CheckIn:  today().AddDays(-1),
		CheckOut: today().AddDays(2),
		Adults:   2,
		Source:   booking.SourceWalkIn,
	})
	if err != nil {
		return err
	}
	_, err = h.Desk.CheckIn(ctx, inHouse.ID, booking.CheckInDetails{
		IdentityVerified: true,
		KeyCardsIssued:   2,
	})
	return err
}

// loadBillingDemoScenario: an in-house guest with a deposit, a partial
// card payment, and a pending bank transfer awaiting settlement.
func loadBillingDemoScenario(ctx context.Context, h *Handler) error {
	err := seedRooms(ctx, h, []seedRoom{
		{"401", "suite", "5000"},
	})
	if err != nil {
		return err
	}

	res, err := h.Desk.CreateReservation(ctx, booking.CreateReservationInput{
		RoomID:   "401",
		GuestID:  "guest-elena",
		CheckIn:  today().AddDays(-1),
		CheckOut: today().AddDays(1),
		Adults:   2,
		Source:   booking.SourceEmail,
	})
	if err != nil {
		return err
	}

	// Check in with a cash deposit.
	_, err = h.Desk.CheckIn(ctx, res.ID, booking.CheckInDetails{
		IdentityVerified: true,
		KeyCardsIssued:   1,
		Deposit: &booking.Deposit{
			Amount: decimal.NewFromInt(2000),
			Method: booking.MethodCash,
		},
	})
	if err != nil {
		return err
	}

	// Partial card payment.
	_, err = h.Desk.RecordPayment(ctx, res.ID,
		decimal.NewFromInt(5000), booking.MethodCreditCard, "", "partial payment at desk")
	if err != nil {
		return err
	}

	// Bank transfer stays pending until confirmed.
	_, err = h.Desk.RecordPayment(ctx, res.ID,
		decimal.NewFromInt(4000), booking.MethodBankTransfer, "TRX-2291", "wire from guest")
	return err
}
