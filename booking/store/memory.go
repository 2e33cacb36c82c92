// Package store provides an in-memory booking.TxStore for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/sysora/booking-engine/booking"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory holds everything in maps behind one mutex. WithTx simulates a
// transaction with a snapshot + rollback on error, which is plenty for unit
// tests and the demo server.
type Memory struct {
	mu           sync.RWMutex
	reservations map[booking.ReservationID]booking.Reservation
	payments     []booking.Payment
	rooms        map[booking.RoomID]booking.Room
}

func NewMemory() *Memory {
	return &Memory{
		reservations: make(map[booking.ReservationID]booking.Reservation),
		rooms:        make(map[booking.RoomID]booking.Room),
	}
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (m *Memory) CreateReservation(_ context.Context, r *booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createReservationLocked(r)
}

func (m *Memory) createReservationLocked(r *booking.Reservation) error {
	if r.Version == 0 {
		r.Version = 1
	}
	m.reservations[r.ID] = copyReservation(*r)
	return nil
}

func (m *Memory) GetReservation(_ context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getReservationLocked(id)
}

func (m *Memory) getReservationLocked(id booking.ReservationID) (*booking.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, &booking.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	out := copyReservation(r)
	return &out, nil
}

func (m *Memory) UpdateReservation(_ context.Context, r *booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateReservationLocked(r)
}

func (m *Memory) updateReservationLocked(r *booking.Reservation) error {
	stored, ok := m.reservations[r.ID]
	if !ok {
		return &booking.NotFoundError{Kind: "reservation", ID: string(r.ID)}
	}
	if stored.Version != r.Version {
		return booking.ErrVersionMismatch
	}
	r.Version++
	m.reservations[r.ID] = copyReservation(*r)
	return nil
}

func (m *Memory) ListReservations(_ context.Context) ([]booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listReservationsLocked()
}

func (m *Memory) listReservationsLocked() ([]booking.Reservation, error) {
	out := make([]booking.Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		out = append(out, copyReservation(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) ListBlockingByRoom(_ context.Context, roomID booking.RoomID) ([]booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBlockingByRoomLocked(roomID)
}

func (m *Memory) listBlockingByRoomLocked(roomID booking.RoomID) ([]booking.Reservation, error) {
	var out []booking.Reservation
	for _, r := range m.reservations {
		if r.RoomID == roomID && r.Status.Blocking() {
			out = append(out, copyReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListOverdueConfirmed(_ context.Context, asOf booking.Date) ([]booking.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listOverdueConfirmedLocked(asOf)
}

func (m *Memory) listOverdueConfirmedLocked(asOf booking.Date) ([]booking.Reservation, error) {
	var out []booking.Reservation
	for _, r := range m.reservations {
		if r.Status == booking.StatusConfirmed && !asOf.Before(r.Stay.CheckIn) {
			out = append(out, copyReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// PAYMENTS - append-only slice
// =============================================================================

func (m *Memory) AppendPayment(_ context.Context, p *booking.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendPaymentLocked(p)
}

func (m *Memory) appendPaymentLocked(p *booking.Payment) error {
	m.payments = append(m.payments, *p)
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id booking.PaymentID) (*booking.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPaymentLocked(id)
}

func (m *Memory) getPaymentLocked(id booking.PaymentID) (*booking.Payment, error) {
	for i := range m.payments {
		if m.payments[i].ID == id {
			p := m.payments[i]
			return &p, nil
		}
	}
	return nil, &booking.NotFoundError{Kind: "payment", ID: string(id)}
}

func (m *Memory) PaymentsByReservation(_ context.Context, id booking.ReservationID) ([]booking.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paymentsByReservationLocked(id)
}

func (m *Memory) paymentsByReservationLocked(id booking.ReservationID) ([]booking.Payment, error) {
	var out []booking.Payment
	for _, p := range m.payments {
		if p.ReservationID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) SettlePayment(_ context.Context, id booking.PaymentID, status booking.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settlePaymentLocked(id, status)
}

func (m *Memory) settlePaymentLocked(id booking.PaymentID, status booking.PaymentStatus) error {
	for i := range m.payments {
		if m.payments[i].ID == id {
			if m.payments[i].Status != booking.PaymentPending {
				return booking.ErrLedgerImmutable
			}
			if status != booking.PaymentCompleted && status != booking.PaymentFailed {
				return booking.ErrLedgerImmutable
			}
			m.payments[i].Status = status
			return nil
		}
	}
	return &booking.NotFoundError{Kind: "payment", ID: string(id)}
}

// =============================================================================
// ROOMS
// =============================================================================

func (m *Memory) SaveRoom(_ context.Context, room *booking.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRoomLocked(room)
}

func (m *Memory) saveRoomLocked(room *booking.Room) error {
	m.rooms[room.ID] = *room
	return nil
}

func (m *Memory) GetRoom(_ context.Context, id booking.RoomID) (*booking.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRoomLocked(id)
}

func (m *Memory) getRoomLocked(id booking.RoomID) (*booking.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, &booking.NotFoundError{Kind: "room", ID: string(id)}
	}
	out := room
	return &out, nil
}

func (m *Memory) ListRooms(_ context.Context) ([]booking.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRoomsLocked()
}

func (m *Memory) listRoomsLocked() ([]booking.Room, error) {
	out := make([]booking.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) SetRoomStatus(_ context.Context, id booking.RoomID, status booking.RoomStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setRoomStatusLocked(id, status)
}

func (m *Memory) setRoomStatusLocked(id booking.RoomID, status booking.RoomStatus) error {
	room, ok := m.rooms[id]
	if !ok {
		return &booking.NotFoundError{Kind: "room", ID: string(id)}
	}
	room.Status = status
	m.rooms[id] = room
	return nil
}

// =============================================================================
// TRANSACTIONS - snapshot + rollback
// =============================================================================

// WithTx executes fn against a view of the store while holding the write
// lock. On error the pre-transaction snapshot is restored, so a failed fn
// leaves no partial writes.
func (m *Memory) WithTx(_ context.Context, fn func(booking.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	reservations map[booking.ReservationID]booking.Reservation
	payments     []booking.Payment
	rooms        map[booking.RoomID]booking.Room
}

func (m *Memory) snapshot() memorySnapshot {
	res := make(map[booking.ReservationID]booking.Reservation, len(m.reservations))
	for k, v := range m.reservations {
		res[k] = copyReservation(v)
	}
	pay := append([]booking.Payment(nil), m.payments...)
	rooms := make(map[booking.RoomID]booking.Room, len(m.rooms))
	for k, v := range m.rooms {
		rooms[k] = v
	}
	return memorySnapshot{reservations: res, payments: pay, rooms: rooms}
}

func (m *Memory) restore(s memorySnapshot) {
	m.reservations = s.reservations
	m.payments = s.payments
	m.rooms = s.rooms
}

// txView routes Store calls to the parent's unlocked helpers; the lock is
// already held by WithTx.
type txView struct {
	parent *Memory
}

func (tv *txView) CreateReservation(_ context.Context, r *booking.Reservation) error {
	return tv.parent.createReservationLocked(r)
}

func (tv *txView) GetReservation(_ context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	return tv.parent.getReservationLocked(id)
}

func (tv *txView) UpdateReservation(_ context.Context, r *booking.Reservation) error {
	return tv.parent.updateReservationLocked(r)
}

func (tv *txView) ListReservations(_ context.Context) ([]booking.Reservation, error) {
	return tv.parent.listReservationsLocked()
}

func (tv *txView) ListBlockingByRoom(_ context.Context, roomID booking.RoomID) ([]booking.Reservation, error) {
	return tv.parent.listBlockingByRoomLocked(roomID)
}

func (tv *txView) ListOverdueConfirmed(_ context.Context, asOf booking.Date) ([]booking.Reservation, error) {
	return tv.parent.listOverdueConfirmedLocked(asOf)
}

func (tv *txView) AppendPayment(_ context.Context, p *booking.Payment) error {
	return tv.parent.appendPaymentLocked(p)
}

func (tv *txView) GetPayment(_ context.Context, id booking.PaymentID) (*booking.Payment, error) {
	return tv.parent.getPaymentLocked(id)
}

func (tv *txView) PaymentsByReservation(_ context.Context, id booking.ReservationID) ([]booking.Payment, error) {
	return tv.parent.paymentsByReservationLocked(id)
}

func (tv *txView) SettlePayment(_ context.Context, id booking.PaymentID, status booking.PaymentStatus) error {
	return tv.parent.settlePaymentLocked(id, status)
}

func (tv *txView) SaveRoom(_ context.Context, room *booking.Room) error {
	return tv.parent.saveRoomLocked(room)
}

func (tv *txView) GetRoom(_ context.Context, id booking.RoomID) (*booking.Room, error) {
	return tv.parent.getRoomLocked(id)
}

func (tv *txView) ListRooms(_ context.Context) ([]booking.Room, error) {
	return tv.parent.listRoomsLocked()
}

func (tv *txView) SetRoomStatus(_ context.Context, id booking.RoomID, status booking.RoomStatus) error {
	return tv.parent.setRoomStatusLocked(id, status)
}

func copyReservation(r booking.Reservation) booking.Reservation {
	out := r
	out.SpecialRequests = append([]string(nil), r.SpecialRequests...)
	if r.ActualCheckInAt != nil {
		t := *r.ActualCheckInAt
		out.ActualCheckInAt = &t
	}
	if r.ActualCheckOutAt != nil {
		t := *r.ActualCheckOutAt
		out.ActualCheckOutAt = &t
	}
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		out.CancelledAt = &t
	}
	return out
}
