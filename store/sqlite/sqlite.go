/*
Package sqlite provides a SQLite-backed implementation of the booking
storage interfaces.

PURPOSE:
  Implements booking.TxStore over database/sql + mattn/go-sqlite3. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The payments table is the billing ledger:
  - INSERT is the only amount-bearing write
  - the single UPDATE permitted is status, and only away from 'pending'
  - there is no DELETE; corrections are new rows

OPTIMISTIC CONCURRENCY:
  reservations carry a version column. UpdateReservation issues
  UPDATE ... WHERE id = ? AND version = ?; zero rows affected on an existing
  row means a concurrent writer got there first (ErrVersionMismatch).

KEY TABLES:
  rooms:        inventory + nightly base price
  reservations: one row per stay, versioned
  payments:     immutable ledger entries

WAL MODE:
  Opened with WAL (Write-Ahead Logging) for better read concurrency and
  crash recovery. A sync.Mutex additionally serializes writers in-process,
  mirroring SQLite's single-writer model.

USAGE:
  st, err := sqlite.New("./data/frontdesk.db")   // or ":memory:"
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  desk := booking.NewDesk(st)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - booking/store.go: Interface definitions
  - booking/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/sysora/booking-engine/booking"
)

// Store implements booking.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		base_price TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'available'
	);

	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		guest_id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		adults INTEGER NOT NULL,
		children INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		room_rate TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL DEFAULT '0',
		special_requests TEXT,
		source TEXT NOT NULL DEFAULT 'direct',
		actual_check_in_at TEXT,
		actual_check_out_at TEXT,
		check_in_notes TEXT,
		check_out_notes TEXT,
		cancel_reason TEXT,
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);

	-- Hot path: conflict detection scans a room's blocking stays.
	CREATE INDEX IF NOT EXISTS idx_reservations_room_status
		ON reservations(room_id, status);
	CREATE INDEX IF NOT EXISTS idx_reservations_status_check_in
		ON reservations(status, check_in);
	CREATE INDEX IF NOT EXISTS idx_reservations_created_at
		ON reservations(created_at DESC);

	-- Billing ledger: append-only. Status is the only mutable column, and
	-- only for pending entries (see SettlePayment).
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		reservation_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		refund_of TEXT,
		reference TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_reservation
		ON payments(reservation_id);
	CREATE INDEX IF NOT EXISTS idx_payments_refund_of
		ON payments(refund_of) WHERE refund_of IS NOT NULL;
	`
	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn inside a single SQL transaction. The in-process mutex keeps
// writers serial, matching SQLite's single-writer model.
func (s *Store) WithTx(ctx context.Context, fn func(booking.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", booking.ErrStorageTransient, err)
	}

	if err := fn(&txStore{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", booking.ErrStorageTransient, err)
	}
	return nil
}

// txStore is the transactional view handed to WithTx callbacks.
type txStore struct {
	q dbtx
}

func (t *txStore) CreateReservation(ctx context.Context, r *booking.Reservation) error {
	return createReservation(ctx, t.q, r)
}
func (t *txStore) GetReservation(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	return getReservation(ctx, t.q, id)
}
func (t *txStore) UpdateReservation(ctx context.Context, r *booking.Reservation) error {
	return updateReservation(ctx, t.q, r)
}
func (t *txStore) ListReservations(ctx context.Context) ([]booking.Reservation, error) {
	return listReservations(ctx, t.q)
}
func (t *txStore) ListBlockingByRoom(ctx context.Context, roomID booking.RoomID) ([]booking.Reservation, error) {
	return listBlockingByRoom(ctx, t.q, roomID)
}
func (t *txStore) ListOverdueConfirmed(ctx context.Context, asOf booking.Date) ([]booking.Reservation, error) {
	return listOverdueConfirmed(ctx, t.q, asOf)
}
func (t *txStore) AppendPayment(ctx context.Context, p *booking.Payment) error {
	return appendPayment(ctx, t.q, p)
}
func (t *txStore) GetPayment(ctx context.Context, id booking.PaymentID) (*booking.Payment, error) {
	return getPayment(ctx, t.q, id)
}
func (t *txStore) PaymentsByReservation(ctx context.Context, id booking.ReservationID) ([]booking.Payment, error) {
	return paymentsByReservation(ctx, t.q, id)
}
func (t *txStore) SettlePayment(ctx context.Context, id booking.PaymentID, status booking.PaymentStatus) error {
	return settlePayment(ctx, t.q, id, status)
}
func (t *txStore) SaveRoom(ctx context.Context, room *booking.Room) error {
	return saveRoom(ctx, t.q, room)
}
func (t *txStore) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	return getRoom(ctx, t.q, id)
}
func (t *txStore) ListRooms(ctx context.Context) ([]booking.Room, error) {
	return listRooms(ctx, t.q)
}
func (t *txStore) SetRoomStatus(ctx context.Context, id booking.RoomID, status booking.RoomStatus) error {
	return setRoomStatus(ctx, t.q, id, status)
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) CreateReservation(ctx context.Context, r *booking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createReservation(ctx, s.db, r)
}

func createReservation(ctx context.Context, q dbtx, r *booking.Reservation) error {
	if r.Version == 0 {
		r.Version = 1
	}
	requests, _ := json.Marshal(r.SpecialRequests)

	_, err := q.ExecContext(ctx, `
		INSERT INTO reservations
		(id, number, guest_id, room_id, check_in, check_out, adults, children,
		 status, room_rate, total_amount, paid_amount, special_requests, source,
		 actual_check_in_at, actual_check_out_at, check_in_notes, check_out_notes,
		 cancel_reason, cancelled_at, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Number, r.GuestID, r.RoomID,
		r.Stay.CheckIn.String(), r.Stay.CheckOut.String(),
		r.Adults, r.Children, r.Status,
		r.RoomRate.String(), r.TotalAmount.String(), r.PaidAmount.String(),
		string(requests), r.Source,
		nullTime(r.ActualCheckInAt), nullTime(r.ActualCheckOutAt),
		r.CheckInNotes, r.CheckOutNotes, r.CancelReason, nullTime(r.CancelledAt),
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
		r.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

const reservationColumns = `id, number, guest_id, room_id, check_in, check_out,
	adults, children, status, room_rate, total_amount, paid_amount,
	special_requests, source, actual_check_in_at, actual_check_out_at,
	check_in_notes, check_out_notes, cancel_reason, cancelled_at,
	created_at, updated_at, version`

func (s *Store) GetReservation(ctx context.Context, id booking.ReservationID) (*booking.Reservation, error) {
	return getReservation(ctx, s.db, id)
}

func getReservation(ctx context.Context, q dbtx, id booking.ReservationID) (*booking.Reservation, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, &booking.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateReservation(ctx context.Context, r *booking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateReservation(ctx, s.db, r)
}

func updateReservation(ctx context.Context, q dbtx, r *booking.Reservation) error {
	requests, _ := json.Marshal(r.SpecialRequests)

	res, err := q.ExecContext(ctx, `
		UPDATE reservations SET
			guest_id = ?, room_id = ?, check_in = ?, check_out = ?,
			adults = ?, children = ?, status = ?, room_rate = ?,
			total_amount = ?, paid_amount = ?, special_requests = ?, source = ?,
			actual_check_in_at = ?, actual_check_out_at = ?,
			check_in_notes = ?, check_out_notes = ?,
			cancel_reason = ?, cancelled_at = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?`,
		r.GuestID, r.RoomID, r.Stay.CheckIn.String(), r.Stay.CheckOut.String(),
		r.Adults, r.Children, r.Status, r.RoomRate.String(),
		r.TotalAmount.String(), r.PaidAmount.String(), string(requests), r.Source,
		nullTime(r.ActualCheckInAt), nullTime(r.ActualCheckOutAt),
		r.CheckInNotes, r.CheckOutNotes,
		r.CancelReason, nullTime(r.CancelledAt),
		r.UpdatedAt.UTC().Format(time.RFC3339),
		r.ID, r.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or a concurrent writer bumped the version.
		var exists int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM reservations WHERE id = ?`, r.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return &booking.NotFoundError{Kind: "reservation", ID: string(r.ID)}
		}
		return booking.ErrVersionMismatch
	}

	r.Version++
	return nil
}

func (s *Store) ListReservations(ctx context.Context) ([]booking.Reservation, error) {
	return listReservations(ctx, s.db)
}

func listReservations(ctx context.Context, q dbtx) ([]booking.Reservation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *Store) ListBlockingByRoom(ctx context.Context, roomID booking.RoomID) ([]booking.Reservation, error) {
	return listBlockingByRoom(ctx, s.db, roomID)
}

func listBlockingByRoom(ctx context.Context, q dbtx, roomID booking.RoomID) ([]booking.Reservation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE room_id = ? AND status IN (?, ?) ORDER BY check_in`,
		roomID, booking.StatusConfirmed, booking.StatusCheckedIn)
	if err != nil {
		return nil, fmt.Errorf("failed to list room reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *Store) ListOverdueConfirmed(ctx context.Context, asOf booking.Date) ([]booking.Reservation, error) {
	return listOverdueConfirmed(ctx, s.db, asOf)
}

func listOverdueConfirmed(ctx context.Context, q dbtx, asOf booking.Date) ([]booking.Reservation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE status = ? AND check_in <= ? ORDER BY check_in`,
		booking.StatusConfirmed, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) AppendPayment(ctx context.Context, p *booking.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendPayment(ctx, s.db, p)
}

func appendPayment(ctx context.Context, q dbtx, p *booking.Payment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO payments
		(id, number, reservation_id, amount, method, status, refund_of, reference, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Number, p.ReservationID, p.Amount.String(), p.Method, p.Status,
		nullString(string(p.RefundOf)), p.Reference, p.Notes,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

const paymentColumns = `id, number, reservation_id, amount, method, status, refund_of, reference, notes, created_at`

func (s *Store) GetPayment(ctx context.Context, id booking.PaymentID) (*booking.Payment, error) {
	return getPayment(ctx, s.db, id)
}

func getPayment(ctx context.Context, q dbtx, id booking.PaymentID) (*booking.Payment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, &booking.NotFoundError{Kind: "payment", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return p, nil
}

func (s *Store) PaymentsByReservation(ctx context.Context, id booking.ReservationID) ([]booking.Payment, error) {
	return paymentsByReservation(ctx, s.db, id)
}

func paymentsByReservation(ctx context.Context, q dbtx, id booking.ReservationID) ([]booking.Payment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE reservation_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []booking.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) SettlePayment(ctx context.Context, id booking.PaymentID, status booking.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return settlePayment(ctx, s.db, id, status)
}

func settlePayment(ctx context.Context, q dbtx, id booking.PaymentID, status booking.PaymentStatus) error {
	if status != booking.PaymentCompleted && status != booking.PaymentFailed {
		return booking.ErrLedgerImmutable
	}

	res, err := q.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE id = ? AND status = ?`,
		status, id, booking.PaymentPending)
	if err != nil {
		return fmt.Errorf("failed to settle payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM payments WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return &booking.NotFoundError{Kind: "payment", ID: string(id)}
		}
		return booking.ErrLedgerImmutable
	}
	return nil
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Store) SaveRoom(ctx context.Context, room *booking.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRoom(ctx, s.db, room)
}

func saveRoom(ctx context.Context, q dbtx, room *booking.Room) error {
	if room.Status == "" {
		room.Status = booking.RoomAvailable
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO rooms (id, number, type, base_price, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number, type = excluded.type,
			base_price = excluded.base_price, status = excluded.status`,
		room.ID, room.Number, room.Type, room.BasePrice.String(), room.Status)
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id booking.RoomID) (*booking.Room, error) {
	return getRoom(ctx, s.db, id)
}

func getRoom(ctx context.Context, q dbtx, id booking.RoomID) (*booking.Room, error) {
	var (
		room  booking.Room
		price string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, number, type, base_price, status FROM rooms WHERE id = ?`, id).
		Scan(&room.ID, &room.Number, &room.Type, &price, &room.Status)
	if err == sql.ErrNoRows {
		return nil, &booking.NotFoundError{Kind: "room", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	room.BasePrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("corrupt base_price for room %s: %w", id, err)
	}
	return &room, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]booking.Room, error) {
	return listRooms(ctx, s.db)
}

func listRooms(ctx context.Context, q dbtx) ([]booking.Room, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, number, type, base_price, status FROM rooms ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var out []booking.Room
	for rows.Next() {
		var (
			room  booking.Room
			price string
		)
		if err := rows.Scan(&room.ID, &room.Number, &room.Type, &price, &room.Status); err != nil {
			return nil, err
		}
		room.BasePrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt base_price for room %s: %w", room.ID, err)
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (s *Store) SetRoomStatus(ctx context.Context, id booking.RoomID, status booking.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setRoomStatus(ctx, s.db, id, status)
}

func setRoomStatus(ctx context.Context, q dbtx, id booking.RoomID, status booking.RoomStatus) error {
	res, err := q.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &booking.NotFoundError{Kind: "room", ID: string(id)}
	}
	return nil
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*booking.Reservation, error) {
	var (
		r                         booking.Reservation
		checkIn, checkOut         string
		rate, total, paid         string
		requestsJSON              sql.NullString
		actualIn, actualOut       sql.NullString
		notesIn, notesOut         sql.NullString
		cancelReason, cancelledAt sql.NullString
		createdAt, updatedAt      string
	)

	err := row.Scan(
		&r.ID, &r.Number, &r.GuestID, &r.RoomID, &checkIn, &checkOut,
		&r.Adults, &r.Children, &r.Status, &rate, &total, &paid,
		&requestsJSON, &r.Source, &actualIn, &actualOut,
		&notesIn, &notesOut, &cancelReason, &cancelledAt,
		&createdAt, &updatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	if r.Stay.CheckIn, err = booking.ParseDate(checkIn); err != nil {
		return nil, err
	}
	if r.Stay.CheckOut, err = booking.ParseDate(checkOut); err != nil {
		return nil, err
	}
	if r.RoomRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("corrupt room_rate: %w", err)
	}
	if r.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("corrupt total_amount: %w", err)
	}
	if r.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("corrupt paid_amount: %w", err)
	}
	if requestsJSON.Valid && requestsJSON.String != "" && requestsJSON.String != "null" {
		if err := json.Unmarshal([]byte(requestsJSON.String), &r.SpecialRequests); err != nil {
			return nil, fmt.Errorf("corrupt special_requests: %w", err)
		}
	}
	if r.ActualCheckInAt, err = parseNullTime(actualIn); err != nil {
		return nil, err
	}
	if r.ActualCheckOutAt, err = parseNullTime(actualOut); err != nil {
		return nil, err
	}
	if r.CancelledAt, err = parseNullTime(cancelledAt); err != nil {
		return nil, err
	}
	r.CheckInNotes = nullToString(notesIn)
	r.CheckOutNotes = nullToString(notesOut)
	r.CancelReason = nullToString(cancelReason)

	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at: %w", err)
	}
	return &r, nil
}

func collectReservations(rows *sql.Rows) ([]booking.Reservation, error) {
	var out []booking.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanPayment(row rowScanner) (*booking.Payment, error) {
	var (
		p                 booking.Payment
		amount, createdAt string
		refundOf          sql.NullString
		reference, notes  sql.NullString
	)
	err := row.Scan(&p.ID, &p.Number, &p.ReservationID, &amount, &p.Method,
		&p.Status, &refundOf, &reference, &notes, &createdAt)
	if err != nil {
		return nil, err
	}

	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("corrupt payment amount: %w", err)
	}
	p.RefundOf = booking.PaymentID(nullToString(refundOf))
	p.Reference = nullToString(reference)
	p.Notes = nullToString(notes)
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt payment created_at: %w", err)
	}
	return &p, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp %q: %w", s.String, err)
	}
	return &t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullToString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}
