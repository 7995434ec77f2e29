package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSlotFull is returned by Reserve when the slot has no remaining
// capacity for the requested date.
var ErrSlotFull = errors.New("slot full")

// ErrSlotMissing is returned by Reserve when the slot row disappeared
// between validation and the reserving transaction.
var ErrSlotMissing = errors.New("slot not found")

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, account_id, partner_id, time_slot_id, order_platform,
		order_id_text, college_reg_no, name, phone, type, status, booking_date, created_at`

// Reserve inserts a booking while holding a row lock on its time slot,
// so the count-then-insert sequence is atomic with respect to other
// reservations of the same slot. Capacity is counted per (slot, date);
// cancelled bookings are excluded only when countCancelled is false.
func (r *BookingRepository) Reserve(ctx context.Context, booking *model.Booking, countCancelled bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var maxCapacity int
	err = tx.QueryRow(
		ctx,
		`SELECT max_capacity FROM time_slots WHERE id = $1 FOR UPDATE`,
		booking.TimeSlotID,
	).Scan(&maxCapacity)
	if err != nil {
		if base.IsNotFound(err) {
			return ErrSlotMissing
		}
		return fmt.Errorf("lock slot: %w", err)
	}

	count, err := countForSlotDate(ctx, tx, booking.TimeSlotID, booking.BookingDate, countCancelled)
	if err != nil {
		return err
	}
	if count >= maxCapacity {
		return ErrSlotFull
	}

	err = tx.QueryRow(
		ctx,
		`INSERT INTO bookings (account_id, partner_id, time_slot_id, order_platform,
			order_id_text, college_reg_no, name, phone, type, status, booking_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		booking.AccountID,
		booking.PartnerID,
		booking.TimeSlotID,
		booking.OrderPlatform,
		booking.OrderIDText,
		booking.CollegeRegNo,
		booking.Name,
		booking.Phone,
		booking.Type,
		booking.Status,
		booking.BookingDate,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// CountForSlotDate counts bookings against a (slot, date) pair.
func (r *BookingRepository) CountForSlotDate(ctx context.Context, slotID int64, date time.Time, countCancelled bool) (int, error) {
	return countForSlotDate(ctx, r.pool, slotID, date, countCancelled)
}

func countForSlotDate(ctx context.Context, q base.Querier, slotID int64, date time.Time, countCancelled bool) (int, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE time_slot_id = $1 AND booking_date = $2`
	if !countCancelled {
		query += ` AND status <> 'Cancelled'`
	}

	var count int
	if err := q.QueryRow(ctx, query, slotID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}

	return count, nil
}

// GetByID returns the booking with the given id, or nil.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking model.Booking
	err := scanBooking(r.pool.QueryRow(ctx, query, id), &booking)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &booking, nil
}

// GetByAccountID returns a requester's bookings, newest first.
func (r *BookingRepository) GetByAccountID(ctx context.Context, accountID int64) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE account_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, accountID)
}

// GetByPartnerID returns the bookings referencing a partner, newest first.
func (r *BookingRepository) GetByPartnerID(ctx context.Context, partnerID int64) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE partner_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, query, partnerID)
}

// List returns every booking, newest first.
func (r *BookingRepository) List(ctx context.Context) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`
	return r.query(ctx, query)
}

func (r *BookingRepository) query(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// scanBookings drains rows, surfacing an iteration error rather than a
// silently truncated list.
func scanBookings(rows pgx.Rows) ([]*model.Booking, error) {
	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row, booking *model.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.AccountID,
		&booking.PartnerID,
		&booking.TimeSlotID,
		&booking.OrderPlatform,
		&booking.OrderIDText,
		&booking.CollegeRegNo,
		&booking.Name,
		&booking.Phone,
		&booking.Type,
		&booking.Status,
		&booking.BookingDate,
		&booking.CreatedAt,
	)
}

// ExistsForSlot reports whether any booking references the slot, on any
// date and in any status. Slots with history are undeletable.
func (r *BookingRepository) ExistsForSlot(ctx context.Context, slotID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM bookings WHERE time_slot_id = $1 LIMIT 1`, slotID)
}

// ExistsForAccount reports whether any booking was requested by the account.
func (r *BookingRepository) ExistsForAccount(ctx context.Context, accountID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM bookings WHERE account_id = $1 LIMIT 1`, accountID)
}

// ExistsForPartner reports whether any booking references the partner.
func (r *BookingRepository) ExistsForPartner(ctx context.Context, partnerID int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM bookings WHERE partner_id = $1 LIMIT 1`, partnerID)
}

func (r *BookingRepository) exists(ctx context.Context, query string, arg int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, query, arg).Scan(&one)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check bookings: %w", err)
	}
	return true, nil
}

// UpdateStatus replaces a booking's status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	result, err := r.pool.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}
