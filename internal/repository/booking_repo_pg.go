package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkotelnikov/calbooking/internal/domain"
)

const uniqueViolation = "23505"

type BookingRepository interface {
	// Insert persists a new booking and fills ID and CreatedAt. A unique
	// violation on booking_ref or idempotency_key returns ErrDuplicate.
	Insert(ctx context.Context, booking *domain.Booking) error
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	UpdateTimes(ctx context.Context, ref string, start, end time.Time, status domain.BookingStatus) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, ref string, status domain.BookingStatus) (*domain.Booking, error)
	ListForCustomer(ctx context.Context, customerID string, upcomingOnly bool) ([]domain.Booking, error)
	ListDueReminders(ctx context.Context, from, to time.Time) ([]domain.Booking, error)
	MarkReminded(ctx context.Context, ref string) error
}

// DB is the subset of pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, booking_ref, COALESCE(idempotency_key, ''), customer_id, COALESCE(customer_email, ''),
	COALESCE(agent_id, ''), calendar_id, event_id, service_id, start_time, end_time, status, paid, reminded_at, created_at, updated_at`

func (r *PGBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings
		(booking_ref, idempotency_key, customer_id, customer_email, agent_id, calendar_id, event_id, service_id, start_time, end_time, status, paid)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		booking.BookingRef, booking.IdempotencyKey, booking.CustomerID, booking.CustomerEmail,
		booking.AgentID, booking.CalendarID, booking.EventID, booking.ServiceID, booking.Start,
		booking.End, booking.Status, booking.Paid).
		Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_ref=$1`, ref)
	return scanBooking(row)
}

func (r *PGBookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key=$1`, key)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdateTimes(ctx context.Context, ref string, start, end time.Time, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET start_time=$1, end_time=$2, status=$3, updated_at=now()
		WHERE booking_ref=$4 RETURNING `+bookingColumns, start, end, status, ref)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, ref string, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE booking_ref=$2 RETURNING `+bookingColumns, status, ref)
	return scanBooking(row)
}

func (r *PGBookingRepository) ListForCustomer(ctx context.Context, customerID string, upcomingOnly bool) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id=$1`
	args := []any{customerID}
	if upcomingOnly {
		query += ` AND start_time >= $2 AND status != $3`
		args = append(args, time.Now().UTC(), domain.BookingStatusCancelled)
	}
	query += ` ORDER BY start_time`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) ListDueReminders(ctx context.Context, from, to time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status IN ($1, $2) AND start_time BETWEEN $3 AND $4 AND reminded_at IS NULL
		ORDER BY start_time`,
		domain.BookingStatusConfirmed, domain.BookingStatusRescheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *PGBookingRepository) MarkReminded(ctx context.Context, ref string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET reminded_at=now() WHERE booking_ref=$1`, ref)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.BookingRef, &b.IdempotencyKey, &b.CustomerID, &b.CustomerEmail,
		&b.AgentID, &b.CalendarID, &b.EventID, &b.ServiceID, &b.Start, &b.End, &b.Status,
		&b.Paid, &b.RemindedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.BookingRef, &b.IdempotencyKey, &b.CustomerID, &b.CustomerEmail,
			&b.AgentID, &b.CalendarID, &b.EventID, &b.ServiceID, &b.Start, &b.End, &b.Status,
			&b.Paid, &b.RemindedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
