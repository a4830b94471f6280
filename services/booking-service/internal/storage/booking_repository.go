package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bookora/libs/db"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/interval"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/outbox"
)

const bookingColumns = `id, calendar_id, service_id, customer_id, start_time, end_time, status, notes, created_at, cancelled_at`

// BookingRepository is the Postgres Store. The calendar row lock serializes every
// create on one calendar; lock waits are bounded by lock_timeout.
type BookingRepository struct {
	pool        *db.Pool
	outbox      *outbox.Repository
	lockTimeout time.Duration
}

var _ booking.Store = (*BookingRepository)(nil)

func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository, lockTimeout time.Duration) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: outboxRepo, lockTimeout: lockTimeout}
}

func (r *BookingRepository) WithCalendarLock(ctx context.Context, calendarID string, fn func(booking.Tx) error) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := r.setLockTimeout(ctx, tx); err != nil {
			return err
		}
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM calendars WHERE id = $1 FOR UPDATE`, calendarID).Scan(&id)
		if db.IsNotFound(err) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock calendar %s: %w", calendarID, err)
		}
		return fn(&pgTx{tx: tx, outbox: r.outbox})
	})
}

func (r *BookingRepository) WithBookingLock(ctx context.Context, bookingID string, fn func(booking.Tx, model.Booking) error) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		if err := r.setLockTimeout(ctx, tx); err != nil {
			return err
		}
		b, err := scanBooking(tx.QueryRow(ctx, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE id = $1
			FOR UPDATE
		`, bookingID))
		if db.IsNotFound(err) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock booking %s: %w", bookingID, err)
		}
		return fn(&pgTx{tx: tx, outbox: r.outbox}, b)
	})
}

func (r *BookingRepository) setLockTimeout(ctx context.Context, tx pgx.Tx) error {
	if r.lockTimeout <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`,
		fmt.Sprintf("%dms", r.lockTimeout.Milliseconds()))
	return err
}

func (r *BookingRepository) ListConfirmed(ctx context.Context, calendarID string, window interval.Interval) ([]model.Booking, error) {
	return r.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE calendar_id = $1
			AND status = 'CONFIRMED'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, calendarID, window.Start, window.End)
}

func (r *BookingRepository) ListByCalendar(ctx context.Context, calendarID string, window interval.Interval) ([]model.Booking, error) {
	return r.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE calendar_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC, id ASC
	`, calendarID, window.Start, window.End)
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Booking, error) {
	return r.query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE customer_id = $1
		ORDER BY start_time DESC, id ASC
		LIMIT $2
	`, customerID, limit)
}

func (r *BookingRepository) ListBlackouts(ctx context.Context, calendarID string, window interval.Interval) ([]model.Blackout, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, calendar_id, start_time, end_time, reason
		FROM blackouts
		WHERE calendar_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, calendarID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Blackout
	for rows.Next() {
		var b model.Blackout
		if err := rows.Scan(&b.ID, &b.CalendarID, &b.Start, &b.End, &b.Reason); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	var status string
	err := row.Scan(
		&b.ID,
		&b.CalendarID,
		&b.ServiceID,
		&b.CustomerID,
		&b.Start,
		&b.End,
		&status,
		&b.Notes,
		&b.CreatedAt,
		&b.CancelledAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingStatus(status)
	return b, nil
}

// pgTx is the write side of one locked transaction.
type pgTx struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

func (t *pgTx) HasOverlap(ctx context.Context, calendarID string, iv interval.Interval) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE calendar_id = $1
				AND status = 'CONFIRMED'
				AND start_time < $3
				AND end_time > $2
		)
	`, calendarID, iv.Start, iv.End).Scan(&exists)
	return exists, err
}

func (t *pgTx) InsertBooking(ctx context.Context, b model.Booking) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO bookings (id, calendar_id, service_id, customer_id, start_time, end_time, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, b.ID, b.CalendarID, b.ServiceID, b.CustomerID, b.Start, b.End, string(b.Status), b.Notes, b.CreatedAt)
	return err
}

func (t *pgTx) CancelBooking(ctx context.Context, bookingID string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE bookings
		SET status = 'CANCELLED',
			cancelled_at = $2
		WHERE id = $1 AND status = 'CONFIRMED'
	`, bookingID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (t *pgTx) Enqueue(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}
