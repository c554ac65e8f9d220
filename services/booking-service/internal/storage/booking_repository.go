package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/learnhub/seminarbook/libs/db"
	"github.com/learnhub/seminarbook/services/booking-service/internal/booking"
	"github.com/learnhub/seminarbook/services/booking-service/internal/events"
	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
	"github.com/learnhub/seminarbook/services/booking-service/internal/outbox"
)

const bookingColumns = `id::text, full_name, email, phone_number, city, country,
	to_char(booking_date, 'YYYY-MM-DD'), time_slot, status, admin_notified, user_notified,
	created_at, updated_at`

type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	loc    *time.Location
}

// NewBookingRepository returns a store whose dates are interpreted in loc.
func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository, loc *time.Location) *BookingRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingRepository{pool: pool, outbox: outboxRepo, loc: loc}
}

func (r *BookingRepository) ExistsForDay(ctx context.Context, email string, day time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM bookings WHERE email = $1 AND booking_date = $2::date)
	`, email, day.Format(model.DateLayout)).Scan(&exists)
	return exists, err
}

// Create inserts the booking and its booking.created.v1 event in one transaction.
func (r *BookingRepository) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO bookings
				(id, full_name, email, phone_number, city, country, booking_date, time_slot, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9)
			RETURNING created_at, updated_at
		`, b.ID, b.FullName, b.Email, b.PhoneNumber, b.City, b.Country,
			b.DateString(), b.TimeSlot, string(b.Status)).Scan(&b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return err
		}

		evt, err := events.NewBookingCreated(b)
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return model.Booking{}, booking.ErrDuplicate
		}
		return model.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepository) Get(ctx context.Context, id string) (model.Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := r.scan(row)
	if IsNotFound(err) {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, err
}

func (r *BookingRepository) List(ctx context.Context, f booking.ListFilter) ([]model.Booking, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, f.Date.In(r.loc).Format(model.DateLayout))
		conds = append(conds, fmt.Sprintf("booking_date = $%d::date", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookings `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM bookings
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, bookingColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0, f.Limit)
	for rows.Next() {
		b, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// UpdateStatus changes the status and records booking.status_changed.v1 with the
// previous value.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Booking, error) {
	var updated model.Booking
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var from string
		if err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&from); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			UPDATE bookings
			SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+bookingColumns, id, string(status))
		b, err := r.scan(row)
		if err != nil {
			return err
		}
		updated = b

		evt, err := events.NewBookingStatusChanged(b, model.Status(from))
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if IsNotFound(err) {
		return model.Booking{}, booking.ErrNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	return updated, nil
}

func (r *BookingRepository) SetNotificationFlags(ctx context.Context, id string, admin, user bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET admin_notified = $2, user_notified = $3, updated_at = now()
		WHERE id = $1
	`, id, admin, user)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) scan(row pgx.Row) (model.Booking, error) {
	var (
		b      model.Booking
		day    string
		status string
	)
	if err := row.Scan(
		&b.ID,
		&b.FullName,
		&b.Email,
		&b.PhoneNumber,
		&b.City,
		&b.Country,
		&day,
		&b.TimeSlot,
		&status,
		&b.AdminNotified,
		&b.UserNotified,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return model.Booking{}, err
	}
	date, err := time.ParseInLocation(model.DateLayout, day, r.loc)
	if err != nil {
		return model.Booking{}, fmt.Errorf("parse booking_date %q: %w", day, err)
	}
	b.Date = date
	b.Status = model.Status(status)
	return b, nil
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

var _ booking.Store = (*BookingRepository)(nil)
