package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
)

// PostgresBookingRepository implements domain.Repository on PostgreSQL.
type PostgresBookingRepository struct {
	conn database.Connection
}

// NewPostgresBookingRepository creates the repository.
func NewPostgresBookingRepository(conn database.Connection) *PostgresBookingRepository {
	return &PostgresBookingRepository{conn: conn}
}

const postgresSelect = `SELECT id, student_id, instructor_id, status, timezone, scheduled_date, scheduled_time,
	available_options::text, duration_minutes, price::text, payment_status, payment_reference, class_types,
	pickup_type, rating, review, auto_canceled, canceled_at, canceled_by, cancel_reason, refund_percent,
	refund_amount::text, created_at, updated_at, version
	FROM bookings`

func (r *PostgresBookingRepository) rebind(q string) string {
	return database.DriverPostgres.Rebind(q)
}

// Save inserts a new booking or updates a stored one when its version
// still matches.
func (r *PostgresBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	s := b.Snapshot()
	options, err := marshalOptions(s.AvailableOptions)
	if err != nil {
		return err
	}
	classTypes := make([]string, len(s.ClassTypes))
	for i, c := range s.ClassTypes {
		classTypes[i] = string(c)
	}
	exec := database.ExecutorFromContext(ctx, r.conn)

	if b.IsNew() {
		_, err := exec.Exec(ctx, r.rebind(`
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?::jsonb, ?, ?::numeric, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?::numeric, ?, ?, 1)`),
			s.ID, s.StudentID, s.InstructorID, string(s.Status), s.Timezone,
			nullString(s.ScheduledDate), nullString(s.ScheduledTime), options, s.DurationMinutes,
			s.Price.String(), string(s.PaymentStatus), s.PaymentReference, pq.Array(classTypes), string(s.PickupType),
			nullInt(s.Rating), s.Review, s.AutoCanceled, s.CanceledAt, string(s.CanceledBy),
			s.CancelReason, s.RefundPercent, s.RefundAmount.String(), s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert booking %s: %w", s.ID, err)
		}
		b.SetVersion(1)
		return nil
	}

	res, err := exec.Exec(ctx, r.rebind(`
		UPDATE bookings SET
			status = ?, scheduled_date = ?, scheduled_time = ?, available_options = ?::jsonb, price = ?::numeric,
			payment_status = ?, payment_reference = ?, rating = ?, review = ?, auto_canceled = ?,
			canceled_at = ?, canceled_by = ?, cancel_reason = ?, refund_percent = ?, refund_amount = ?::numeric,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`),
		string(s.Status), nullString(s.ScheduledDate), nullString(s.ScheduledTime), options, s.Price.String(),
		string(s.PaymentStatus), s.PaymentReference, nullInt(s.Rating), s.Review, s.AutoCanceled,
		s.CanceledAt, string(s.CanceledBy), s.CancelReason, s.RefundPercent, s.RefundAmount.String(),
		s.UpdatedAt, s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConcurrencyConflict
	}
	b.SetVersion(s.Version + 1)
	return nil
}

// FindByID returns domain.ErrBookingNotFound for unknown ids.
func (r *PostgresBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, r.rebind(postgresSelect+` WHERE id = ?`), id)
	b, err := scanPostgresBooking(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// Find lists bookings matching f, oldest first.
func (r *PostgresBookingRepository) Find(ctx context.Context, f domain.Filter) ([]*domain.Booking, error) {
	where, args := whereClause(f, func(id uuid.UUID) any { return id })
	limit, args := limitClause(f, args)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		r.rebind(postgresSelect+where+` ORDER BY created_at, id`+limit), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Booking
	for rows.Next() {
		b, err := scanPostgresBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanPostgresBooking(row database.Row) (*domain.Booking, error) {
	var (
		s                             domain.Snapshot
		status, paymentStatus, pickup string
		canceledBy                    string
		scheduledDate, scheduledTime  *string
		options                       string
		classTypes                    []string
		price, refundAmount           string
		canceledAt                    *time.Time
	)
	err := row.Scan(&s.ID, &s.StudentID, &s.InstructorID, &status, &s.Timezone, &scheduledDate, &scheduledTime,
		&options, &s.DurationMinutes, &price, &paymentStatus, &s.PaymentReference, pq.Array(&classTypes), &pickup,
		&s.Rating, &s.Review, &s.AutoCanceled, &canceledAt, &canceledBy, &s.CancelReason, &s.RefundPercent,
		&refundAmount, &s.CreatedAt, &s.UpdatedAt, &s.Version)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(options), &s.AvailableOptions); err != nil {
		return nil, fmt.Errorf("booking %s options: %w", s.ID, err)
	}
	if s.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if s.RefundAmount, err = decimal.NewFromString(refundAmount); err != nil {
		return nil, err
	}
	for _, c := range classTypes {
		s.ClassTypes = append(s.ClassTypes, domain.ClassType(c))
	}
	if scheduledDate != nil {
		s.ScheduledDate = *scheduledDate
	}
	if scheduledTime != nil {
		s.ScheduledTime = *scheduledTime
	}
	s.Status = domain.Status(status)
	s.PaymentStatus = domain.PaymentStatus(paymentStatus)
	s.PickupType = domain.PickupType(pickup)
	s.CanceledBy = domain.Role(canceledBy)
	s.CanceledAt = canceledAt
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return domain.Rehydrate(s)
}
