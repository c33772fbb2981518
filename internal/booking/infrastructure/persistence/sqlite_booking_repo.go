package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database/sqlite"
)

// SQLiteBookingRepository implements domain.Repository for local mode.
type SQLiteBookingRepository struct {
	conn database.Connection
}

// NewSQLiteBookingRepository creates the repository.
func NewSQLiteBookingRepository(conn database.Connection) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{conn: conn}
}

const bookingColumns = `id, student_id, instructor_id, status, timezone, scheduled_date, scheduled_time,
	available_options, duration_minutes, price, payment_status, payment_reference, class_types, pickup_type,
	rating, review, auto_canceled, canceled_at, canceled_by, cancel_reason, refund_percent, refund_amount,
	created_at, updated_at, version`

// Save inserts a new booking or updates a stored one when its version
// still matches.
func (r *SQLiteBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	s := b.Snapshot()
	options, err := marshalOptions(s.AvailableOptions)
	if err != nil {
		return err
	}
	classTypes, err := json.Marshal(s.ClassTypes)
	if err != nil {
		return err
	}
	exec := database.ExecutorFromContext(ctx, r.conn)

	if b.IsNew() {
		_, err := exec.Exec(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			s.ID.String(), s.StudentID.String(), s.InstructorID.String(), string(s.Status), s.Timezone,
			nullString(s.ScheduledDate), nullString(s.ScheduledTime), options, s.DurationMinutes,
			s.Price.String(), string(s.PaymentStatus), s.PaymentReference, string(classTypes), string(s.PickupType),
			nullInt(s.Rating), s.Review, s.AutoCanceled, sqlite.FormatNullTime(s.CanceledAt), string(s.CanceledBy),
			s.CancelReason, s.RefundPercent, s.RefundAmount.String(),
			sqlite.FormatTime(s.CreatedAt), sqlite.FormatTime(s.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert booking %s: %w", s.ID, err)
		}
		b.SetVersion(1)
		return nil
	}

	res, err := exec.Exec(ctx, `
		UPDATE bookings SET
			status = ?, scheduled_date = ?, scheduled_time = ?, available_options = ?, price = ?,
			payment_status = ?, payment_reference = ?, rating = ?, review = ?, auto_canceled = ?,
			canceled_at = ?, canceled_by = ?, cancel_reason = ?, refund_percent = ?, refund_amount = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		string(s.Status), nullString(s.ScheduledDate), nullString(s.ScheduledTime), options, s.Price.String(),
		string(s.PaymentStatus), s.PaymentReference, nullInt(s.Rating), s.Review, s.AutoCanceled,
		sqlite.FormatNullTime(s.CanceledAt), string(s.CanceledBy), s.CancelReason, s.RefundPercent,
		s.RefundAmount.String(), sqlite.FormatTime(s.UpdatedAt),
		s.ID.String(), s.Version,
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
func (r *SQLiteBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id.String())
	b, err := scanSQLiteBooking(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// Find lists bookings matching f, oldest first.
func (r *SQLiteBookingRepository) Find(ctx context.Context, f domain.Filter) ([]*domain.Booking, error) {
	where, args := whereClause(f, func(id uuid.UUID) any { return id.String() })
	limit, args := limitClause(f, args)
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings`+where+` ORDER BY created_at, id`+limit, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Booking
	for rows.Next() {
		b, err := scanSQLiteBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanSQLiteBooking(row database.Row) (*domain.Booking, error) {
	var (
		s                             domain.Snapshot
		id, studentID, instructorID   string
		status, paymentStatus, pickup string
		canceledBy                    string
		scheduledDate, scheduledTime  sql.NullString
		options, classTypes           string
		price, refundAmount           string
		rating                        sql.NullInt64
		canceledAt                    sql.NullString
		createdAt, updatedAt          string
	)
	err := row.Scan(&id, &studentID, &instructorID, &status, &s.Timezone, &scheduledDate, &scheduledTime,
		&options, &s.DurationMinutes, &price, &paymentStatus, &s.PaymentReference, &classTypes, &pickup,
		&rating, &s.Review, &s.AutoCanceled, &canceledAt, &canceledBy, &s.CancelReason, &s.RefundPercent,
		&refundAmount, &createdAt, &updatedAt, &s.Version)
	if err != nil {
		return nil, err
	}

	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if s.StudentID, err = uuid.Parse(studentID); err != nil {
		return nil, err
	}
	if s.InstructorID, err = uuid.Parse(instructorID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &s.AvailableOptions); err != nil {
		return nil, fmt.Errorf("booking %s options: %w", id, err)
	}
	if err := json.Unmarshal([]byte(classTypes), &s.ClassTypes); err != nil {
		return nil, fmt.Errorf("booking %s class types: %w", id, err)
	}
	if s.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if s.RefundAmount, err = decimal.NewFromString(refundAmount); err != nil {
		return nil, err
	}
	if s.CanceledAt, err = sqlite.ParseNullTime(canceledAt); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		r := int(rating.Int64)
		s.Rating = &r
	}
	s.Status = domain.Status(status)
	s.PaymentStatus = domain.PaymentStatus(paymentStatus)
	s.PickupType = domain.PickupType(pickup)
	s.CanceledBy = domain.Role(canceledBy)
	s.ScheduledDate = scheduledDate.String
	s.ScheduledTime = scheduledTime.String
	return domain.Rehydrate(s)
}

// marshalOptions stores an absent option list as "[]".
func marshalOptions(opts []domain.SlotOption) (string, error) {
	if opts == nil {
		opts = []domain.SlotOption{}
	}
	data, err := json.Marshal(opts)
	return string(data), err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
