package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

// Snapshot is the flat, persisted form of a booking.
type Snapshot struct {
	ID               uuid.UUID       `json:"id"`
	StudentID        uuid.UUID       `json:"studentId"`
	InstructorID     uuid.UUID       `json:"instructorId"`
	Timezone         string          `json:"timezone"`
	ScheduledDate    string          `json:"scheduledDate,omitempty"`
	ScheduledTime    string          `json:"scheduledTime,omitempty"`
	AvailableOptions []SlotOption    `json:"availableOptions,omitempty"`
	DurationMinutes  int             `json:"durationMinutes"`
	Status           Status          `json:"status"`
	Price            decimal.Decimal `json:"price"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	ClassTypes       []ClassType     `json:"classTypes"`
	PickupType       PickupType      `json:"pickupType"`
	Rating           *int            `json:"rating,omitempty"`
	Review           string          `json:"review,omitempty"`
	AutoCanceled     bool            `json:"autoCanceled"`
	CanceledAt       *time.Time      `json:"canceledAt,omitempty"`
	CanceledBy       Role            `json:"canceledBy,omitempty"`
	CancelReason     string          `json:"cancelReason,omitempty"`
	RefundPercent    int             `json:"refundPercent,omitempty"`
	RefundAmount     decimal.Decimal `json:"refundAmount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Version          int             `json:"version"`
}

// Snapshot copies the booking's state out.
func (b *Booking) Snapshot() Snapshot {
	s := Snapshot{
		ID:               b.ID(),
		StudentID:        b.studentID,
		InstructorID:     b.instructorID,
		Timezone:         b.location.String(),
		AvailableOptions: b.AvailableOptions(),
		DurationMinutes:  b.durationMinutes,
		Status:           b.status,
		Price:            b.price,
		PaymentStatus:    b.paymentStatus,
		PaymentReference: b.paymentReference,
		ClassTypes:       b.ClassTypes(),
		PickupType:       b.pickupType,
		Review:           b.review,
		AutoCanceled:     b.autoCanceled,
		CanceledBy:       b.canceledBy,
		CancelReason:     b.cancelReason,
		RefundPercent:    b.refund.EligiblePercent,
		RefundAmount:     b.refund.Amount,
		CreatedAt:        b.CreatedAt(),
		UpdatedAt:        b.UpdatedAt(),
		Version:          b.Version(),
	}
	if b.slot != nil {
		s.ScheduledDate, s.ScheduledTime = b.slot.Date, b.slot.Time
	}
	if b.rating != nil {
		r := *b.rating
		s.Rating = &r
	}
	if b.canceledAt != nil {
		at := *b.canceledAt
		s.CanceledAt = &at
	}
	return s
}

// Rehydrate rebuilds a booking from storage. Legacy status spellings are
// mapped onto canonical states.
func Rehydrate(s Snapshot) (*Booking, error) {
	status, err := ParseStatus(string(s.Status))
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if s.Timezone != "" {
		if loc, err = time.LoadLocation(s.Timezone); err != nil {
			return nil, NewValidationError("timezone", "unknown timezone %q", s.Timezone)
		}
	}
	payment := s.PaymentStatus
	if payment == "" {
		payment = PaymentPending
	}
	if !payment.IsValid() {
		return nil, NewValidationError("paymentStatus", "unknown payment status %q", payment)
	}

	b := &Booking{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt), s.Version),
		studentID:        s.StudentID,
		instructorID:     s.InstructorID,
		location:         loc,
		durationMinutes:  s.DurationMinutes,
		status:           status,
		price:            s.Price,
		paymentStatus:    payment,
		paymentReference: s.PaymentReference,
		classTypes:       slices.Clone(s.ClassTypes),
		pickupType:       s.PickupType,
		review:           s.Review,
		autoCanceled:     s.AutoCanceled,
		canceledBy:       s.CanceledBy,
		cancelReason:     s.CancelReason,
		refund:           Refund{EligiblePercent: s.RefundPercent, Amount: s.RefundAmount},
	}
	if b.pickupType == "" {
		b.pickupType = PickupSelfToLocation
	}
	if s.ScheduledDate != "" || s.ScheduledTime != "" {
		slot, err := NewSlot(s.ScheduledDate, s.ScheduledTime)
		if err != nil {
			return nil, err
		}
		b.slot = &slot
	}
	if len(s.AvailableOptions) > 0 {
		opts, err := NormalizeOptions(s.AvailableOptions)
		if err != nil {
			return nil, err
		}
		b.options = opts
	}
	if s.Rating != nil {
		r := *s.Rating
		b.rating = &r
	}
	if s.CanceledAt != nil {
		at := s.CanceledAt.UTC()
		b.canceledAt = &at
	}
	b.refund.RequiresWarning = b.refund.EligiblePercent > 0 && b.refund.EligiblePercent < 100
	return b, nil
}
