package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

// AggregateType names bookings on the event bus.
const AggregateType = "Booking"

// Routing keys for booking events.
const (
	RoutingKeyRequested         = "bookings.booking.requested"
	RoutingKeyAccepted          = "bookings.booking.accepted"
	RoutingKeyRejected          = "bookings.booking.rejected"
	RoutingKeyPaid              = "bookings.booking.paid"
	RoutingKeyCancelled         = "bookings.booking.cancelled"
	RoutingKeyAutoCancelled     = "bookings.booking.auto_cancelled"
	RoutingKeyRescheduled       = "bookings.booking.rescheduled"
	RoutingKeyLessonElapsed     = "bookings.booking.lesson_elapsed"
	RoutingKeyEvaluated         = "bookings.booking.evaluated"
	RoutingKeyEvaluationSkipped = "bookings.booking.evaluation_skipped"
)

func newEvent(b *Booking, routingKey string, now time.Time) sharedDomain.BaseEvent {
	return sharedDomain.NewBaseEvent(b.ID(), AggregateType, routingKey, now)
}

// BookingRequested is raised when a student creates a booking.
type BookingRequested struct {
	sharedDomain.BaseEvent
	StudentID        uuid.UUID       `json:"student_id"`
	InstructorID     uuid.UUID       `json:"instructor_id"`
	Slot             *Slot           `json:"slot,omitempty"`
	AvailableOptions []SlotOption    `json:"available_options,omitempty"`
	Price            decimal.Decimal `json:"price"`
	ClassTypes       []ClassType     `json:"class_types"`
	PickupType       PickupType      `json:"pickup_type"`
}

// BookingAccepted is raised when the instructor confirms a slot.
type BookingAccepted struct {
	sharedDomain.BaseEvent
	InstructorID uuid.UUID `json:"instructor_id"`
	Slot         Slot      `json:"slot"`
}

// BookingRejected is raised when the instructor declines.
type BookingRejected struct {
	sharedDomain.BaseEvent
	InstructorID uuid.UUID `json:"instructor_id"`
	Reason       string    `json:"reason,omitempty"`
}

// BookingPaid is raised once payment is confirmed.
type BookingPaid struct {
	sharedDomain.BaseEvent
	StudentID        uuid.UUID       `json:"student_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentReference string          `json:"payment_reference,omitempty"`
}

// BookingCancelled is raised for manual cancellations and rejections.
type BookingCancelled struct {
	sharedDomain.BaseEvent
	StudentID      uuid.UUID `json:"student_id"`
	CanceledBy     Role      `json:"canceled_by"`
	ActorID        uuid.UUID `json:"actor_id"`
	PreviousStatus Status    `json:"previous_status"`
	Reason         string    `json:"reason,omitempty"`
	Refund         Refund    `json:"refund"`
}

// BookingAutoCancelled is raised by the sweeper.
type BookingAutoCancelled struct {
	sharedDomain.BaseEvent
	StudentID      uuid.UUID `json:"student_id"`
	InstructorID   uuid.UUID `json:"instructor_id"`
	PreviousStatus Status    `json:"previous_status"`
	Deadline       time.Time `json:"deadline"`
}

// BookingRescheduled is raised when a student moves a scheduled lesson.
type BookingRescheduled struct {
	sharedDomain.BaseEvent
	From   Slot   `json:"from"`
	To     Slot   `json:"to"`
	Refund Refund `json:"refund_quote"`
}

// LessonElapsed is raised once the lesson start has passed.
type LessonElapsed struct {
	sharedDomain.BaseEvent
	Slot Slot `json:"slot"`
}

// BookingEvaluated is raised when the student rates the lesson.
type BookingEvaluated struct {
	sharedDomain.BaseEvent
	InstructorID uuid.UUID `json:"instructor_id"`
	Rating       int       `json:"rating"`
	Review       string    `json:"review,omitempty"`
}

// EvaluationSkipped is raised when the student completes without a rating.
type EvaluationSkipped struct {
	sharedDomain.BaseEvent
	InstructorID uuid.UUID `json:"instructor_id"`
}
