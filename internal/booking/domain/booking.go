package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

const (
	// AutoCancelWindow is how close to the deadline an unpaid booking may get.
	AutoCancelWindow = 24 * time.Hour
	// DefaultDurationMinutes applies when a request does not say.
	DefaultDurationMinutes = 60
	// MaxReviewLength is measured in characters.
	MaxReviewLength = 500
	// MaxReasonLength bounds cancellation and rejection notes.
	MaxReasonLength = 500
)

// Booking is a driving lesson between one student and one instructor.
type Booking struct {
	sharedDomain.BaseAggregateRoot
	studentID        uuid.UUID
	instructorID     uuid.UUID
	location         *time.Location
	slot             *Slot
	options          []SlotOption
	durationMinutes  int
	status           Status
	price            decimal.Decimal
	paymentStatus    PaymentStatus
	paymentReference string
	classTypes       []ClassType
	pickupType       PickupType
	rating           *int
	review           string
	autoCanceled     bool
	canceledAt       *time.Time
	canceledBy       Role
	cancelReason     string
	refund           Refund
}

// NewBookingParams carries a student's lesson request. Exactly one of Slot
// and Options must be set.
type NewBookingParams struct {
	StudentID       uuid.UUID
	InstructorID    uuid.UUID
	Slot            *Slot
	Options         []SlotOption
	DurationMinutes int
	Price           decimal.Decimal
	ClassTypes      []string
	PickupType      PickupType
	Location        *time.Location
}

// NewBooking validates a request and returns a booking awaiting the instructor.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, error) {
	if p.StudentID == uuid.Nil {
		return nil, NewValidationError("studentId", "is required")
	}
	if p.InstructorID == uuid.Nil {
		return nil, NewValidationError("instructorId", "is required")
	}
	if p.StudentID == p.InstructorID {
		return nil, NewValidationError("instructorId", "must differ from the student")
	}
	if p.Slot == nil && len(p.Options) == 0 {
		return nil, NewValidationError("slot", "a date and time or candidate options are required")
	}
	if p.Slot != nil && len(p.Options) > 0 {
		return nil, NewValidationError("slot", "give either a date and time or candidate options, not both")
	}
	if !p.Price.IsPositive() {
		return nil, NewValidationError("price", "must be greater than zero")
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	duration := p.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if duration < 0 || duration > 8*60 {
		return nil, NewValidationError("durationMinutes", "must be between 1 and 480")
	}
	pickup := p.PickupType
	if pickup == "" {
		pickup = PickupSelfToLocation
	}
	if !pickup.IsValid() {
		return nil, NewValidationError("pickupType", "unknown pickup type %q", pickup)
	}
	classTypes, err := NormalizeClassTypes(p.ClassTypes)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		studentID:         p.StudentID,
		instructorID:      p.InstructorID,
		location:          loc,
		durationMinutes:   duration,
		status:            StatusAwaitingAcceptance,
		price:             p.Price,
		paymentStatus:     PaymentPending,
		classTypes:        classTypes,
		pickupType:        pickup,
	}
	if p.Slot != nil {
		s, err := NewSlot(p.Slot.Date, p.Slot.Time)
		if err != nil {
			return nil, err
		}
		b.slot = &s
	} else {
		opts, err := NormalizeOptions(p.Options)
		if err != nil {
			return nil, err
		}
		b.options = opts
	}

	b.AddDomainEvent(&BookingRequested{
		BaseEvent:        newEvent(b, RoutingKeyRequested, now),
		StudentID:        b.studentID,
		InstructorID:     b.instructorID,
		Slot:             b.slot,
		AvailableOptions: b.options,
		Price:            b.price,
		ClassTypes:       b.classTypes,
		PickupType:       b.pickupType,
	})
	return b, nil
}

func (b *Booking) StudentID() uuid.UUID         { return b.studentID }
func (b *Booking) InstructorID() uuid.UUID      { return b.instructorID }
func (b *Booking) Location() *time.Location     { return b.location }
func (b *Booking) DurationMinutes() int         { return b.durationMinutes }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) Price() decimal.Decimal       { return b.price }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentReference() string     { return b.paymentReference }
func (b *Booking) PickupType() PickupType       { return b.pickupType }
func (b *Booking) Review() string               { return b.review }
func (b *Booking) AutoCanceled() bool           { return b.autoCanceled }
func (b *Booking) CanceledBy() Role             { return b.canceledBy }
func (b *Booking) CancelReason() string         { return b.cancelReason }
func (b *Booking) Refund() Refund               { return b.refund }

// ClassTypes returns a copy of the lesson tags.
func (b *Booking) ClassTypes() []ClassType { return slices.Clone(b.classTypes) }

// Slot returns the confirmed slot, if one is set.
func (b *Booking) Slot() (Slot, bool) {
	if b.slot == nil {
		return Slot{}, false
	}
	return *b.slot, true
}

// AvailableOptions returns a copy of the candidate slots.
func (b *Booking) AvailableOptions() []SlotOption {
	out := make([]SlotOption, len(b.options))
	for i, o := range b.options {
		out[i] = SlotOption{Date: o.Date, Times: slices.Clone(o.Times)}
	}
	return out
}

// Rating returns the evaluation score, if any.
func (b *Booking) Rating() (int, bool) {
	if b.rating == nil {
		return 0, false
	}
	return *b.rating, true
}

// CanceledAt returns when the booking was cancelled, if it was.
func (b *Booking) CanceledAt() (time.Time, bool) {
	if b.canceledAt == nil {
		return time.Time{}, false
	}
	return *b.canceledAt, true
}

// Start is the confirmed lesson start. It is false while only options exist.
func (b *Booking) Start() (time.Time, bool) {
	if b.slot == nil {
		return time.Time{}, false
	}
	return b.slot.In(b.location), true
}

// Deadline is the instant the sweeper measures against: the latest candidate
// while options are open, otherwise the scheduled start.
func (b *Booking) Deadline() (time.Time, bool) {
	if len(b.options) > 0 {
		_, t, ok := LatestCandidate(b.options, b.location)
		return t, ok
	}
	return b.Start()
}

// HoursRemaining is the signed time to the deadline in hours.
func (b *Booking) HoursRemaining(now time.Time) (float64, bool) {
	d, ok := b.Deadline()
	if !ok {
		return 0, false
	}
	return d.Sub(now).Hours(), true
}

// ExpiryDue reports whether the sweeper must cancel the booking now.
func (b *Booking) ExpiryDue(now time.Time) bool {
	if !b.status.IsPrePayment() {
		return false
	}
	d, ok := b.Deadline()
	if !ok {
		return false
	}
	remaining := d.Sub(now)
	return remaining > 0 && remaining < AutoCancelWindow
}

// PastDue reports a pre-payment booking whose deadline already passed. The
// sweeper leaves these alone.
func (b *Booking) PastDue(now time.Time) bool {
	if !b.status.IsPrePayment() {
		return false
	}
	d, ok := b.Deadline()
	return ok && !d.After(now)
}

// QuoteRefund prices a cancellation at now without changing anything.
func (b *Booking) QuoteRefund(policy RefundPolicy, now time.Time) Refund {
	start, ok := b.Start()
	if !ok {
		return Refund{Amount: decimal.Zero}
	}
	return policy.Quote(b.status, b.paymentStatus, b.price, start, now)
}

// AllowedActions lists what actor may do next.
func (b *Booking) AllowedActions(actor Actor) []Action {
	if !actor.Owns(b) {
		return nil
	}
	return AllowedActions(b.status, actor.Role)
}

func (b *Booking) begin(actor Actor, action Action) (Transition, error) {
	if !actor.Owns(b) {
		return Transition{}, ErrForbidden
	}
	return Decide(b.status, action, actor.Role)
}

func (b *Booking) apply(t Transition, now time.Time) {
	b.status = t.To
	b.TouchAt(now)
}

func (b *Booking) markCanceled(by Role, reason string, now time.Time) {
	at := now.UTC()
	b.canceledAt = &at
	b.canceledBy = by
	b.cancelReason = reason
}

// Accept confirms the booking. When options are open, chosen must be one of
// them; otherwise chosen may be omitted or must match the requested slot.
func (b *Booking) Accept(actor Actor, chosen *Slot, now time.Time) error {
	t, err := b.begin(actor, ActionAccept)
	if err != nil {
		return err
	}
	if chosen != nil {
		normalized, err := NewSlot(chosen.Date, chosen.Time)
		if err != nil {
			return err
		}
		chosen = &normalized
	}
	var slot Slot
	switch {
	case len(b.options) > 0:
		if chosen == nil {
			return NewValidationError("slot", "choose one of the offered slots")
		}
		if !containsSlot(b.options, *chosen) {
			return NewValidationError("slot", "%s is not among the offered slots", chosen)
		}
		slot = *chosen
	case b.slot == nil:
		return NewValidationError("slot", "booking has no slot to accept")
	case chosen != nil && *chosen != *b.slot:
		return NewValidationError("slot", "%s does not match the requested slot %s", chosen, b.slot)
	default:
		slot = *b.slot
	}

	b.slot = &slot
	b.options = nil
	b.apply(t, now)
	b.AddDomainEvent(&BookingAccepted{
		BaseEvent:    newEvent(b, RoutingKeyAccepted, now),
		InstructorID: b.instructorID,
		Slot:         slot,
	})
	return nil
}

// Reject declines the request.
func (b *Booking) Reject(actor Actor, reason string, now time.Time) error {
	t, err := b.begin(actor, ActionReject)
	if err != nil {
		return err
	}
	reason, err = cleanReason(reason)
	if err != nil {
		return err
	}
	b.markCanceled(RoleInstructor, reason, now)
	b.apply(t, now)
	b.AddDomainEvent(&BookingRejected{
		BaseEvent:    newEvent(b, RoutingKeyRejected, now),
		InstructorID: b.instructorID,
		Reason:       reason,
	})
	return nil
}

// PaymentOutcome is what the payment processor reported.
type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "succeeded"
	PaymentFailed    PaymentOutcome = "failed"
)

// PaymentReport is the processor's answer for one booking.
type PaymentReport struct {
	Outcome   PaymentOutcome
	Reference string
}

// Pay moves an accepted booking to scheduled once payment succeeded.
func (b *Booking) Pay(actor Actor, report PaymentReport, now time.Time) error {
	t, err := b.begin(actor, ActionPay)
	if err != nil {
		return err
	}
	if report.Outcome != PaymentSucceeded {
		return NewValidationError("payment", "payment was not confirmed (outcome %q)", report.Outcome)
	}
	b.paymentStatus = PaymentPaid
	b.paymentReference = strings.TrimSpace(report.Reference)
	b.apply(t, now)
	b.AddDomainEvent(&BookingPaid{
		BaseEvent:        newEvent(b, RoutingKeyPaid, now),
		StudentID:        b.studentID,
		Amount:           b.price,
		PaymentReference: b.paymentReference,
	})
	return nil
}

// Cancel ends the booking at the actor's request. A paid scheduled lesson
// is refunded according to policy; the applied refund is returned.
func (b *Booking) Cancel(actor Actor, reason string, policy RefundPolicy, now time.Time) (Refund, error) {
	t, err := b.begin(actor, ActionCancel)
	if err != nil {
		return Refund{}, err
	}
	reason, err = cleanReason(reason)
	if err != nil {
		return Refund{}, err
	}
	previous := b.status
	refund := b.QuoteRefund(policy, now)
	if !refund.IsZero() {
		b.paymentStatus = PaymentRefunded
		b.refund = refund
	}
	b.markCanceled(actor.Role, reason, now)
	b.apply(t, now)
	b.AddDomainEvent(&BookingCancelled{
		BaseEvent:      newEvent(b, RoutingKeyCancelled, now),
		StudentID:      b.studentID,
		CanceledBy:     actor.Role,
		ActorID:        actor.ID,
		PreviousStatus: previous,
		Reason:         reason,
		Refund:         refund,
	})
	return refund, nil
}

// Expire is the sweeper's cancellation. Payment status is left as it was.
func (b *Booking) Expire(now time.Time) error {
	t, err := b.begin(SystemActor, ActionExpire)
	if err != nil {
		return err
	}
	if !b.ExpiryDue(now) {
		return NewValidationError("deadline", "booking is not within %s of its deadline", AutoCancelWindow)
	}
	deadline, _ := b.Deadline()
	previous := b.status
	b.autoCanceled = true
	b.markCanceled(RoleSystem, "", now)
	b.apply(t, now)
	b.AddDomainEvent(&BookingAutoCancelled{
		BaseEvent:      newEvent(b, RoutingKeyAutoCancelled, now),
		StudentID:      b.studentID,
		InstructorID:   b.instructorID,
		PreviousStatus: previous,
		Deadline:       deadline.UTC(),
	})
	return nil
}

// Reschedule moves a scheduled lesson to a later slot. Nothing is refunded;
// the quote that applied at the time of the move is returned.
func (b *Booking) Reschedule(actor Actor, to Slot, policy RefundPolicy, now time.Time) (Refund, error) {
	t, err := b.begin(actor, ActionReschedule)
	if err != nil {
		return Refund{}, err
	}
	to, err = NewSlot(to.Date, to.Time)
	if err != nil {
		return Refund{}, err
	}
	if !to.In(b.location).After(now) {
		return Refund{}, NewValidationError("slot", "%s is not in the future", to)
	}
	quote := b.QuoteRefund(policy, now)
	from, _ := b.Slot()
	b.slot = &to
	b.apply(t, now)
	b.AddDomainEvent(&BookingRescheduled{
		BaseEvent: newEvent(b, RoutingKeyRescheduled, now),
		From:      from,
		To:        to,
		Refund:    quote,
	})
	return quote, nil
}

// MarkLessonElapsed moves a scheduled lesson to evaluation once it started.
func (b *Booking) MarkLessonElapsed(actor Actor, now time.Time) error {
	t, err := b.begin(actor, ActionElapse)
	if err != nil {
		return err
	}
	if !b.LessonElapsed(now) {
		return NewValidationError("slot", "lesson has not started yet")
	}
	b.apply(t, now)
	b.AddDomainEvent(&LessonElapsed{
		BaseEvent: newEvent(b, RoutingKeyLessonElapsed, now),
		Slot:      *b.slot,
	})
	return nil
}

// LessonElapsed reports whether a scheduled lesson's start has passed.
func (b *Booking) LessonElapsed(now time.Time) bool {
	start, ok := b.Start()
	return ok && b.status == StatusScheduled && !now.Before(start)
}

// Evaluate records the student's rating and completes the booking.
func (b *Booking) Evaluate(actor Actor, rating int, review string, now time.Time) error {
	t, err := b.begin(actor, ActionEvaluate)
	if err != nil {
		return err
	}
	if rating < 1 || rating > 5 {
		return NewValidationError("rating", "must be between 1 and 5")
	}
	review = strings.TrimSpace(review)
	if utf8.RuneCountInString(review) > MaxReviewLength {
		return NewValidationError("review", "must be at most %d characters", MaxReviewLength)
	}
	b.rating = &rating
	b.review = review
	b.apply(t, now)
	b.AddDomainEvent(&BookingEvaluated{
		BaseEvent:    newEvent(b, RoutingKeyEvaluated, now),
		InstructorID: b.instructorID,
		Rating:       rating,
		Review:       review,
	})
	return nil
}

// SkipEvaluation completes the booking without a rating.
func (b *Booking) SkipEvaluation(actor Actor, now time.Time) error {
	t, err := b.begin(actor, ActionSkipEvaluation)
	if err != nil {
		return err
	}
	b.apply(t, now)
	b.AddDomainEvent(&EvaluationSkipped{
		BaseEvent:    newEvent(b, RoutingKeyEvaluationSkipped, now),
		InstructorID: b.instructorID,
	})
	return nil
}

func cleanReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return "", NewValidationError("reason", "must be at most %d characters", MaxReasonLength)
	}
	return reason, nil
}
