package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

// Validate checks request DTOs.
var Validate = validator.New()

const maxBodyBytes = 1 << 20

// SlotOptionRequest is one proposed date with its times.
type SlotOptionRequest struct {
	Date  string   `json:"date" validate:"required,datetime=2006-01-02"`
	Times []string `json:"times" validate:"required,min=1,dive,datetime=15:04"`
}

// CreateBookingRequest is the body of POST /v1/bookings. Either a fixed
// date and time or a list of options is required.
type CreateBookingRequest struct {
	InstructorID    string              `json:"instructorId" validate:"required,uuid"`
	Date            string              `json:"date" validate:"required_without=Options,omitempty,datetime=2006-01-02"`
	Time            string              `json:"time" validate:"required_with=Date,omitempty,datetime=15:04"`
	Options         []SlotOptionRequest `json:"options" validate:"omitempty,dive"`
	DurationMinutes int                 `json:"durationMinutes" validate:"omitempty,min=15,max=480"`
	Price           decimal.Decimal     `json:"price"`
	ClassTypes      []string            `json:"classTypes" validate:"required,min=1"`
	PickupType      string              `json:"pickupType" validate:"omitempty,oneof=self_to_location pickup_at_home"`
}

func (r CreateBookingRequest) options() []domain.SlotOption {
	out := make([]domain.SlotOption, 0, len(r.Options))
	for _, o := range r.Options {
		out = append(out, domain.SlotOption{Date: o.Date, Times: o.Times})
	}
	return out
}

// AcceptBookingRequest optionally picks one of the offered slots.
type AcceptBookingRequest struct {
	Date string `json:"date" validate:"required_with=Time,omitempty,datetime=2006-01-02"`
	Time string `json:"time" validate:"required_with=Date,omitempty,datetime=15:04"`
}

// ReasonRequest carries an optional free-text reason.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// PayBookingRequest is the payment processor's report.
type PayBookingRequest struct {
	Outcome   string `json:"outcome" validate:"required,oneof=succeeded failed"`
	Reference string `json:"reference" validate:"max=200"`
}

// RescheduleBookingRequest moves a scheduled lesson.
type RescheduleBookingRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

// EvaluateBookingRequest rates a finished lesson.
type EvaluateBookingRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"max=500"`
}

// PreferenceRequest sets one preference value.
type PreferenceRequest struct {
	Value string `json:"value" validate:"max=4096"`
}

// SweepResponse summarizes one sweep.
type SweepResponse struct {
	Cancelled []string `json:"cancelled"`
	Elapsed   []string `json:"elapsed"`
	PastDue   int      `json:"pastDue"`
	Failures  int      `json:"failures"`
}

// decode reads and validates a JSON body. An empty body decodes to the
// zero value, which then goes through validation.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &APIError{Status: http.StatusBadRequest, Code: ErrBadRequest.Code, Message: fmt.Sprintf("malformed JSON: %v", err)}
	}
	if err := Validate.Struct(dst); err != nil {
		return validationFailure(err)
	}
	return nil
}

func validationFailure(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &APIError{Status: http.StatusBadRequest, Code: ErrBadRequest.Code, Message: err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: strings.Join(msgs, "; "),
	}
}
