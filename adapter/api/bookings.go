package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/commands"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
)

func (s *Server) dto(b *domain.Booking) queries.BookingDTO {
	return queries.ToDTO(b, s.clock.Now())
}

// actorAs returns the caller when they hold one of roles.
func actorAs(r *http.Request, roles ...domain.Role) (domain.Actor, error) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		return domain.Actor{}, ErrUnauthorized
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return domain.Actor{}, domain.ErrForbidden
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &APIError{Status: http.StatusBadRequest, Code: ErrBadRequest.Code, Message: name + " must be a UUID"}
	}
	return id, nil
}

// createBooking handles POST /v1/bookings.
func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req CreateBookingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.lifecycle.CreateBooking(r.Context(), commands.CreateBookingCommand{
		StudentID:       actor.ID,
		InstructorID:    uuid.MustParse(req.InstructorID),
		Date:            req.Date,
		Time:            req.Time,
		Options:         req.options(),
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		ClassTypes:      req.ClassTypes,
		PickupType:      req.PickupType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.dto(b))
}

// getBooking handles GET /v1/bookings/{id}.
func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor, _ := ActorFromContext(r.Context())
	dto, err := s.lifecycle.GetBooking(r.Context(), queries.GetBookingQuery{BookingID: id, Actor: actor})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// listBookings handles GET /v1/bookings?status=a,b&limit=n.
func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	q := queries.ListBookingsQuery{Actor: actor}
	if raw := r.URL.Query().Get("status"); raw != "" {
		q.Statuses = strings.Split(raw, ",")
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, &APIError{Status: http.StatusBadRequest, Code: ErrBadRequest.Code, Message: "limit must be a non-negative integer"})
			return
		}
		q.Limit = n
	}
	list, err := s.lifecycle.ListBookings(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

// acceptBooking handles POST /v1/bookings/{id}/accept.
func (s *Server) acceptBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleInstructor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req AcceptBookingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cmd := commands.AcceptBookingCommand{BookingID: id, InstructorID: actor.ID}
	if req.Date != "" {
		slot, err := domain.NewSlot(req.Date, req.Time)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		cmd.Slot = &slot
	}
	b, err := s.lifecycle.AcceptBooking(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dto(b))
}

// rejectBooking handles POST /v1/bookings/{id}/reject.
func (s *Server) rejectBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleInstructor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req ReasonRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.lifecycle.RejectBooking(r.Context(), commands.RejectBookingCommand{
		BookingID:    id,
		InstructorID: actor.ID,
		Reason:       req.Reason,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dto(b))
}

// payBooking handles POST /v1/bookings/{id}/pay.
func (s *Server) payBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req PayBookingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.lifecycle.PayBooking(r.Context(), commands.PayBookingCommand{
		BookingID: id,
		Actor:     actor,
		Outcome:   domain.PaymentOutcome(req.Outcome),
		Reference: req.Reference,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dto(b))
}

// cancelBooking handles POST /v1/bookings/{id}/cancel.
func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent, domain.RoleInstructor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req ReasonRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.lifecycle.CancelBooking(r.Context(), commands.CancelBookingCommand{
		BookingID: id,
		Actor:     actor,
		Reason:    req.Reason,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking": s.dto(res.Booking),
		"refund":  res.Refund,
	})
}

// rescheduleBooking handles POST /v1/bookings/{id}/reschedule.
func (s *Server) rescheduleBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req RescheduleBookingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.lifecycle.RescheduleBooking(r.Context(), commands.RescheduleBookingCommand{
		BookingID: id,
		StudentID: actor.ID,
		Date:      req.Date,
		Time:      req.Time,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking":     s.dto(res.Booking),
		"refundQuote": res.RefundQuote,
	})
}

// evaluateBooking handles POST /v1/bookings/{id}/evaluate.
func (s *Server) evaluateBooking(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req EvaluateBookingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.lifecycle.EvaluateBooking(r.Context(), commands.EvaluateBookingCommand{
		BookingID: id,
		StudentID: actor.ID,
		Rating:    req.Rating,
		Review:    req.Review,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dto(b))
}

// skipEvaluation handles POST /v1/bookings/{id}/skip-evaluation.
func (s *Server) skipEvaluation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.lifecycle.SkipEvaluation(r.Context(), commands.SkipEvaluationCommand{BookingID: id, StudentID: actor.ID})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dto(b))
}

// quoteRefund handles GET /v1/bookings/{id}/refund-quote.
func (s *Server) quoteRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor, _ := ActorFromContext(r.Context())
	refund, err := s.lifecycle.QuoteRefund(r.Context(), queries.QuoteRefundQuery{BookingID: id, Actor: actor})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refund)
}

// sweep handles POST /v1/sweeps. Admin only.
func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	if _, err := actorAs(r, domain.RoleAdmin); err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.lifecycle.Sweep(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := SweepResponse{
		Cancelled: make([]string, 0, len(report.Cancelled)),
		Elapsed:   make([]string, 0, len(report.Elapsed)),
		PastDue:   report.PastDue,
		Failures:  report.Failures,
	}
	for _, b := range report.Cancelled {
		resp.Cancelled = append(resp.Cancelled, b.ID().String())
	}
	for _, b := range report.Elapsed {
		resp.Elapsed = append(resp.Elapsed, b.ID().String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) studentDashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.lifecycle.StudentDashboard(r.Context(), actor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) instructorDashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := actorAs(r, domain.RoleInstructor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.lifecycle.InstructorDashboard(r.Context(), actor.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) adminMetrics(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	m, err := s.lifecycle.AdminMetrics(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
