package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

// DashboardConfig sets the indicator windows.
type DashboardConfig struct {
	UpcomingWithin time.Duration
	TopInstructors int
}

// DefaultDashboardConfig is a week ahead and the top three instructors.
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{UpcomingWithin: 7 * 24 * time.Hour, TopInstructors: 3}
}

// StudentDashboard is everything the student home screen shows.
type StudentDashboard struct {
	Buckets    BucketsDTO        `json:"buckets"`
	Indicators StudentIndicators `json:"indicators"`
	Upcoming   []BookingDTO      `json:"upcoming"`
}

// InstructorDashboard is everything the instructor home screen shows.
type InstructorDashboard struct {
	Buckets    BucketsDTO           `json:"buckets"`
	Indicators InstructorIndicators `json:"indicators"`
	Upcoming   []BookingDTO         `json:"upcoming"`
}

// DashboardHandler serves the student, instructor and admin dashboards.
type DashboardHandler struct {
	repo  domain.Repository
	clock sharedDomain.Clock
	cfg   DashboardConfig
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(repo domain.Repository, clock sharedDomain.Clock, cfg DashboardConfig) *DashboardHandler {
	def := DefaultDashboardConfig()
	if cfg.UpcomingWithin <= 0 {
		cfg.UpcomingWithin = def.UpcomingWithin
	}
	if cfg.TopInstructors <= 0 {
		cfg.TopInstructors = def.TopInstructors
	}
	return &DashboardHandler{repo: repo, clock: clock, cfg: cfg}
}

// Student builds the dashboard for one student.
func (h *DashboardHandler) Student(ctx context.Context, studentID uuid.UUID) (*StudentDashboard, error) {
	bookings, err := h.repo.Find(ctx, domain.Filter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	now := h.clock.Now()
	ind := ComputeStudentIndicators(bookings, now, h.cfg.UpcomingWithin, h.cfg.TopInstructors)
	return &StudentDashboard{
		Buckets:    Partition(bookings).dto(now),
		Indicators: ind,
		Upcoming:   ToDTOs(ind.Upcoming, now),
	}, nil
}

// Instructor builds the dashboard for one instructor.
func (h *DashboardHandler) Instructor(ctx context.Context, instructorID uuid.UUID) (*InstructorDashboard, error) {
	bookings, err := h.repo.Find(ctx, domain.Filter{InstructorID: instructorID})
	if err != nil {
		return nil, err
	}
	now := h.clock.Now()
	ind := ComputeInstructorIndicators(bookings, now, h.cfg.UpcomingWithin)
	return &InstructorDashboard{
		Buckets:    Partition(bookings).dto(now),
		Indicators: ind,
		Upcoming:   ToDTOs(ind.Upcoming, now),
	}, nil
}

// Admin computes platform metrics. Only admins may call it.
func (h *DashboardHandler) Admin(ctx context.Context, actor domain.Actor) (*AdminMetrics, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	bookings, err := h.repo.Find(ctx, domain.Filter{})
	if err != nil {
		return nil, err
	}
	m := ComputeAdminMetrics(bookings, h.clock.Now())
	return &m, nil
}
