package cli

import (
	"errors"

	"github.com/google/uuid"

	internalApp "github.com/fsgregorio/driverapp-sub000/internal/app"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/queries"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/services"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	prefsApp "github.com/fsgregorio/driverapp-sub000/internal/preferences/application"
)

// ErrNotInitialized is returned when a command runs without a container.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// ErrNoActor is returned when a command needs an identity flag.
var ErrNoActor = errors.New("pass --as-student <id>, --as-instructor <id> or --as-admin")

// App holds the CLI application dependencies.
type App struct {
	Container   *internalApp.Container
	Lifecycle   *services.LifecycleService
	Preferences *prefsApp.Service
}

// NewApp creates a new CLI application over a wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		Container:   c,
		Lifecycle:   c.Lifecycle,
		Preferences: c.Preferences,
	}
}

// DTO converts a booking at the container's current time.
func (a *App) DTO(b *domain.Booking) queries.BookingDTO {
	return queries.ToDTO(b, a.Container.Clock.Now())
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance, or ErrNotInitialized.
func GetApp() (*App, error) {
	if app == nil || app.Container == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// Actor resolves the identity flags.
func Actor() (domain.Actor, error) {
	switch {
	case asAdmin:
		return domain.Actor{Role: domain.RoleAdmin}, nil
	case asStudent != "":
		id, err := uuid.Parse(asStudent)
		if err != nil {
			return domain.Actor{}, domain.NewValidationError("as-student", "invalid id %q", asStudent)
		}
		return domain.Student(id), nil
	case asInstructor != "":
		id, err := uuid.Parse(asInstructor)
		if err != nil {
			return domain.Actor{}, domain.NewValidationError("as-instructor", "invalid id %q", asInstructor)
		}
		return domain.Instructor(id), nil
	}
	return domain.Actor{}, ErrNoActor
}

// ActorAs is Actor restricted to one role.
func ActorAs(role domain.Role) (domain.Actor, error) {
	actor, err := Actor()
	if err != nil {
		return actor, err
	}
	if actor.Role != role {
		return domain.Actor{}, errors.New("this command must be run --as-" + string(role))
	}
	return actor, nil
}
