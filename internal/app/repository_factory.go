package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	bookingPersistence "github.com/fsgregorio/driverapp-sub000/internal/booking/infrastructure/persistence"
	prefsApp "github.com/fsgregorio/driverapp-sub000/internal/preferences/application"
	prefsPersistence "github.com/fsgregorio/driverapp-sub000/internal/preferences/infrastructure/persistence"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// BookingRepository creates a booking repository for the configured driver.
func (f *RepositoryFactory) BookingRepository() (domain.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return bookingPersistence.NewPostgresBookingRepository(f.conn), nil
	case database.DriverSQLite:
		return bookingPersistence.NewSQLiteBookingRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return outbox.NewPostgresRepository(f.conn), nil
	case database.DriverSQLite:
		return outbox.NewSQLiteRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// PreferenceStore prefers Redis when a client is available and falls back
// to the student_preferences table.
func (f *RepositoryFactory) PreferenceStore(client *redis.Client, clock sharedDomain.Clock) prefsApp.Store {
	if client != nil {
		return prefsPersistence.NewRedisStore(client)
	}
	return prefsPersistence.NewSQLStore(f.conn, clock)
}
