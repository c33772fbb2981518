package app

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingPersistence "github.com/fsgregorio/driverapp-sub000/internal/booking/infrastructure/persistence"
	prefsPersistence "github.com/fsgregorio/driverapp-sub000/internal/preferences/infrastructure/persistence"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database/sqlite"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
)

// unknownDriverConn reports a driver the factory does not support.
type unknownDriverConn struct {
	database.Connection
}

func (unknownDriverConn) Driver() database.Driver { return database.Driver("oracle") }

func TestRepositoryFactory_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn := sqlite.Wrap(db)
	defer conn.Close()

	f := NewRepositoryFactory(conn)

	bookings, err := f.BookingRepository()
	require.NoError(t, err)
	assert.IsType(t, &bookingPersistence.SQLiteBookingRepository{}, bookings)

	events, err := f.OutboxRepository()
	require.NoError(t, err)
	assert.IsType(t, &outbox.SQLiteRepository{}, events)

	store := f.PreferenceStore(nil, sharedDomain.SystemClock{})
	assert.IsType(t, &prefsPersistence.SQLStore{}, store)
}

func TestRepositoryFactory_UnsupportedDriver(t *testing.T) {
	f := NewRepositoryFactory(unknownDriverConn{})

	_, err := f.BookingRepository()
	assert.ErrorContains(t, err, "unsupported driver")

	_, err = f.OutboxRepository()
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestRepositoryFactory_Ping(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn := sqlite.Wrap(db)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, NewRepositoryFactory(conn).driver)
	assert.NoError(t, conn.Ping(context.Background()))
}
