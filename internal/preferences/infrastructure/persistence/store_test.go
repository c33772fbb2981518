package persistence_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgregorio/driverapp-sub000/internal/preferences/application"
	"github.com/fsgregorio/driverapp-sub000/internal/preferences/infrastructure/persistence"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database/sqlite"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/migrations"
)

func newSQLStore(t *testing.T) *persistence.SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn := sqlite.Wrap(db)
	t.Cleanup(func() { _ = conn.Close() })
	_, err = migrations.Up(context.Background(), conn)
	require.NoError(t, err)
	clock := sharedDomain.NewFixedClock(time.Date(2026, 2, 8, 15, 0, 0, 0, time.UTC))
	return persistence.NewSQLStore(conn, clock)
}

func newRedisStore(t *testing.T) *persistence.RedisStore {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return persistence.NewRedisStore(client)
}

// exerciseStore runs the same contract against every implementation.
func exerciseStore(t *testing.T, store application.Store) {
	ctx := context.Background()
	studentID, other := uuid.New(), uuid.New()

	_, found, err := store.Get(ctx, studentID, "theme")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, studentID, "theme", "dark"))
	require.NoError(t, store.Set(ctx, studentID, "theme", "light"))
	require.NoError(t, store.Set(ctx, studentID, "pickup", "home"))
	require.NoError(t, store.Set(ctx, other, "theme", "dark"))

	value, found, err := store.Get(ctx, studentID, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "light", value)

	all, err := store.All(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "light", "pickup": "home"}, all)

	require.NoError(t, store.Delete(ctx, studentID, "theme"))
	require.NoError(t, store.Delete(ctx, studentID, "missing"))
	_, found, err = store.Get(ctx, studentID, "theme")
	require.NoError(t, err)
	assert.False(t, found)

	value, _, err = store.Get(ctx, other, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)

	service := application.NewService(store)
	instructorID := uuid.New()
	_, err = service.AddFavorite(ctx, studentID, instructorID)
	require.NoError(t, err)
	favs, err := service.FavoriteInstructors(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{instructorID}, favs)
}

func TestSQLStore(t *testing.T) {
	exerciseStore(t, newSQLStore(t))
}

func TestRedisStore(t *testing.T) {
	exerciseStore(t, newRedisStore(t))
}

func TestRedisKey(t *testing.T) {
	id := uuid.MustParse("0b8f4a52-7f7e-4c55-9a53-2a4f0a0e9f11")
	assert.Equal(t, "driverapp:prefs:0b8f4a52-7f7e-4c55-9a53-2a4f0a0e9f11", persistence.RedisKey(id))
}
