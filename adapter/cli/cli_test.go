package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fsgregorio/driverapp-sub000/adapter/cli"
	internalApp "github.com/fsgregorio/driverapp-sub000/internal/app"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/application/commands"
	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/pkg/config"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*internalApp.Container, *sharedDomain.FixedClock) {
	t.Helper()
	clock := sharedDomain.NewFixedClock(now)
	c, err := internalApp.NewContainer(context.Background(), &config.Config{
		AppEnv:     "test",
		SQLitePath: filepath.Join(t.TempDir(), "cli.db"),
		Timezone:   time.UTC,
	}, zap.NewNop(), internalApp.WithClock(clock))
	require.NoError(t, err)
	cli.SetApp(cli.NewApp(c))
	t.Cleanup(func() {
		cli.SetApp(nil)
		c.Close()
	})
	return c, clock
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.Root()
	resetFlags(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func requestAt(t *testing.T, c *internalApp.Container, student uuid.UUID, at time.Time) *domain.Booking {
	t.Helper()
	b, err := c.Lifecycle.CreateBooking(context.Background(), commands.CreateBookingCommand{
		StudentID:    student,
		InstructorID: uuid.New(),
		Date:         at.Format(domain.DateLayout),
		Time:         at.Format(domain.ClockLayout),
		Price:        decimal.NewFromInt(80),
		ClassTypes:   []string{"road"},
	})
	require.NoError(t, err)
	return b
}

func TestNotInitialized(t *testing.T) {
	cli.SetApp(nil)
	_, err := run(t, "sweep")
	assert.ErrorIs(t, err, cli.ErrNotInitialized)
}

func TestSweepCommand(t *testing.T) {
	c, _ := setup(t)
	student := uuid.New()
	soon := requestAt(t, c, student, now.Add(6*time.Hour))
	later := requestAt(t, c, student, now.Add(72*time.Hour))

	out, err := run(t, "sweep")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Auto-cancelled: 1")
	assert.Contains(t, out, soon.ID().String())
	assert.NotContains(t, out, later.ID().String())

	out, err = run(t, "sweep", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"cancelled":[],"elapsed":[],"pastDue":0,"failures":0}`, out)
}

func TestDashboardCommands(t *testing.T) {
	c, _ := setup(t)
	student := uuid.New()
	requestAt(t, c, student, now.Add(72*time.Hour))

	out, err := run(t, "dashboard", "student", "--as-student", student.String())
	require.NoError(t, err, out)
	assert.Contains(t, out, "Awaiting acceptance (1)")

	out, err = run(t, "dashboard", "admin", "--as-admin")
	require.NoError(t, err, out)
	assert.Contains(t, out, "awaiting_instructor_acceptance")

	_, err = run(t, "dashboard", "admin", "--as-student", student.String())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = run(t, "dashboard", "instructor", "--as-student", student.String())
	assert.Error(t, err)
}

func TestHealthMigrateVersion(t *testing.T) {
	setup(t)

	out, err := run(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "database")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite schema at version 3")

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "driverapp dev")
}

func TestIdentityFlagsAreExclusive(t *testing.T) {
	setup(t)
	_, err := run(t, "sweep", "--as-admin", "--as-student", uuid.NewString())
	assert.Error(t, err)
}
