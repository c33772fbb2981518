package domain_test

import (
	"testing"
	"time"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	clock := domain.NewFixedClock(epoch)
	assert.Equal(t, epoch, clock.Now())

	clock.Advance(25 * time.Hour)
	assert.Equal(t, epoch.Add(25*time.Hour), clock.Now())

	clock.Set(epoch)
	assert.Equal(t, epoch, clock.Now())
}

func TestClockFunc(t *testing.T) {
	var c domain.Clock = domain.ClockFunc(func() time.Time { return epoch })
	assert.Equal(t, epoch, c.Now())
}

func TestSystemClock_IsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, domain.SystemClock{}.Now().Location())
}
