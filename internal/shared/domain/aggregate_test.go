package domain_test

import (
	"testing"
	"time"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type lessonAggregate struct {
	domain.BaseAggregateRoot
}

type lessonEvent struct {
	domain.BaseEvent
}

var epoch = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot(epoch)

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Equal(t, 0, agg.Version())
	assert.True(t, agg.IsNew())
	assert.Equal(t, epoch, agg.CreatedAt())
	assert.Equal(t, epoch, agg.UpdatedAt())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	agg := &lessonAggregate{BaseAggregateRoot: domain.NewBaseAggregateRoot(epoch)}
	ev := lessonEvent{BaseEvent: domain.NewBaseEvent(agg.ID(), "Lesson", "lessons.lesson.created", epoch)}

	agg.AddDomainEvent(ev)
	assert.Len(t, agg.DomainEvents(), 1)
	assert.Equal(t, ev.EventID(), agg.DomainEvents()[0].EventID())
	assert.Equal(t, "lessons.lesson.created", agg.DomainEvents()[0].RoutingKey())

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_TouchAndVersion(t *testing.T) {
	agg := domain.NewBaseAggregateRoot(epoch)
	later := epoch.Add(90 * time.Minute)

	agg.TouchAt(later)
	agg.SetVersion(3)

	assert.Equal(t, epoch, agg.CreatedAt())
	assert.Equal(t, later, agg.UpdatedAt())
	assert.Equal(t, 3, agg.Version())
	assert.False(t, agg.IsNew())
}

func TestRehydrateBaseAggregateRoot(t *testing.T) {
	id := uuid.New()
	entity := domain.RehydrateBaseEntity(id, epoch, epoch.Add(time.Hour))

	agg := domain.RehydrateBaseAggregateRoot(entity, 7)

	assert.Equal(t, id, agg.ID())
	assert.Equal(t, 7, agg.Version())
	assert.True(t, agg.SameIdentity(entity))
	assert.False(t, agg.SameIdentity(nil))
}

func TestBaseEvent_Metadata(t *testing.T) {
	ev := domain.NewBaseEvent(uuid.New(), "Lesson", "lessons.lesson.created", epoch)
	meta := domain.EventMetadata{CorrelationID: uuid.New(), UserID: uuid.New()}

	ev.SetMetadata(meta)

	assert.Equal(t, meta, ev.Metadata())
	assert.Equal(t, epoch, ev.OccurredAt())
	assert.NotEqual(t, uuid.Nil, ev.EventID())
}
