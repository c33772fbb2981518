// Package commands holds the write side of the booking lifecycle. Every
// handler loads one booking, applies one transition and stores the booking
// together with its events in a single unit of work.
package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/booking/domain"
	sharedApplication "github.com/fsgregorio/driverapp-sub000/internal/shared/application"
	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/outbox"
)

// transitionFunc mutates a loaded booking at the given instant.
type transitionFunc func(b *domain.Booking, now time.Time) error

type lifecycle struct {
	repo       domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      sharedDomain.Clock
}

func newLifecycle(repo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, clock sharedDomain.Clock) lifecycle {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return lifecycle{repo: repo, outboxRepo: outboxRepo, uow: uow, clock: clock}
}

// transition runs fn against the stored booking inside one transaction.
func (l lifecycle) transition(ctx context.Context, id uuid.UUID, actorID uuid.UUID, fn transitionFunc) (*domain.Booking, error) {
	return l.transitionAt(ctx, id, actorID, time.Time{}, fn)
}

// transitionAt is transition evaluated at a given instant; zero means now.
func (l lifecycle) transitionAt(ctx context.Context, id uuid.UUID, actorID uuid.UUID, at time.Time, fn transitionFunc) (*domain.Booking, error) {
	if at.IsZero() {
		at = l.clock.Now()
	}
	return sharedApplication.InUnitOfWork(ctx, l.uow, func(txCtx context.Context) (*domain.Booking, error) {
		booking, err := l.repo.FindByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if booking == nil {
			return nil, domain.ErrBookingNotFound
		}
		if err := fn(booking, at); err != nil {
			return nil, err
		}
		if err := l.persist(txCtx, booking, actorID); err != nil {
			return nil, err
		}
		return booking, nil
	})
}

func (l lifecycle) persist(txCtx context.Context, booking *domain.Booking, actorID uuid.UUID) error {
	if err := l.repo.Save(txCtx, booking); err != nil {
		return err
	}
	events := booking.DomainEvents()
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(txCtx, actorID))
	if err := outbox.SaveEvents(txCtx, l.outboxRepo, events); err != nil {
		return err
	}
	booking.ClearDomainEvents()
	return nil
}
