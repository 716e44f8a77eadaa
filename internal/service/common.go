package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/events"
	"github.com/ispdesk/ops-console/internal/repository"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// LifecycleMetrics receives lifecycle counters.
type LifecycleMetrics interface {
	RecordTransition(operation string, from, to domain.TicketStatus)
	RecordEscalation(reassigned bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordTransition(string, domain.TicketStatus, domain.TicketStatus) {}
func (noopMetrics) RecordEscalation(bool)                                             {}

// storageErr maps a repository failure onto the error taxonomy.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewPersistenceError(op, err)
}

// lookupErr is storageErr with ErrNotFound reported as NOT_FOUND for resource.
func lookupErr(resource, id, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return storageErr(op, err)
}

// eventPublisher fills in the envelope fields every ticket event carries.
type eventPublisher struct {
	dispatcher events.Dispatcher
	customers  repository.CustomerRepository
	logger     *zap.Logger
	clock      Clock
}

func (p eventPublisher) publish(ctx context.Context, ticket domain.Ticket, actor auth.Actor, eventType events.EventType, payload interface{}) {
	if p.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Status:    ticket.Status,
		Actor:     events.Actor{EmployeeID: actor.ID, Name: actor.Name},
		Customer:  p.contact(ctx, ticket),
		Timestamp: p.clock.now(),
		Payload:   payload,
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("publish event failed", zap.String("event_type", string(eventType)), zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

// contact is best effort; a missing directory or customer leaves it nil.
func (p eventPublisher) contact(ctx context.Context, ticket domain.Ticket) *events.CustomerContact {
	if p.customers == nil || ticket.CustomerID == nil {
		return nil
	}
	customer, err := p.customers.GetByID(ctx, *ticket.CustomerID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			p.logger.Warn("customer lookup failed", zap.String("customer_id", *ticket.CustomerID), zap.Error(err))
		}
		return nil
	}
	return &events.CustomerContact{
		ID:       customer.ID,
		Name:     customer.Name,
		Email:    customer.Email,
		Phone:    customer.Phone,
		WhatsApp: customer.WhatsApp,
	}
}
