package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/events"
	"github.com/ispdesk/ops-console/internal/lifecycle"
	"github.com/ispdesk/ops-console/internal/repository"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	categories *CategoryService
	employees  repository.EmployeeRepository
	txm        repository.TxManager
	authz      auth.Authorizer
	events     eventPublisher
	metrics    LifecycleMetrics
	logger     *zap.Logger
	clock      Clock
}

// TicketDependencies bundles collaborators for the ticket service.
// EmployeeRepo, CustomerRepo, TxManager and Metrics are optional.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.TicketCommentRepository
	Categories   *CategoryService
	EmployeeRepo repository.EmployeeRepository
	CustomerRepo repository.CustomerRepository
	TxManager    repository.TxManager
	Authorizer   auth.Authorizer
	Dispatcher   events.Dispatcher
	Metrics      LifecycleMetrics
	Logger       *zap.Logger
	Clock        Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    string
	CustomerID  *string
	// DueDate overrides the SLA-derived due date when set.
	DueDate *time.Time
}

// TicketPatch holds editable ticket details. Nil fields are left untouched.
type TicketPatch struct {
	Title        *string
	Description  *string
	Priority     *domain.TicketPriority
	CustomerID   *string
	DueDate      *time.Time
	ClearDueDate bool
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.CategoryCode
	AssignedTo  *string
	CustomerID  *string
	Escalated   *bool
	OverdueOnly bool
	SearchTerm  *string
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		categories: deps.Categories,
		employees:  deps.EmployeeRepo,
		txm:        deps.TxManager,
		authz:      deps.Authorizer,
		events:     eventPublisher{dispatcher: deps.Dispatcher, customers: deps.CustomerRepo, logger: logger, clock: deps.Clock},
		metrics:    metrics,
		logger:     logger,
		clock:      deps.Clock,
	}
}

// Now is the service clock, used for overdue evaluation on read.
func (s *TicketService) Now() time.Time {
	return s.clock.now()
}

// IsOverdue evaluates the ticket against the service clock.
func (s *TicketService) IsOverdue(t domain.Ticket) bool {
	return lifecycle.IsOverdue(t, s.clock.now())
}

// Create builds a ticket from the create form. The due date is derived from
// the category SLA unless the input carries one.
func (s *TicketService) Create(ctx context.Context, actor auth.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := auth.Require(s.authz, actor, auth.CapTicketCreate); err != nil {
		return nil, err
	}
	cat, err := s.categories.Resolve(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	draft := lifecycle.NewDraft(s.clock.now())
	draft.Title = input.Title
	draft.Description = strings.TrimSpace(input.Description)
	if input.Priority != "" {
		draft.Priority = input.Priority
	}
	draft.CustomerID = normalizeOptional(input.CustomerID)
	draft.ApplyCategory(*cat)
	if input.DueDate != nil {
		draft.SetDueDate(*input.DueDate)
	}

	ticket, err := draft.Build()
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, &ticket); err != nil {
		return nil, storageErr("create ticket", err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("category", ticket.Category.String()),
		zap.String("priority", string(ticket.Priority)),
		zap.String("actor_id", actor.ID))
	s.events.publish(ctx, ticket, actor, events.EventTicketCreated, events.TicketCreatedPayload{
		Title:    ticket.Title,
		Priority: ticket.Priority,
		Category: ticket.Category,
		DueDate:  ticket.DueDate,
	})
	return &ticket, nil
}

// PreviewDueDate returns the due date the create form would derive for
// category, relative to createdAt (now when nil).
func (s *TicketService) PreviewDueDate(ctx context.Context, category string, createdAt *time.Time) (time.Time, error) {
	cat, err := s.categories.Resolve(ctx, category)
	if err != nil {
		return time.Time{}, err
	}
	ref := s.clock.now()
	if createdAt != nil {
		ref = createdAt.UTC()
	}
	draft := lifecycle.NewDraft(ref)
	draft.ApplyCategory(*cat)
	return *draft.DueDate, nil
}

// Get returns a ticket by id.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("ticket", id, "load ticket", err)
	}
	return ticket, nil
}

// List returns tickets matching filter, newest first.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Categories: filter.Categories,
		AssignedTo: filter.AssignedTo,
		CustomerID: filter.CustomerID,
		Escalated:  filter.Escalated,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.OverdueOnly {
		now := s.clock.now()
		repoFilter.OverdueAt = &now
	}
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	return tickets, nil
}

// UpdateDetails edits descriptive fields. Escalated tickets stay HIGH.
func (s *TicketService) UpdateDetails(ctx context.Context, actor auth.Actor, id string, patch TicketPatch) (*domain.Ticket, error) {
	if err := auth.Require(s.authz, actor, auth.CapTicketUpdate); err != nil {
		return nil, err
	}
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("ticket", id, "load ticket", err)
	}
	next := current.Clone()

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title required", map[string]any{"field": "title"})
		}
		next.Title = title
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority", "value": *patch.Priority})
		}
		if next.IsEscalated && *patch.Priority != domain.TicketPriorityHigh {
			return nil, apperrors.NewValidationError("escalated tickets must stay HIGH priority", map[string]any{"field": "priority", "value": *patch.Priority})
		}
		next.Priority = *patch.Priority
	}
	if patch.CustomerID != nil {
		next.CustomerID = normalizeOptional(patch.CustomerID)
	}
	switch {
	case patch.ClearDueDate:
		next.DueDate = nil
	case patch.DueDate != nil:
		due := patch.DueDate.UTC()
		next.DueDate = &due
	}

	if err := s.tickets.Update(ctx, &next); err != nil {
		return nil, lookupErr("ticket", id, "update ticket", err)
	}
	s.logger.Info("ticket details updated", zap.String("ticket_id", id), zap.String("actor_id", actor.ID))
	return &next, nil
}

// Delete removes a ticket and its comments.
func (s *TicketService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := auth.Require(s.authz, actor, auth.CapTicketDelete); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return lookupErr("ticket", id, "delete ticket", err)
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// Assign moves an OPEN ticket to ASSIGNED with agent as owner.
func (s *TicketService) Assign(ctx context.Context, actor auth.Actor, id, agent string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, lifecycle.OpAssign, auth.CapTicketAssign, func(t domain.Ticket) (domain.Ticket, error) {
		next, err := lifecycle.Assign(t, agent)
		if err != nil {
			return t, err
		}
		if err := s.checkAssignee(ctx, *next.AssignedTo); err != nil {
			return t, err
		}
		return next, nil
	})
}

// Start moves ASSIGNED to IN_PROGRESS.
func (s *TicketService) Start(ctx context.Context, actor auth.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, lifecycle.OpStart, auth.CapTicketUpdate, lifecycle.Start)
}

// Resolve records resolution notes and moves IN_PROGRESS to RESOLVED.
func (s *TicketService) Resolve(ctx context.Context, actor auth.Actor, id, notes string, rootCause *string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, lifecycle.OpResolve, auth.CapTicketUpdate, func(t domain.Ticket) (domain.Ticket, error) {
		return lifecycle.Resolve(t, notes, rootCause)
	})
}

// Verify moves RESOLVED to VERIFIED.
func (s *TicketService) Verify(ctx context.Context, actor auth.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, lifecycle.OpVerify, auth.CapTicketUpdate, lifecycle.Verify)
}

// Reopen sends a RESOLVED ticket back to IN_PROGRESS.
func (s *TicketService) Reopen(ctx context.Context, actor auth.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, lifecycle.OpReopen, auth.CapTicketUpdate, lifecycle.Reopen)
}

// Close moves VERIFIED to CLOSED.
func (s *TicketService) Close(ctx context.Context, actor auth.Actor, id string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, id, lifecycle.OpClose, auth.CapTicketUpdate, lifecycle.Close)
}

func (s *TicketService) transition(ctx context.Context, actor auth.Actor, id string, op lifecycle.Operation, capability auth.Capability, apply func(domain.Ticket) (domain.Ticket, error)) (*domain.Ticket, error) {
	if err := auth.Require(s.authz, actor, capability); err != nil {
		return nil, err
	}
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("ticket", id, "load ticket", err)
	}
	next, err := apply(*current)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, &next); err != nil {
		return nil, lookupErr("ticket", id, string(op)+" ticket", err)
	}

	s.metrics.RecordTransition(string(op), current.Status, next.Status)
	s.logger.Info("ticket transitioned",
		zap.String("ticket_id", id),
		zap.String("operation", string(op)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
		zap.String("actor_id", actor.ID))

	if op == lifecycle.OpAssign {
		s.events.publish(ctx, next, actor, events.EventTicketAssigned, events.TicketAssignedPayload{AssignedTo: *next.AssignedTo})
	}
	s.events.publish(ctx, next, actor, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
		OldStatus: current.Status,
		NewStatus: next.Status,
	})
	return &next, nil
}

// Escalate flags the ticket, forces HIGH priority and optionally reassigns
// it. The audit comment is written before the ticket; with a TxManager both
// writes commit together.
func (s *TicketService) Escalate(ctx context.Context, actor auth.Actor, id, reason string, assignee *string) (*domain.Ticket, *domain.TicketComment, error) {
	if err := auth.Require(s.authz, actor, auth.CapTicketEscalate); err != nil {
		return nil, nil, err
	}
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, nil, lookupErr("ticket", id, "load ticket", err)
	}
	next, comment, err := lifecycle.Escalate(*current, reason, assignee, s.clock.now())
	if err != nil {
		return nil, nil, err
	}
	reassigned := normalizeOptional(assignee) != nil
	if reassigned {
		if err := s.checkAssignee(ctx, *next.AssignedTo); err != nil {
			return nil, nil, err
		}
	}

	write := func(w repository.TicketWriters) error {
		if err := w.Comments.Create(ctx, &comment); err != nil {
			return lookupErr("ticket", id, "write escalation comment", err)
		}
		if err := w.Tickets.Update(ctx, &next); err != nil {
			return lookupErr("ticket", id, "escalate ticket", err)
		}
		return nil
	}
	if s.txm != nil {
		err = s.txm.WithinTx(ctx, write)
	} else {
		err = write(repository.TicketWriters{Tickets: s.tickets, Comments: s.comments})
	}
	if err != nil {
		return nil, nil, storageErr("escalate ticket", err)
	}

	s.metrics.RecordEscalation(reassigned)
	if next.Status != current.Status {
		s.metrics.RecordTransition(string(lifecycle.OpEscalate), current.Status, next.Status)
	}
	s.logger.Info("ticket escalated",
		zap.String("ticket_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
		zap.Bool("reassigned", reassigned),
		zap.String("actor_id", actor.ID))

	s.events.publish(ctx, next, actor, events.EventTicketEscalated, events.TicketEscalatedPayload{
		Reason:     strings.TrimSpace(reason),
		AssignedTo: next.AssignedTo,
		OldStatus:  current.Status,
		CommentID:  comment.ID,
	})
	if next.Status != current.Status {
		s.events.publish(ctx, next, actor, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: next.Status,
		})
	}
	return &next, &comment, nil
}

// ChangeCategory recategorizes a persisted ticket. The due date is kept.
func (s *TicketService) ChangeCategory(ctx context.Context, actor auth.Actor, id, category string) (*domain.Ticket, error) {
	if err := auth.Require(s.authz, actor, auth.CapTicketUpdate); err != nil {
		return nil, err
	}
	cat, err := s.categories.Resolve(ctx, category)
	if err != nil {
		return nil, err
	}
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("ticket", id, "load ticket", err)
	}
	if current.Category == cat.Code {
		return current, nil
	}

	next := current.Clone()
	next.Category = cat.Code
	if err := s.tickets.Update(ctx, &next); err != nil {
		return nil, lookupErr("ticket", id, "change category", err)
	}
	s.logger.Info("ticket category changed",
		zap.String("ticket_id", id),
		zap.String("from", current.Category.String()),
		zap.String("to", next.Category.String()),
		zap.String("actor_id", actor.ID))
	s.events.publish(ctx, next, actor, events.EventTicketCategoryChanged, events.TicketCategoryChangedPayload{
		OldCategory: current.Category,
		NewCategory: next.Category,
	})
	return &next, nil
}

// checkAssignee validates agent against the staff directory when one is configured.
func (s *TicketService) checkAssignee(ctx context.Context, agent string) error {
	if s.employees == nil {
		return nil
	}
	employee, err := s.employees.GetByName(ctx, agent)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("unknown employee", map[string]any{"field": "assignee", "value": agent})
		}
		return storageErr("load employee", err)
	}
	if !employee.Active {
		return apperrors.NewValidationError("employee is inactive", map[string]any{"field": "assignee", "value": agent})
	}
	return nil
}

func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
