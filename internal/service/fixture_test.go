package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/events"
	"github.com/ispdesk/ops-console/internal/repository"
	"github.com/ispdesk/ops-console/internal/repository/memory"
)

var (
	adminActor   = auth.Actor{ID: "emp-admin", Name: "Ada Admin", Role: domain.EmployeeRoleAdmin}
	managerActor = auth.Actor{ID: "emp-mgr", Name: "Mia Manager", Role: domain.EmployeeRoleManager}
	supportActor = auth.Actor{ID: "emp-sup", Name: "Sam Support", Role: domain.EmployeeRoleSupport}
	techActor    = auth.Actor{ID: "emp-tech", Name: "Jane Tech", Role: domain.EmployeeRoleTechnician}
)

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store      *memory.Store
	now        time.Time
	recorder   *recorder
	categories *CategoryService
	tickets    *TicketService
	comments   *CommentService
}

type fixtureOptions struct {
	ticketRepo repository.TicketRepository
	employees  repository.EmployeeRepository
	txm        repository.TxManager
	cache      CategoryCache
}

func newFixture(t *testing.T, opts ...func(*memory.Store, *fixtureOptions)) *fixture {
	t.Helper()
	authz, err := auth.NewCasbinAuthorizer("", zap.NewNop())
	require.NoError(t, err)

	f := &fixture{store: memory.NewStore(), now: baseTime, recorder: &recorder{}}
	o := fixtureOptions{ticketRepo: f.store.Tickets()}
	for _, opt := range opts {
		opt(f.store, &o)
	}

	clock := Clock(func() time.Time { return f.now })
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	events.SubscribeAll(dispatcher, f.recorder.handle)

	f.categories = NewCategoryService(CategoryDependencies{
		CategoryRepo: f.store.Categories(),
		Cache:        o.cache,
		Authorizer:   authz,
	})
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:   o.ticketRepo,
		CommentRepo:  f.store.Comments(),
		Categories:   f.categories,
		EmployeeRepo: o.employees,
		CustomerRepo: f.store.Customers(),
		TxManager:    o.txm,
		Authorizer:   authz,
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
		Clock:        clock,
	})
	f.comments = NewCommentService(CommentDependencies{
		TicketRepo:   o.ticketRepo,
		CommentRepo:  f.store.Comments(),
		CustomerRepo: f.store.Customers(),
		Authorizer:   authz,
		Dispatcher:   dispatcher,
		Clock:        clock,
	})

	_, err = f.categories.SeedDefaults(context.Background(), adminActor)
	require.NoError(t, err)
	return f
}

func (f *fixture) createTicket(t *testing.T, category string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), supportActor, TicketCreateInput{
		Title:    "No internet at 12 Elm St",
		Category: category,
	})
	require.NoError(t, err)
	return ticket
}

// ticketRepoStub overrides selected methods of an embedded repository.
type ticketRepoStub struct {
	repository.TicketRepository
	UpdateFunc func(ctx context.Context, ticket *domain.Ticket) error
}

func (s ticketRepoStub) Update(ctx context.Context, ticket *domain.Ticket) error {
	if s.UpdateFunc != nil {
		return s.UpdateFunc(ctx, ticket)
	}
	return s.TicketRepository.Update(ctx, ticket)
}

// txManagerStub runs fn against the given writers and counts calls.
type txManagerStub struct {
	writers repository.TicketWriters
	calls   int
}

func (m *txManagerStub) WithinTx(_ context.Context, fn func(repository.TicketWriters) error) error {
	m.calls++
	return fn(m.writers)
}

func strPtr(s string) *string { return &s }
