// Package memory keeps every repository in process memory. It backs local
// runs without POSTGRES_DSN and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/repository"
)

// Store holds all entities behind one lock.
type Store struct {
	mu         sync.RWMutex
	tickets    map[string]domain.Ticket
	comments   map[string][]domain.TicketComment
	categories map[string]domain.TicketCategoryConfig
	employees  map[string]domain.Employee
	customers  map[string]domain.Customer
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tickets:    make(map[string]domain.Ticket),
		comments:   make(map[string][]domain.TicketComment),
		categories: make(map[string]domain.TicketCategoryConfig),
		employees:  make(map[string]domain.Employee),
		customers:  make(map[string]domain.Customer),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Comments returns the comment repository view.
func (s *Store) Comments() repository.TicketCommentRepository { return commentRepo{s} }

// Categories returns the category repository view.
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }

// Employees returns the read-only employee directory view.
func (s *Store) Employees() repository.EmployeeRepository { return employeeRepo{s} }

// Customers returns the read-only customer directory view.
func (s *Store) Customers() repository.CustomerRepository { return customerRepo{s} }

// PutEmployee loads a directory entry.
func (s *Store) PutEmployee(e domain.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.employees[e.ID] = e
}

// PutCustomer loads a customer record.
func (s *Store) PutCustomer(c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.customers[c.ID] = c
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket.ID = uuid.NewString()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.s.now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[ticket.ID]; !ok {
		return repository.ErrNotFound
	}
	ticket.UpdatedAt = r.s.now()
	r.s.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tickets, id)
	delete(r.s.comments, id)
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := ticket.Clone()
	return &out, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	matched := make([]domain.Ticket, 0, len(r.s.tickets))
	for _, ticket := range r.s.tickets {
		if matchesTicket(ticket, filter) {
			matched = append(matched, ticket.Clone())
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func matchesTicket(t domain.Ticket, f repository.TicketFilter) bool {
	if len(f.Statuses) > 0 && !contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, t.Category) {
		return false
	}
	if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
		return false
	}
	if f.CustomerID != nil && (t.CustomerID == nil || *t.CustomerID != *f.CustomerID) {
		return false
	}
	if f.Escalated != nil && t.IsEscalated != *f.Escalated {
		return false
	}
	if f.OverdueAt != nil {
		if t.DueDate == nil || !t.DueDate.Before(*f.OverdueAt) || t.Status == domain.TicketStatusClosed {
			return false
		}
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" && !strings.Contains(strings.ToLower(t.Title), term) && !strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, candidate := range set {
		if candidate == v {
			return true
		}
	}
	return false
}

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	comment.ID = uuid.NewString()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.s.now()
	}
	r.s.comments[comment.TicketID] = append(r.s.comments[comment.TicketID], *comment)
	return nil
}

// ListByTicket orders by created_at; the stable sort keeps insertion order for ties.
func (r commentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	r.s.mu.RLock()
	out := append([]domain.TicketComment{}, r.s.comments[ticketID]...)
	r.s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(_ context.Context, cat *domain.TicketCategoryConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.categories {
		if existing.Code == cat.Code {
			return repository.ErrConflict
		}
	}
	cat.ID = uuid.NewString()
	cat.CreatedAt = r.s.now()
	cat.UpdatedAt = cat.CreatedAt
	r.s.categories[cat.ID] = *cat
	return nil
}

func (r categoryRepo) Update(_ context.Context, cat *domain.TicketCategoryConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.categories[cat.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = cat.Name
	existing.SLAHours = cat.SLAHours
	existing.Description = cat.Description
	existing.UpdatedAt = r.s.now()
	r.s.categories[cat.ID] = existing
	*cat = existing
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.categories, id)
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, id string) (*domain.TicketCategoryConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cat, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cat, nil
}

func (r categoryRepo) GetByCode(_ context.Context, code domain.CategoryCode) (*domain.TicketCategoryConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, cat := range r.s.categories {
		if cat.Code == code {
			out := cat
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r categoryRepo) List(_ context.Context) ([]domain.TicketCategoryConfig, error) {
	r.s.mu.RLock()
	out := make([]domain.TicketCategoryConfig, 0, len(r.s.categories))
	for _, cat := range r.s.categories {
		out = append(out, cat)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type employeeRepo struct{ s *Store }

func (r employeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r employeeRepo) GetByName(_ context.Context, name string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.employees {
		if strings.EqualFold(e.Name, name) {
			out := e
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

type customerRepo struct{ s *Store }

func (r customerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}
