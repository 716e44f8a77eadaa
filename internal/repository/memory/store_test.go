package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/repository"
)

func TestTicketDeleteCascadesComments(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := &domain.Ticket{Title: "Fiber cut", Status: domain.TicketStatusOpen, Category: "internet_issue"}
	require.NoError(t, store.Tickets().Create(ctx, ticket))
	require.NoError(t, store.Comments().Create(ctx, &domain.TicketComment{TicketID: ticket.ID, Content: "on it", AuthorName: "Ana"}))

	require.NoError(t, store.Tickets().Delete(ctx, ticket.ID))

	comments, err := store.Comments().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	err = store.Comments().Create(ctx, &domain.TicketComment{TicketID: ticket.ID, Content: "late"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCommentsKeepInsertionOrderOnTies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ticket := &domain.Ticket{Title: "Slow link", Status: domain.TicketStatusOpen}
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, body := range []string{"first", "second", "third"} {
		require.NoError(t, store.Comments().Create(ctx, &domain.TicketComment{TicketID: ticket.ID, Content: body, CreatedAt: at}))
	}

	comments, err := store.Comments().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "third", comments[2].Content)
}

func TestCategoryCodeIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Categories().Create(ctx, &domain.TicketCategoryConfig{Code: "billing", Name: "Billing", SLAHours: 24}))

	err := store.Categories().Create(ctx, &domain.TicketCategoryConfig{Code: "billing", Name: "Billing 2", SLAHours: 8})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestTicketListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	overdue := &domain.Ticket{Title: "Overdue", Status: domain.TicketStatusInProgress, DueDate: &past, CreatedAt: now.Add(-3 * time.Hour)}
	closed := &domain.Ticket{Title: "Closed", Status: domain.TicketStatusClosed, DueDate: &past, CreatedAt: now.Add(-2 * time.Hour)}
	escalated := &domain.Ticket{Title: "Escalated", Status: domain.TicketStatusOpen, IsEscalated: true, CreatedAt: now.Add(-time.Hour)}
	for _, tk := range []*domain.Ticket{overdue, closed, escalated} {
		require.NoError(t, store.Tickets().Create(ctx, tk))
	}

	got, err := store.Tickets().List(ctx, repository.TicketFilter{OverdueAt: &now})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, overdue.ID, got[0].ID)

	yes := true
	got, err = store.Tickets().List(ctx, repository.TicketFilter{Escalated: &yes})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, escalated.ID, got[0].ID)

	got, err = store.Tickets().List(ctx, repository.TicketFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, escalated.ID, got[0].ID)
}
