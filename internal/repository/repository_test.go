package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ispdesk/ops-console/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "ticket_categories_code_key"}, ErrConflict},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrConflict},
		{"other passes through", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}

	fk := &pgconn.PgError{Code: "23503"}
	assert.Same(t, fk, translate(fk))
}

func TestTicketListPlaceholderNumbering(t *testing.T) {
	db := &fakeDB{}
	repo := NewTicketRepository(db)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	escalated := true

	_, err := repo.List(context.Background(), TicketFilter{
		Statuses:   []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusAssigned},
		AssignedTo: strPtr("Jane"),
		Escalated:  &escalated,
		OverdueAt:  &now,
		SearchTerm: strPtr("  Fiber "),
		Limit:      10,
		Offset:     20,
	})
	require.NoError(t, err)

	call := db.last()
	assert.Contains(t, call.sql, "status = ANY($1)")
	assert.Contains(t, call.sql, "assigned_to=$2")
	assert.Contains(t, call.sql, "is_escalated=$3")
	assert.Contains(t, call.sql, "due_date < $4 AND status <> $5")
	assert.Contains(t, call.sql, "(LOWER(title) LIKE $6 OR LOWER(description) LIKE $6)")
	assert.Contains(t, call.sql, "ORDER BY created_at DESC LIMIT 10 OFFSET 20")
	assert.NotContains(t, call.sql, "$7")
	assert.Equal(t, []any{
		[]domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusAssigned},
		"Jane",
		true,
		now,
		domain.TicketStatusClosed,
		"%fiber%",
	}, call.args)
}

func TestTicketListOverdueOnly(t *testing.T) {
	db := &fakeDB{}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := NewTicketRepository(db).List(context.Background(), TicketFilter{OverdueAt: &now, Offset: -5})
	require.NoError(t, err)

	call := db.last()
	assert.Contains(t, call.sql, "WHERE 1=1 AND due_date < $1 AND status <> $2 ORDER BY")
	assert.Contains(t, call.sql, "LIMIT 20 OFFSET 0")
	assert.Equal(t, []any{now, domain.TicketStatusClosed}, call.args)
}

func TestTicketListBlankSearchIsIgnored(t *testing.T) {
	db := &fakeDB{}
	_, err := NewTicketRepository(db).List(context.Background(), TicketFilter{
		Categories: []domain.CategoryCode{"billing"},
		SearchTerm: strPtr("   "),
	})
	require.NoError(t, err)

	call := db.last()
	assert.Contains(t, call.sql, "category = ANY($1)")
	assert.NotContains(t, call.sql, "LIKE")
	assert.Len(t, call.args, 1)
}

func TestTicketListScansRows(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	due := created.Add(4 * time.Hour)
	db := &fakeDB{rows: [][]any{
		{"t-1", "Offline", "no sync", "ASSIGNED", "HIGH", "internet_issue", nil, strPtr("Jane"),
			&due, true, nil, nil, created, created},
		{"t-2", "Invoice", "", "OPEN", "MEDIUM", "billing", strPtr("cust-9"), nil,
			nil, false, nil, nil, created, created},
	}}

	tickets, err := NewTicketRepository(db).List(context.Background(), TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, domain.TicketStatusAssigned, tickets[0].Status)
	assert.Equal(t, domain.TicketPriorityHigh, tickets[0].Priority)
	assert.Equal(t, domain.CategoryCode("internet_issue"), tickets[0].Category)
	require.NotNil(t, tickets[0].AssignedTo)
	assert.Equal(t, "Jane", *tickets[0].AssignedTo)
	require.NotNil(t, tickets[0].DueDate)
	assert.Equal(t, due, *tickets[0].DueDate)
	assert.True(t, tickets[0].IsEscalated)

	assert.Nil(t, tickets[1].DueDate)
	require.NotNil(t, tickets[1].CustomerID)
	assert.Equal(t, "cust-9", *tickets[1].CustomerID)
}

func TestTicketUpdateMissingRow(t *testing.T) {
	db := &fakeDB{err: pgx.ErrNoRows}
	ticket := &domain.Ticket{ID: "t-404", Title: "x", Status: domain.TicketStatusOpen}

	err := NewTicketRepository(db).Update(context.Background(), ticket)
	assert.ErrorIs(t, err, ErrNotFound)

	call := db.last()
	assert.Contains(t, call.sql, "WHERE id=$12")
	require.Len(t, call.args, 12)
	assert.Equal(t, "t-404", call.args[11])
}

func TestTicketDeleteRowsAffected(t *testing.T) {
	db := &fakeDB{tag: "DELETE 0"}
	repo := NewTicketRepository(db)
	assert.ErrorIs(t, repo.Delete(context.Background(), "t-1"), ErrNotFound)

	db.tag = "DELETE 1"
	assert.NoError(t, repo.Delete(context.Background(), "t-1"))
	assert.Equal(t, []any{"t-1"}, db.last().args)
}

func TestCommentListOrdering(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: [][]any{
		{"c-1", "t-1", "[ESCALATION] Reason: outage", domain.SystemAuthor, at},
		{"c-2", "t-1", "On site", "Jane", at},
	}}

	comments, err := NewTicketCommentRepository(db).ListByTicket(context.Background(), "t-1")
	require.NoError(t, err)

	call := db.last()
	assert.Contains(t, call.sql, "WHERE ticket_id=$1")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(call.sql), "ORDER BY created_at ASC, seq ASC"))
	assert.Equal(t, []any{"t-1"}, call.args)
	require.Len(t, comments, 2)
	assert.Equal(t, []string{"c-1", "c-2"}, []string{comments[0].ID, comments[1].ID})
}

func TestCommentCreateReturnsID(t *testing.T) {
	db := &fakeDB{row: []any{"c-7"}}
	comment := &domain.TicketComment{TicketID: "t-1", Content: "hello", AuthorName: "Jane", CreatedAt: time.Unix(0, 0).UTC()}

	require.NoError(t, NewTicketCommentRepository(db).Create(context.Background(), comment))
	assert.Equal(t, "c-7", comment.ID)
	assert.Equal(t, []any{"t-1", "hello", "Jane", time.Unix(0, 0).UTC()}, db.last().args)
}

func TestCategoryRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	db := &fakeDB{err: &pgconn.PgError{Code: "23505"}}
	err := NewCategoryRepository(db).Create(ctx, &domain.TicketCategoryConfig{Code: "billing", Name: "Billing", SLAHours: 24})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, domain.CategoryCode("billing"), db.last().args[0])

	db = &fakeDB{err: pgx.ErrNoRows}
	_, err = NewCategoryRepository(db).GetByCode(ctx, "fiber")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, db.last().sql, "WHERE code=$1")

	db = &fakeDB{tag: "DELETE 0"}
	assert.ErrorIs(t, NewCategoryRepository(db).Delete(ctx, "cat-1"), ErrNotFound)
}

func TestCategoryUpdateNeverWritesCode(t *testing.T) {
	db := &fakeDB{row: []any{time.Unix(10, 0).UTC()}}
	cat := &domain.TicketCategoryConfig{ID: "cat-1", Code: "billing", Name: "Billing", SLAHours: 12}

	require.NoError(t, NewCategoryRepository(db).Update(context.Background(), cat))
	call := db.last()
	assert.NotContains(t, call.sql, "code")
	assert.Equal(t, []any{"Billing", 12, "", "cat-1"}, call.args)
	assert.Equal(t, time.Unix(10, 0).UTC(), cat.UpdatedAt)
}

func TestCategoryListScansRows(t *testing.T) {
	at := time.Unix(0, 0).UTC()
	db := &fakeDB{rows: [][]any{
		{"cat-1", "billing", "Billing", 24, "", at, at},
		{"cat-2", "internet_issue", "Internet Issue", 4, "Connectivity", at, at},
	}}

	cats, err := NewCategoryRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, domain.CategoryCode("internet_issue"), cats[1].Code)
	assert.Equal(t, 4, cats[1].SLAHours)
	assert.Contains(t, db.last().sql, "ORDER BY name ASC")
}
