package dto

import (
	"time"

	"github.com/ispdesk/ops-console/internal/domain"
)

// CreateTicketRequest payload. DueDate overrides the SLA-derived due date.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    string                `json:"category"`
	CustomerID  *string               `json:"customer_id"`
	DueDate     *time.Time            `json:"due_date"`
}

// UpdateTicketRequest payload for PATCH /tickets/:id.
type UpdateTicketRequest struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	Priority     *domain.TicketPriority `json:"priority"`
	CustomerID   *string                `json:"customer_id"`
	DueDate      *time.Time             `json:"due_date"`
	ClearDueDate bool                   `json:"clear_due_date"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	Assignee string `json:"assignee"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	ResolutionNotes string  `json:"resolution_notes"`
	RootCause       *string `json:"root_cause"`
}

// EscalateTicketRequest payload.
type EscalateTicketRequest struct {
	Reason   string  `json:"reason"`
	Assignee *string `json:"assignee"`
}

// ChangeCategoryRequest payload.
type ChangeCategoryRequest struct {
	Category string `json:"category"`
}

// DraftDueDateRequest asks for the due date the create form would derive.
type DraftDueDateRequest struct {
	Category  string     `json:"category"`
	CreatedAt *time.Time `json:"created_at"`
}

// DraftDueDateResponse result.
type DraftDueDateResponse struct {
	Category domain.CategoryCode `json:"category"`
	DueDate  time.Time           `json:"due_date"`
}

// TicketResponse is the full ticket view. IsOverdue is computed at read time.
type TicketResponse struct {
	ID                  string                `json:"id"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	Status              domain.TicketStatus   `json:"status"`
	Priority            domain.TicketPriority `json:"priority"`
	Category            domain.CategoryCode   `json:"category"`
	CustomerID          *string               `json:"customer_id"`
	AssignedTo          *string               `json:"assigned_to"`
	DueDate             *time.Time            `json:"due_date"`
	IsEscalated         bool                  `json:"is_escalated"`
	IsOverdue           bool                  `json:"is_overdue"`
	ResolutionNotes     *string               `json:"resolution_notes"`
	RootCause           *string               `json:"root_cause"`
	AvailableOperations []string              `json:"available_operations"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// CreateCommentRequest payload. AuthorName defaults to the caller.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
}

// CommentResponse represents a conversation entry.
type CommentResponse struct {
	ID           string    `json:"id"`
	TicketID     string    `json:"ticket_id"`
	Content      string    `json:"content"`
	AuthorName   string    `json:"author_name"`
	IsEscalation bool      `json:"is_escalation"`
	CreatedAt    time.Time `json:"created_at"`
}

// EscalationResponse returns the escalated ticket with its audit comment.
type EscalationResponse struct {
	Ticket  TicketResponse  `json:"ticket"`
	Comment CommentResponse `json:"comment"`
}
