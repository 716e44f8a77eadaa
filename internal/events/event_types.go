package events

import (
	"time"

	"github.com/ispdesk/ops-console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketEscalated       EventType = "ticket_escalated"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketCommentAdded    EventType = "ticket_comment_added"
	EventTicketCategoryChanged EventType = "ticket_category_changed"
)

// AllEventTypes lists every event the core emits.
func AllEventTypes() []EventType {
	return []EventType{
		EventTicketCreated,
		EventTicketStatusChanged,
		EventTicketEscalated,
		EventTicketAssigned,
		EventTicketCommentAdded,
		EventTicketCategoryChanged,
	}
}

// Actor identifies the employee behind an event.
type Actor struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string              `json:"id"`
	Type      EventType           `json:"type"`
	TicketID  string              `json:"ticket_id"`
	Status    domain.TicketStatus `json:"status"`
	Actor     Actor               `json:"actor"`
	Customer  *CustomerContact    `json:"customer,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Payload   interface{}         `json:"payload"`
}

// CustomerContact carries what a notifier needs to reach the customer.
type CustomerContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string                `json:"title"`
	Priority domain.TicketPriority `json:"priority"`
	Category domain.CategoryCode   `json:"category"`
	DueDate  *time.Time            `json:"due_date,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo string `json:"assigned_to"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Reason     string              `json:"reason"`
	AssignedTo *string             `json:"assigned_to,omitempty"`
	OldStatus  domain.TicketStatus `json:"old_status"`
	CommentID  string              `json:"comment_id"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorName  string `json:"author_name"`
	BodyPreview string `json:"body_preview"`
}

// TicketCategoryChangedPayload payload.
type TicketCategoryChangedPayload struct {
	OldCategory domain.CategoryCode `json:"old_category"`
	NewCategory domain.CategoryCode `json:"new_category"`
}
