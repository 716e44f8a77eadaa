package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusVerified   TicketStatus = "VERIFIED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusResolved, TicketStatusVerified, TicketStatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate root for support requests. Category holds the
// denormalized code, so retiring a category never rewrites its tickets.
type Ticket struct {
	ID              string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	Category        CategoryCode
	CustomerID      *string
	AssignedTo      *string
	DueDate         *time.Time
	IsEscalated     bool
	ResolutionNotes *string
	RootCause       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so pointer fields are not shared.
func (t Ticket) Clone() Ticket {
	out := t
	out.CustomerID = cloneString(t.CustomerID)
	out.AssignedTo = cloneString(t.AssignedTo)
	out.ResolutionNotes = cloneString(t.ResolutionNotes)
	out.RootCause = cloneString(t.RootCause)
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
