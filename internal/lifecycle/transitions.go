// Package lifecycle holds the ticket state machine. Every function here
// computes a new ticket value and leaves persistence to the caller.
package lifecycle

import (
	"strings"

	"github.com/ispdesk/ops-console/internal/domain"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

// Operation names a lifecycle command.
type Operation string

const (
	OpAssign   Operation = "assign"
	OpStart    Operation = "start"
	OpResolve  Operation = "resolve"
	OpVerify   Operation = "verify"
	OpReopen   Operation = "reopen"
	OpClose    Operation = "close"
	OpEscalate Operation = "escalate"
)

type rule struct {
	from []domain.TicketStatus
	to   domain.TicketStatus
}

// Escalation keeps the current status unless a reassignment moves it to ASSIGNED,
// so its rule has no fixed target.
var rules = map[Operation]rule{
	OpAssign:  {from: []domain.TicketStatus{domain.TicketStatusOpen}, to: domain.TicketStatusAssigned},
	OpStart:   {from: []domain.TicketStatus{domain.TicketStatusAssigned}, to: domain.TicketStatusInProgress},
	OpResolve: {from: []domain.TicketStatus{domain.TicketStatusInProgress}, to: domain.TicketStatusResolved},
	OpVerify:  {from: []domain.TicketStatus{domain.TicketStatusResolved}, to: domain.TicketStatusVerified},
	OpReopen:  {from: []domain.TicketStatus{domain.TicketStatusResolved}, to: domain.TicketStatusInProgress},
	OpClose:   {from: []domain.TicketStatus{domain.TicketStatusVerified}, to: domain.TicketStatusClosed},
	OpEscalate: {from: []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusVerified,
	}},
}

var operationOrder = []Operation{OpAssign, OpStart, OpResolve, OpVerify, OpReopen, OpClose, OpEscalate}

// CanApply reports whether op is defined for status.
func CanApply(op Operation, status domain.TicketStatus) bool {
	r, ok := rules[op]
	if !ok {
		return false
	}
	for _, candidate := range r.from {
		if candidate == status {
			return true
		}
	}
	return false
}

// AvailableOperations lists the commands defined for status, in workflow order.
func AvailableOperations(status domain.TicketStatus) []Operation {
	ops := make([]Operation, 0, 2)
	for _, op := range operationOrder {
		if CanApply(op, status) {
			ops = append(ops, op)
		}
	}
	return ops
}

func guard(op Operation, t domain.Ticket) error {
	if !CanApply(op, t.Status) {
		return apperrors.NewInvalidTransition(string(op), string(t.Status))
	}
	return nil
}

// Assign hands an OPEN ticket to an agent.
func Assign(t domain.Ticket, agent string) (domain.Ticket, error) {
	if err := guard(OpAssign, t); err != nil {
		return t, err
	}
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return t, apperrors.NewValidationError("agent required", map[string]any{"field": "assigned_to"})
	}
	next := t.Clone()
	next.AssignedTo = &agent
	next.Status = rules[OpAssign].to
	return next, nil
}

// Start moves an ASSIGNED ticket into work.
func Start(t domain.Ticket) (domain.Ticket, error) {
	return move(OpStart, t)
}

// Resolve records the fix. Notes are mandatory, root cause is optional.
func Resolve(t domain.Ticket, notes string, rootCause *string) (domain.Ticket, error) {
	if err := guard(OpResolve, t); err != nil {
		return t, err
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return t, apperrors.NewValidationError("resolution notes required", map[string]any{"field": "resolution_notes"})
	}
	next := t.Clone()
	next.ResolutionNotes = &notes
	if rootCause != nil {
		if rc := strings.TrimSpace(*rootCause); rc != "" {
			next.RootCause = &rc
		}
	}
	next.Status = rules[OpResolve].to
	return next, nil
}

// Verify confirms a resolution.
func Verify(t domain.Ticket) (domain.Ticket, error) {
	return move(OpVerify, t)
}

// Reopen sends a RESOLVED ticket back to work. Resolution notes and the due date are kept.
func Reopen(t domain.Ticket) (domain.Ticket, error) {
	return move(OpReopen, t)
}

// Close finishes a VERIFIED ticket. Escalation stays flagged.
func Close(t domain.Ticket) (domain.Ticket, error) {
	return move(OpClose, t)
}

func move(op Operation, t domain.Ticket) (domain.Ticket, error) {
	if err := guard(op, t); err != nil {
		return t, err
	}
	next := t.Clone()
	next.Status = rules[op].to
	return next, nil
}
