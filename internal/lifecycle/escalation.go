package lifecycle

import (
	"strings"
	"time"

	"github.com/ispdesk/ops-console/internal/domain"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

const escalationPrefix = "[ESCALATION]"

// Escalate flags the ticket, forces HIGH priority and optionally reassigns it.
// The returned comment is the audit record and must be persisted before the ticket.
// Repeat calls are accepted and produce another comment.
func Escalate(t domain.Ticket, reason string, assignee *string, now time.Time) (domain.Ticket, domain.TicketComment, error) {
	if err := guard(OpEscalate, t); err != nil {
		return t, domain.TicketComment{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return t, domain.TicketComment{}, apperrors.NewValidationError("escalation reason required", map[string]any{"field": "reason"})
	}

	next := t.Clone()
	next.IsEscalated = true
	next.Priority = domain.TicketPriorityHigh

	var target string
	if assignee != nil {
		target = strings.TrimSpace(*assignee)
	}
	if target != "" {
		next.AssignedTo = &target
		next.Status = domain.TicketStatusAssigned
	}

	comment := domain.TicketComment{
		TicketID:   t.ID,
		Content:    FormatEscalationComment(reason, target),
		AuthorName: domain.SystemAuthor,
		CreatedAt:  now.UTC(),
	}
	return next, comment, nil
}

// FormatEscalationComment renders the audit entry body. An empty assignee omits the second line.
func FormatEscalationComment(reason, assignee string) string {
	var b strings.Builder
	b.WriteString(escalationPrefix)
	b.WriteString(" Reason: ")
	b.WriteString(reason)
	if assignee != "" {
		b.WriteString("\nReassigned to: ")
		b.WriteString(assignee)
	}
	return b.String()
}

// IsEscalationComment reports whether a comment was produced by Escalate.
func IsEscalationComment(c domain.TicketComment) bool {
	return c.AuthorName == domain.SystemAuthor && strings.HasPrefix(c.Content, escalationPrefix)
}
