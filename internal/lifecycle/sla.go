package lifecycle

import (
	"time"

	"github.com/ispdesk/ops-console/internal/domain"
)

// ComputeDueDate adds slaHours of wall-clock time to ref. Business hours are not modeled.
func ComputeDueDate(ref time.Time, slaHours int) time.Time {
	return ref.Add(time.Duration(slaHours) * time.Hour).UTC()
}

// IsOverdue is derived on read and never stored.
func IsOverdue(t domain.Ticket, now time.Time) bool {
	if t.DueDate == nil || t.Status == domain.TicketStatusClosed {
		return false
	}
	return t.DueDate.Before(now)
}
