package lifecycle

import (
	"strings"
	"time"

	"github.com/ispdesk/ops-console/internal/domain"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

// Draft is a ticket still being edited on the create form. Until it is
// built, changing its category re-derives the due date from the new SLA,
// unless the operator typed a due date explicitly.
type Draft struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    domain.CategoryCode
	CustomerID  *string
	DueDate     *time.Time

	createdAt      time.Time
	dueDateManual  bool
	categoryChosen bool
}

// NewDraft starts a draft whose creation time is createdAt.
func NewDraft(createdAt time.Time) *Draft {
	return &Draft{createdAt: createdAt.UTC(), Priority: domain.TicketPriorityMedium}
}

// CreatedAt is the reference time for SLA derivation.
func (d *Draft) CreatedAt() time.Time {
	return d.createdAt
}

// ApplyCategory sets the category and, unless overridden, the SLA due date.
func (d *Draft) ApplyCategory(cat domain.TicketCategoryConfig) {
	d.Category = cat.Code
	d.categoryChosen = true
	if !d.dueDateManual {
		due := ComputeDueDate(d.createdAt, cat.SLAHours)
		d.DueDate = &due
	}
}

// SetDueDate pins an explicit due date; later category changes keep it.
func (d *Draft) SetDueDate(due time.Time) {
	due = due.UTC()
	d.DueDate = &due
	d.dueDateManual = true
}

// Build validates the draft and produces an OPEN ticket without an ID.
func (d *Draft) Build() (domain.Ticket, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return domain.Ticket{}, apperrors.NewValidationError("title required", map[string]any{"field": "title"})
	}
	if !d.categoryChosen {
		return domain.Ticket{}, apperrors.NewValidationError("category required", map[string]any{"field": "category"})
	}
	priority := d.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return domain.Ticket{}, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	ticket := domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		Category:    d.Category,
		CustomerID:  d.CustomerID,
		DueDate:     d.DueDate,
		CreatedAt:   d.createdAt,
		UpdatedAt:   d.createdAt,
	}
	return ticket.Clone(), nil
}
