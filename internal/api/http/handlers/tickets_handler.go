package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ispdesk/ops-console/internal/api/dto"
	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/lifecycle"
	"github.com/ispdesk/ops-console/internal/service"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

const (
	maxPageSize = 100
	maxPage     = 10000
)

// TicketsHandler exposes ticket commands and queries.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, commentService *service.CommentService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, comments: commentService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		CustomerID:  req.CustomerID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// PreviewDueDate POST /tickets/draft/due-date.
func (h *TicketsHandler) PreviewDueDate(c *fiber.Ctx) error {
	var req dto.DraftDueDateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	due, err := h.tickets.PreviewDueDate(c.UserContext(), req.Category, req.CreatedAt)
	if err != nil {
		return err
	}
	code, _ := domain.ParseCategoryCode(req.Category)
	return c.JSON(fiber.Map{"data": dto.DraftDueDateResponse{Category: code, DueDate: due}})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateDetails(c.UserContext(), actor, c.Params("id"), service.TicketPatch{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		CustomerID:   req.CustomerID,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Assign(c.UserContext(), actor, c.Params("id"), req.Assignee)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// StartTicket POST /tickets/:id/start.
func (h *TicketsHandler) StartTicket(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.tickets.Start)
}

// ResolveTicket POST /tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ResolveTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Resolve(c.UserContext(), actor, c.Params("id"), req.ResolutionNotes, req.RootCause)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// VerifyTicket POST /tickets/:id/verify.
func (h *TicketsHandler) VerifyTicket(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.tickets.Verify)
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.tickets.Reopen)
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	return h.simpleTransition(c, h.tickets.Close)
}

// EscalateTicket POST /tickets/:id/escalate.
func (h *TicketsHandler) EscalateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.EscalateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, comment, err := h.tickets.Escalate(c.UserContext(), actor, c.Params("id"), req.Reason, req.Assignee)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EscalationResponse{
		Ticket:  h.ticketResponse(ticket),
		Comment: commentResponse(comment),
	}})
}

// ChangeCategory PUT /tickets/:id/category.
func (h *TicketsHandler) ChangeCategory(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ChangeCategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.ChangeCategory(c.UserContext(), actor, c.Params("id"), req.Category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.comments.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.comments.Add(c.UserContext(), actor, c.Params("id"), req.Content, req.AuthorName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

type transitionFunc func(ctx context.Context, actor auth.Actor, id string) (*domain.Ticket, error)

func (h *TicketsHandler) simpleTransition(c *fiber.Ctx, apply transitionFunc) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := apply(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

func parseTicketFilter(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	for _, raw := range splitQuery(c.Query("status")) {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return filter, apperrors.NewValidationError("invalid status filter", map[string]any{"field": "status", "value": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitQuery(c.Query("priority")) {
		priority := domain.TicketPriority(raw)
		if !priority.Valid() {
			return filter, apperrors.NewValidationError("invalid priority filter", map[string]any{"field": "priority", "value": raw})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	for _, raw := range splitQuery(c.Query("category")) {
		code, err := domain.ParseCategoryCode(raw)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), map[string]any{"field": "category", "value": raw})
		}
		filter.Categories = append(filter.Categories, code)
	}
	filter.AssignedTo = optionalQuery(c, "assigned_to")
	filter.CustomerID = optionalQuery(c, "customer_id")
	filter.SearchTerm = optionalQuery(c, "q")

	escalated, err := parseBoolQuery(c, "escalated")
	if err != nil {
		return filter, err
	}
	filter.Escalated = escalated
	overdue, err := parseBoolQuery(c, "overdue")
	if err != nil {
		return filter, err
	}
	filter.OverdueOnly = overdue != nil && *overdue

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 20)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page > maxPage {
		return filter, apperrors.NewValidationError("page out of range", map[string]any{"field": "page", "max": maxPage})
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func (h *TicketsHandler) ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	ops := lifecycle.AvailableOperations(ticket.Status)
	available := make([]string, 0, len(ops))
	for _, op := range ops {
		available = append(available, string(op))
	}
	return dto.TicketResponse{
		ID:                  ticket.ID,
		Title:               ticket.Title,
		Description:         ticket.Description,
		Status:              ticket.Status,
		Priority:            ticket.Priority,
		Category:            ticket.Category,
		CustomerID:          ticket.CustomerID,
		AssignedTo:          ticket.AssignedTo,
		DueDate:             ticket.DueDate,
		IsEscalated:         ticket.IsEscalated,
		IsOverdue:           h.tickets.IsOverdue(*ticket),
		ResolutionNotes:     ticket.ResolutionNotes,
		RootCause:           ticket.RootCause,
		AvailableOperations: available,
		CreatedAt:           ticket.CreatedAt,
		UpdatedAt:           ticket.UpdatedAt,
	}
}

func commentResponse(comment *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:           comment.ID,
		TicketID:     comment.TicketID,
		Content:      comment.Content,
		AuthorName:   comment.AuthorName,
		IsEscalation: lifecycle.IsEscalationComment(*comment),
		CreatedAt:    comment.CreatedAt,
	}
}
