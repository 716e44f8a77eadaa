package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/events"
	"github.com/ispdesk/ops-console/internal/repository"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

const commentPreviewLen = 140

// CommentService manages the append-only ticket conversation.
type CommentService struct {
	tickets  repository.TicketRepository
	comments repository.TicketCommentRepository
	authz    auth.Authorizer
	events   eventPublisher
	logger   *zap.Logger
	clock    Clock
}

// CommentDependencies bundles collaborators for CommentService.
type CommentDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.TicketCommentRepository
	CustomerRepo repository.CustomerRepository
	Authorizer   auth.Authorizer
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Clock        Clock
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		tickets:  deps.TicketRepo,
		comments: deps.CommentRepo,
		authz:    deps.Authorizer,
		events:   eventPublisher{dispatcher: deps.Dispatcher, customers: deps.CustomerRepo, logger: logger, clock: deps.Clock},
		logger:   logger,
		clock:    deps.Clock,
	}
}

// Add appends a comment. An empty author defaults to the actor's name; the
// system author name is reserved for generated audit entries.
func (s *CommentService) Add(ctx context.Context, actor auth.Actor, ticketID, content, author string) (*domain.TicketComment, error) {
	if err := auth.Require(s.authz, actor, auth.CapCommentAdd); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content required", map[string]any{"field": "content"})
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = actor.Name
	}
	if author == "" {
		return nil, apperrors.NewValidationError("author name required", map[string]any{"field": "author_name"})
	}
	if domain.IsSystemAuthor(author) && actor.ID != auth.SystemActor.ID {
		return nil, apperrors.NewValidationError("author name is reserved", map[string]any{"field": "author_name", "value": author})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupErr("ticket", ticketID, "load ticket", err)
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		Content:    content,
		AuthorName: author,
		CreatedAt:  s.clock.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, lookupErr("ticket", ticketID, "add comment", err)
	}

	s.logger.Info("comment added", zap.String("ticket_id", ticket.ID), zap.String("comment_id", comment.ID), zap.String("actor_id", actor.ID))
	s.events.publish(ctx, *ticket, actor, events.EventTicketCommentAdded, events.TicketCommentAddedPayload{
		CommentID:   comment.ID,
		AuthorName:  comment.AuthorName,
		BodyPreview: preview(comment.Content),
	})
	return comment, nil
}

// List returns the ticket's comments, oldest first.
func (s *CommentService) List(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, lookupErr("ticket", ticketID, "load ticket", err)
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storageErr("list comments", err)
	}
	return comments, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= commentPreviewLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:commentPreviewLen]) + "…"
}
