package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/repository"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

// CategoryCache is a read-through cache of the full registry listing.
type CategoryCache interface {
	Get(ctx context.Context) ([]domain.TicketCategoryConfig, bool, error)
	Set(ctx context.Context, categories []domain.TicketCategoryConfig) error
	Invalidate(ctx context.Context) error
}

// CategoryService manages the ticket category registry.
type CategoryService struct {
	categories repository.CategoryRepository
	cache      CategoryCache
	authz      auth.Authorizer
	logger     *zap.Logger
}

// CategoryDependencies bundles collaborators for CategoryService. Cache is optional.
type CategoryDependencies struct {
	CategoryRepo repository.CategoryRepository
	Cache        CategoryCache
	Authorizer   auth.Authorizer
	Logger       *zap.Logger
}

// CategoryInput describes a new category.
type CategoryInput struct {
	Code        string
	Name        string
	SLAHours    int
	Description string
}

// CategoryPatch holds editable fields. Code is immutable.
type CategoryPatch struct {
	Name        *string
	SLAHours    *int
	Description *string
}

// NewCategoryService constructs the service.
func NewCategoryService(deps CategoryDependencies) *CategoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categories: deps.CategoryRepo,
		cache:      deps.Cache,
		authz:      deps.Authorizer,
		logger:     logger,
	}
}

// Create registers a new category.
func (s *CategoryService) Create(ctx context.Context, actor auth.Actor, input CategoryInput) (*domain.TicketCategoryConfig, error) {
	if err := auth.Require(s.authz, actor, auth.CapCategoriesManage); err != nil {
		return nil, err
	}
	code, err := domain.ParseCategoryCode(input.Code)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "code", "value": input.Code})
	}
	cat := &domain.TicketCategoryConfig{
		Code:        code,
		Name:        strings.TrimSpace(input.Name),
		SLAHours:    input.SLAHours,
		Description: strings.TrimSpace(input.Description),
	}
	if err := validateCategory(*cat); err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewValidationError("category code already exists", map[string]any{"field": "code", "value": code})
		}
		return nil, storageErr("create category", err)
	}
	s.invalidate(ctx)
	s.logger.Info("category created", zap.String("code", code.String()), zap.Int("sla_hours", cat.SLAHours), zap.String("actor_id", actor.ID))
	return cat, nil
}

// Update edits name, SLA hours and description.
func (s *CategoryService) Update(ctx context.Context, actor auth.Actor, id string, patch CategoryPatch) (*domain.TicketCategoryConfig, error) {
	if err := auth.Require(s.authz, actor, auth.CapCategoriesManage); err != nil {
		return nil, err
	}
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("category", id, "load category", err)
	}
	if patch.Name != nil {
		cat.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.SLAHours != nil {
		cat.SLAHours = *patch.SLAHours
	}
	if patch.Description != nil {
		cat.Description = strings.TrimSpace(*patch.Description)
	}
	if err := validateCategory(*cat); err != nil {
		return nil, err
	}

	if err := s.categories.Update(ctx, cat); err != nil {
		return nil, lookupErr("category", id, "update category", err)
	}
	s.invalidate(ctx)
	s.logger.Info("category updated", zap.String("code", cat.Code.String()), zap.Int("sla_hours", cat.SLAHours), zap.String("actor_id", actor.ID))
	return cat, nil
}

// Delete removes a category. Tickets keep their category code.
func (s *CategoryService) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if err := auth.Require(s.authz, actor, auth.CapCategoriesManage); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return lookupErr("category", id, "delete category", err)
	}
	s.invalidate(ctx)
	s.logger.Info("category deleted", zap.String("category_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.TicketCategoryConfig, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("category cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cats); err != nil {
			s.logger.Warn("category cache write failed", zap.Error(err))
		}
	}
	return cats, nil
}

// Get returns a category by id.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.TicketCategoryConfig, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("category", id, "load category", err)
	}
	return cat, nil
}

// GetByCode returns the category registered under code.
func (s *CategoryService) GetByCode(ctx context.Context, code domain.CategoryCode) (*domain.TicketCategoryConfig, error) {
	cat, err := s.categories.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("category", map[string]any{"code": code})
		}
		return nil, storageErr("load category", err)
	}
	return cat, nil
}

// Resolve parses raw and returns the registered category. An unknown code is a validation failure.
func (s *CategoryService) Resolve(ctx context.Context, raw string) (*domain.TicketCategoryConfig, error) {
	code, err := domain.ParseCategoryCode(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "category", "value": raw})
	}
	cat, err := s.GetByCode(ctx, code)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"field": "category", "value": code})
	}
	return cat, err
}

// SeedDefaults writes the starter categories into an empty registry and
// returns how many were inserted.
func (s *CategoryService) SeedDefaults(ctx context.Context, actor auth.Actor) (int, error) {
	if err := auth.Require(s.authz, actor, auth.CapCategoriesManage); err != nil {
		return 0, err
	}
	existing, err := s.categories.List(ctx)
	if err != nil {
		return 0, storageErr("list categories", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	inserted := 0
	for _, def := range domain.DefaultCategories() {
		cat := def
		if err := s.categories.Create(ctx, &cat); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			s.invalidate(ctx)
			return inserted, storageErr("seed categories", err)
		}
		inserted++
	}
	s.invalidate(ctx)
	s.logger.Info("default categories seeded", zap.Int("inserted", inserted), zap.String("actor_id", actor.ID))
	return inserted, nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("category cache invalidate failed", zap.Error(err))
	}
}

func validateCategory(cat domain.TicketCategoryConfig) error {
	if cat.Name == "" {
		return apperrors.NewValidationError("name required", map[string]any{"field": "name"})
	}
	if cat.SLAHours <= 0 {
		return apperrors.NewValidationError("sla_hours must be positive", map[string]any{"field": "sla_hours", "value": cat.SLAHours})
	}
	return nil
}
