package dto

import (
	"time"

	"github.com/ispdesk/ops-console/internal/domain"
)

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	SLAHours    int    `json:"sla_hours"`
	Description string `json:"description"`
}

// UpdateCategoryRequest payload. Code is accepted only to reject changes to it.
type UpdateCategoryRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	SLAHours    *int    `json:"sla_hours"`
	Description *string `json:"description"`
}

// CategoryResponse represents a registry entry.
type CategoryResponse struct {
	ID          string              `json:"id"`
	Code        domain.CategoryCode `json:"code"`
	Name        string              `json:"name"`
	SLAHours    int                 `json:"sla_hours"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// SeedCategoriesResponse reports how many defaults were written.
type SeedCategoriesResponse struct {
	Inserted int `json:"inserted"`
}
