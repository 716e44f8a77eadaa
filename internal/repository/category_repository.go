package repository

import (
	"context"

	"github.com/ispdesk/ops-console/internal/domain"
)

// CategoryRepository manages the ticket category registry.
type CategoryRepository interface {
	Create(ctx context.Context, cat *domain.TicketCategoryConfig) error
	Update(ctx context.Context, cat *domain.TicketCategoryConfig) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketCategoryConfig, error)
	GetByCode(ctx context.Context, code domain.CategoryCode) (*domain.TicketCategoryConfig, error)
	List(ctx context.Context) ([]domain.TicketCategoryConfig, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, code, name, sla_hours, description, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, cat *domain.TicketCategoryConfig) error {
	const query = `
        INSERT INTO ticket_categories (code, name, sla_hours, description)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		cat.Code,
		cat.Name,
		cat.SLAHours,
		cat.Description,
	).Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)
	return translate(err)
}

// Update never touches code; it is immutable once created.
func (r *categoryRepository) Update(ctx context.Context, cat *domain.TicketCategoryConfig) error {
	const query = `
        UPDATE ticket_categories SET name=$1, sla_hours=$2, description=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		cat.Name,
		cat.SLAHours,
		cat.Description,
		cat.ID,
	).Scan(&cat.UpdatedAt)
	return translate(err)
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.TicketCategoryConfig, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM ticket_categories WHERE id=$1`, id)
}

func (r *categoryRepository) GetByCode(ctx context.Context, code domain.CategoryCode) (*domain.TicketCategoryConfig, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM ticket_categories WHERE code=$1`, code)
}

func (r *categoryRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.TicketCategoryConfig, error) {
	var cat domain.TicketCategoryConfig
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&cat.ID,
		&cat.Code,
		&cat.Name,
		&cat.SLAHours,
		&cat.Description,
		&cat.CreatedAt,
		&cat.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &cat, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.TicketCategoryConfig, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM ticket_categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketCategoryConfig{}
	for rows.Next() {
		var cat domain.TicketCategoryConfig
		if err := rows.Scan(&cat.ID, &cat.Code, &cat.Name, &cat.SLAHours, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}
