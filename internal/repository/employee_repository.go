package repository

import (
	"context"

	"github.com/ispdesk/ops-console/internal/domain"
)

// EmployeeRepository reads the staff directory. The console never writes to it.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByName(ctx context.Context, name string) (*domain.Employee, error)
}

type employeeRepository struct {
	db DBTX
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(db DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	const query = `SELECT id, name, email, role, active FROM employees WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetByName matches case-insensitively, since assignees are stored by display name.
func (r *employeeRepository) GetByName(ctx context.Context, name string) (*domain.Employee, error) {
	const query = `SELECT id, name, email, role, active FROM employees WHERE LOWER(name)=LOWER($1) LIMIT 1`
	return r.fetchSingle(ctx, query, name)
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var employee domain.Employee
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Role,
		&employee.Active,
	); err != nil {
		return nil, translate(err)
	}
	return &employee, nil
}
