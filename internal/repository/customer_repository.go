package repository

import (
	"context"

	"github.com/ispdesk/ops-console/internal/domain"
)

// CustomerRepository reads subscriber contact details.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type customerRepository struct {
	db DBTX
}

// NewCustomerRepository builds the repository.
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(whatsapp, '')
        FROM customers WHERE id=$1`
	var customer domain.Customer
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.WhatsApp,
	); err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}
