package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidCategoryCode is returned for codes outside [a-z0-9_]+.
var ErrInvalidCategoryCode = errors.New("category code must contain only lowercase letters, digits and underscores")

// CategoryCode is the slug that identifies a ticket category.
type CategoryCode string

// ParseCategoryCode normalizes and validates a raw category code.
func ParseCategoryCode(raw string) (CategoryCode, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrInvalidCategoryCode
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return "", ErrInvalidCategoryCode
		}
	}
	return CategoryCode(code), nil
}

func (c CategoryCode) String() string {
	return string(c)
}

// TicketCategoryConfig is a registry entry carrying the SLA for its tickets.
type TicketCategoryConfig struct {
	ID          string
	Code        CategoryCode
	Name        string
	SLAHours    int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultCategories is the starter set written by the seed operation.
func DefaultCategories() []TicketCategoryConfig {
	return []TicketCategoryConfig{
		{Code: "internet_issue", Name: "Internet Issue", SLAHours: 4, Description: "Connectivity loss or degraded speed"},
		{Code: "billing", Name: "Billing", SLAHours: 24, Description: "Invoices, payments and plan charges"},
		{Code: "hardware", Name: "Hardware", SLAHours: 48, Description: "Router, ONT and CPE faults"},
		{Code: "installation", Name: "Installation", SLAHours: 72, Description: "New connections and relocations"},
		{Code: "other", Name: "Other", SLAHours: 24, Description: ""},
	}
}
