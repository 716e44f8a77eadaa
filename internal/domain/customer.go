package domain

// Customer is a subscriber record; only contact fields matter to tickets.
type Customer struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	WhatsApp string
}
