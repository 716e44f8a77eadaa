package domain

import (
	"strings"
	"time"
)

// SystemAuthor is the author name used for generated audit entries.
const SystemAuthor = "System"

// IsSystemAuthor reports whether name is reserved for generated entries.
func IsSystemAuthor(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), SystemAuthor)
}

// TicketComment is an immutable entry in a ticket's conversation and audit log.
type TicketComment struct {
	ID         string
	TicketID   string
	Content    string
	AuthorName string
	CreatedAt  time.Time
}
