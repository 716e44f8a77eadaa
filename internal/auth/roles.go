package auth

import (
	"github.com/ispdesk/ops-console/internal/domain"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

// Actor is the employee issuing a command.
type Actor struct {
	ID   string
	Name string
	Role domain.EmployeeRole
}

// SystemActor runs boot-time and CLI maintenance tasks.
var SystemActor = Actor{ID: "system", Name: domain.SystemAuthor, Role: domain.EmployeeRoleAdmin}

// Capability names a guarded operation as "resource:action".
type Capability string

const (
	CapTicketCreate     Capability = "tickets:create"
	CapTicketUpdate     Capability = "tickets:update"
	CapTicketAssign     Capability = "tickets:assign"
	CapTicketEscalate   Capability = "tickets:escalate"
	CapTicketDelete     Capability = "tickets:delete"
	CapCategoriesManage Capability = "categories:manage"
	CapCommentAdd       Capability = "comments:add"
)

// Authorizer answers capability checks for an actor.
type Authorizer interface {
	HasPermission(actor Actor, capability Capability) bool
}

// Require fails with UNAUTHORIZED for an anonymous actor and FORBIDDEN when the capability is missing.
func Require(authz Authorizer, actor Actor, capability Capability) error {
	if actor.ID == "" {
		return apperrors.NewUnauthorized("actor required")
	}
	if authz == nil || !authz.HasPermission(actor, capability) {
		return apperrors.NewDomainError(apperrors.CodeForbidden, "insufficient role", 403, map[string]any{
			"capability": capability,
			"role":       actor.Role,
		})
	}
	return nil
}
