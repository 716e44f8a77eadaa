package auth

import (
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/domain"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// CasbinAuthorizer maps employee roles to capabilities with a Casbin enforcer.
type CasbinAuthorizer struct {
	enforcer *casbin.SyncedEnforcer
	logger   *zap.Logger
}

// NewCasbinAuthorizer builds the built-in role table. Rules in the CSV at
// policyPath, when set, are added on top of it.
func NewCasbinAuthorizer(policyPath string, logger *zap.Logger) (*CasbinAuthorizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if policyPath != "" {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(policyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, err
	}
	// defaults live in memory only; the policy file is never rewritten
	enforcer.EnableAutoSave(false)

	a := &CasbinAuthorizer{enforcer: enforcer, logger: logger}
	if err := a.loadDefaults(); err != nil {
		return nil, err
	}
	if policyPath != "" {
		logger.Info("loaded casbin policy file", zap.String("path", policyPath))
	}
	return a, nil
}

func roleSubject(role domain.EmployeeRole) string {
	return "role:" + string(role)
}

// Technicians work tickets; support staff also triage them; managers own the
// category registry; admins can do everything, including deletion.
func (a *CasbinAuthorizer) loadDefaults() error {
	policies := [][]string{
		{roleSubject(domain.EmployeeRoleTechnician), "tickets", "update"},
		{roleSubject(domain.EmployeeRoleTechnician), "tickets", "escalate"},
		{roleSubject(domain.EmployeeRoleTechnician), "comments", "add"},
		{roleSubject(domain.EmployeeRoleSupport), "tickets", "create"},
		{roleSubject(domain.EmployeeRoleSupport), "tickets", "assign"},
		{roleSubject(domain.EmployeeRoleManager), "categories", "manage"},
		{roleSubject(domain.EmployeeRoleAdmin), "*", "*"},
	}
	for _, p := range policies {
		if _, err := a.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	groups := [][]string{
		{roleSubject(domain.EmployeeRoleSupport), roleSubject(domain.EmployeeRoleTechnician)},
		{roleSubject(domain.EmployeeRoleManager), roleSubject(domain.EmployeeRoleSupport)},
	}
	for _, g := range groups {
		if _, err := a.enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}
	return nil
}

// HasPermission implements Authorizer.
func (a *CasbinAuthorizer) HasPermission(actor Actor, capability Capability) bool {
	obj, act, ok := strings.Cut(string(capability), ":")
	if !ok {
		return false
	}
	allowed, err := a.enforcer.Enforce(roleSubject(actor.Role), obj, act)
	if err != nil {
		a.logger.Warn("casbin enforce failed", zap.String("role", string(actor.Role)), zap.String("capability", string(capability)), zap.Error(err))
		return false
	}
	if !allowed {
		a.logger.Debug("capability denied", zap.String("actor_id", actor.ID), zap.String("role", string(actor.Role)), zap.String("capability", string(capability)))
	}
	return allowed
}
