// Package authz decides whether a role may use a named permission.
// Policies live in the casbin_rule table and are matched with casbin keyMatch,
// so "finance.*" grants every finance permission.
package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
	// AllTenants is the policy domain that applies to every tenant
	AllTenants = "*"
)

const permissionModel = `
[request_definition]
r = sub, dom, obj

[policy_definition]
p = sub, dom, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && (p.dom == "*" || r.dom == p.dom) && keyMatch(r.obj, p.obj)
`

// Policy grants a permission pattern to a role within a tenant domain
type Policy struct {
	Role       string `json:"role"`
	Domain     string `json:"domain"`
	Permission string `json:"permission"`
}

// Service wraps a synced casbin enforcer
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService builds the enforcer over db and loads the stored policy
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(permissionModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch", util.KeyMatchFunc)
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

// Allowed reports whether any of roles grants permission in tenant
func (s *Service) Allowed(tenantID string, roles []string, permission string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	permission = NormalizePermission(permission)
	for _, role := range roles {
		subject, err := SubjectForRole(role)
		if err != nil {
			continue
		}
		ok, err := s.enforcer.Enforce(subject, tenantID, permission)
		if err != nil {
			return false, fmt.Errorf("enforce %s on %s: %w", subject, permission, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Grant adds a permission pattern to role in domain
func (s *Service) Grant(p Policy) error {
	subject, err := SubjectForRole(p.Role)
	if err != nil {
		return err
	}
	domain := normalizeDomain(p.Domain)
	perm := NormalizePermission(p.Permission)
	if perm == "" {
		return fmt.Errorf("permission is required")
	}
	if _, err := s.enforcer.AddPolicy(subject, domain, perm); err != nil {
		return fmt.Errorf("grant %s to %s: %w", perm, subject, err)
	}
	return nil
}

// Revoke removes a permission pattern from role in domain
func (s *Service) Revoke(p Policy) error {
	subject, err := SubjectForRole(p.Role)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(subject, normalizeDomain(p.Domain), NormalizePermission(p.Permission)); err != nil {
		return fmt.Errorf("revoke %s from %s: %w", p.Permission, subject, err)
	}
	return nil
}

// Inherit makes role receive every grant of parent
func (s *Service) Inherit(role, parent string) error {
	child, err := SubjectForRole(role)
	if err != nil {
		return err
	}
	base, err := SubjectForRole(parent)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddGroupingPolicy(child, base); err != nil {
		return fmt.Errorf("link %s to %s: %w", child, base, err)
	}
	return nil
}

// Policies lists the grants of role, sorted by permission
func (s *Service) Policies(role string) ([]Policy, error) {
	subject, err := SubjectForRole(role)
	if err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, subject)
	if err != nil {
		return nil, fmt.Errorf("list policies of %s: %w", subject, err)
	}
	out := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		out = append(out, Policy{Role: strings.TrimPrefix(rule[0], rolePrefix), Domain: rule[1], Permission: rule[2]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Permission < out[j].Permission })
	return out, nil
}

// ReloadPolicy re-reads casbin_rule
func (s *Service) ReloadPolicy() error {
	return s.enforcer.LoadPolicy()
}

// SubjectForRole maps a role name to its casbin subject
func SubjectForRole(role string) (string, error) {
	role = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(role), rolePrefix)))
	if role == "" {
		return "", fmt.Errorf("role is required")
	}
	return rolePrefix + role, nil
}

// NormalizePermission lowercases and trims a permission name
func NormalizePermission(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

func normalizeDomain(d string) string {
	d = strings.TrimSpace(d)
	if d == "" {
		return AllTenants
	}
	return d
}
