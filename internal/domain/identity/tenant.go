package identity

import (
	"regexp"
	"strings"

	"github.com/calibra/backend/internal/domain/shared"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,62}$`)

// Tenant is an isolated company using the system
type Tenant struct {
	shared.BaseAggregateRoot
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active"`
}

// NewTenant creates an active tenant
func NewTenant(name, slug string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "Name is required")
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugRegex.MatchString(slug) {
		return nil, shared.NewValidationError("slug", "Slug may only contain lowercase letters, digits and hyphens")
	}
	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Timezone:          "America/Sao_Paulo",
		Active:            true,
	}, nil
}

// Suspend blocks the tenant
func (t *Tenant) Suspend() {
	t.Active = false
	t.Touch()
}
