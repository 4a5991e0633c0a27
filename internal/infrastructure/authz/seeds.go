package authz

import "fmt"

// RoleSeed is a built-in role and its permission patterns
type RoleSeed struct {
	Role        string
	Inherits    []string
	Permissions []string
}

// BuiltinRoleSeeds returns the default role matrix granted in every tenant
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{Role: "admin", Permissions: []string{"*"}},
		{
			Role: "technician",
			Permissions: []string{
				"work_orders.view",
				"work_orders.update_status",
				"customers.view",
				"commissions.events.view",
			},
		},
		{
			Role:     "seller",
			Inherits: []string{"technician"},
			Permissions: []string{
				"work_orders.create",
				"customers.*",
				"commissions.simulate",
			},
		},
		{Role: "driver", Permissions: []string{"work_orders.view"}},
		{
			Role: "financial",
			Permissions: []string{
				"finance.*",
				"reconciliation.*",
				"contracts.*",
				"fiscal.*",
				"customers.view",
				"work_orders.view",
				"commissions.events.*",
				"commissions.settlements.*",
			},
		},
		{
			Role:     "manager",
			Inherits: []string{"financial", "seller"},
			Permissions: []string{
				"work_orders.*",
				"commissions.*",
				"imports.*",
			},
		},
	}
}

// SeedBuiltinRoles grants the built-in matrix. Existing policies are kept.
func (s *Service) SeedBuiltinRoles() error {
	for _, seed := range BuiltinRoleSeeds() {
		for _, perm := range seed.Permissions {
			if err := s.Grant(Policy{Role: seed.Role, Domain: AllTenants, Permission: perm}); err != nil {
				return fmt.Errorf("seed %s: %w", seed.Role, err)
			}
		}
		for _, parent := range seed.Inherits {
			if err := s.Inherit(seed.Role, parent); err != nil {
				return fmt.Errorf("seed %s: %w", seed.Role, err)
			}
		}
	}
	return nil
}
