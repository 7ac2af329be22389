// Package access holds the role model: which role tokens exist, what each
// action requires, and the default employee scope a viewer starts with.
package access

import "strings"

// Role is a role token granted to an employee.
type Role string

const (
	RoleMiddleManager      Role = "middle_manager"
	RoleFinalApprover      Role = "final_approver"
	RoleAppAdmin           Role = "app_admin"
	RoleCEO                Role = "ceo"
	RolePurchaseManager    Role = "purchase_manager"
	RoleConsumableManager  Role = "consumable_manager"
	RoleRawMaterialManager Role = "raw_material_manager"
	RoleLeadBuyer          Role = "lead_buyer"
)

var allRoles = []Role{
	RoleAppAdmin,
	RoleCEO,
	RoleFinalApprover,
	RoleMiddleManager,
	RoleLeadBuyer,
	RolePurchaseManager,
	RoleRawMaterialManager,
	RoleConsumableManager,
}

// IsValid reports whether r is a known role token.
func (r Role) IsValid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// RoleSet is an unordered set of role tokens. An empty set is an ordinary
// employee.
type RoleSet map[Role]struct{}

// ParseRoles builds a set from raw tokens. Tokens are trimmed and
// lower-cased; unknown tokens (including "ordinary") are dropped.
func ParseRoles(tokens []string) RoleSet {
	set := make(RoleSet, len(tokens))
	for _, tok := range tokens {
		r := Role(strings.ToLower(strings.TrimSpace(tok)))
		if r.IsValid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether the set contains at least one of roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// IsAdminTier reports whether the set holds a superseding role.
func (s RoleSet) IsAdminTier() bool {
	return s.HasAny(RoleAppAdmin, RoleCEO)
}

// Only reports whether r is the one and only role in the set.
func (s RoleSet) Only(r Role) bool {
	return len(s) == 1 && s.Has(r)
}

// Tokens returns the set in a stable order, highest authority first.
func (s RoleSet) Tokens() []string {
	out := make([]string, 0, len(s))
	for _, r := range allRoles {
		if s.Has(r) {
			out = append(out, string(r))
		}
	}
	return out
}
