package domain

// Role is drawn from a closed set.
type Role string

const (
	RolePlatformOwner Role = "PLATFORM_OWNER"
	RoleTenantAdmin   Role = "TENANT_ADMIN"
	RoleTechnician    Role = "TECHNICIAN"
	RoleSalesAgent    Role = "SALES_AGENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePlatformOwner, RoleTenantAdmin, RoleTechnician, RoleSalesAgent:
		return true
	}
	return false
}

// Actor is the currently authenticated identity.
type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
}

// Valid reports whether the actor is usable as a session identity: every
// non-owner actor must belong to a tenant.
func (a *Actor) Valid() bool {
	if a == nil || a.ID == "" || !a.Role.Valid() {
		return false
	}
	if a.Role == RolePlatformOwner {
		return true
	}
	return a.CompanyID != ""
}

// Scope derives the Tenant Scope of the actor. Platform owners and a nil
// actor have no scope.
func (a *Actor) Scope() Scope {
	if a == nil || a.Role == RolePlatformOwner {
		return NoScope
	}
	return Scope(a.CompanyID)
}

// Scope is the tenant identifier every read is filtered by and every write is
// stamped with. The zero value means "none".
type Scope string

// NoScope is the scope of a platform owner or a logged-out session.
const NoScope Scope = ""

func (s Scope) IsNone() bool { return s == NoScope }

func (s Scope) String() string { return string(s) }
