package domain

import (
	"fmt"
	"slices"
)

// ScopeKind decides how a collection is filtered and stamped by Tenant Scope.
type ScopeKind int

const (
	// TenantScoped collections are filtered on, and stamped with, companyId.
	TenantScoped ScopeKind = iota
	// SingletonByTenantID collections hold one row per tenant whose id is the
	// scope itself. A tenant only sees its own row.
	SingletonByTenantID
	// GlobalUnfiltered collections are never filtered here; callers scope
	// them explicitly.
	GlobalUnfiltered
)

func (k ScopeKind) String() string {
	switch k {
	case TenantScoped:
		return "tenant_scoped"
	case SingletonByTenantID:
		return "singleton_by_tenant_id"
	case GlobalUnfiltered:
		return "global_unfiltered"
	}
	return fmt.Sprintf("scope_kind(%d)", int(k))
}

// Collection is a named set of homogeneous records.
type Collection struct {
	Name     string
	Table    string // remote table
	CacheKey string // local durable cache key
	Kind     ScopeKind
}

// IsGlobal reports whether the collection is exempt from companyId
// filtering and stamping.
func (c Collection) IsGlobal() bool {
	return c.Kind != TenantScoped
}

// ReadFilter returns the equality filter a read of c under scope must apply,
// or nil when every row is visible.
func (c Collection) ReadFilter(scope Scope) *Filter {
	if scope.IsNone() {
		return nil
	}
	switch c.Kind {
	case TenantScoped:
		return &Filter{Field: FieldTenant, Value: scope.String()}
	case SingletonByTenantID:
		return &Filter{Field: FieldID, Value: scope.String()}
	}
	return nil
}

// Visible reports whether rec passes ReadFilter(scope).
func (c Collection) Visible(scope Scope, rec Record) bool {
	f := c.ReadFilter(scope)
	if f == nil {
		return true
	}
	return rec.String(f.Field) == f.Value
}

// Stamp returns a copy of rec owned by scope. Global collections and the
// platform scope leave the caller's tenant field alone. A singleton row
// written without an id takes the scope as its id.
func (c Collection) Stamp(scope Scope, rec Record) Record {
	out := rec.Clone()
	if scope.IsNone() {
		return out
	}
	switch c.Kind {
	case TenantScoped:
		out[FieldTenant] = scope.String()
	case SingletonByTenantID:
		if out.ID() == "" {
			out[FieldID] = scope.String()
		}
	}
	return out
}

// WritableBy reports whether a may write c through a client surface.
// Tenant and account rows belong to platform administration.
func (c Collection) WritableBy(a *Actor) bool {
	if !a.Valid() {
		return false
	}
	return c.Kind == TenantScoped || a.Role == RolePlatformOwner
}

// ReadableBy narrows recs of c to what a may see. Outside the platform
// owner, an unfiltered collection only shows the actor's own tenant, and
// credentials never leave the data layer.
func (c Collection) ReadableBy(a *Actor, recs []Record) []Record {
	if c.Kind != GlobalUnfiltered || (a.Valid() && a.Role == RolePlatformOwner) {
		return recs
	}

	out := make([]Record, 0, len(recs))
	if !a.Valid() {
		return out
	}
	for _, r := range recs {
		if r.TenantID() != a.CompanyID {
			continue
		}
		cp := r.Clone()
		delete(cp, FieldPasswordHash)
		out = append(out, cp)
	}
	return out
}

var (
	Inventory         = Collection{Name: "inventory", Table: "inventory", CacheKey: "app_inventory", Kind: TenantScoped}
	ServiceOrders     = Collection{Name: "os", Table: "service_orders", CacheKey: "app_os", Kind: TenantScoped}
	Customers         = Collection{Name: "customers", Table: "customers", CacheKey: "app_customers", Kind: TenantScoped}
	Finance           = Collection{Name: "finance", Table: "finance", CacheKey: "app_finance", Kind: TenantScoped}
	FinanceCategories = Collection{Name: "finance_categories", Table: "finance_categories", CacheKey: "app_finance_categories", Kind: TenantScoped}
	Budgets           = Collection{Name: "budgets", Table: "budgets", CacheKey: "app_budgets", Kind: TenantScoped}
	Team              = Collection{Name: "team", Table: "team", CacheKey: "app_team", Kind: TenantScoped}
	Settings          = Collection{Name: "settings", Table: "settings", CacheKey: "app_settings", Kind: TenantScoped}
	Tenants           = Collection{Name: "tenants", Table: "tenants", CacheKey: "app_tenants", Kind: SingletonByTenantID}
	Accounts          = Collection{Name: "accounts", Table: "accounts", CacheKey: "app_accounts", Kind: GlobalUnfiltered}
)

// SessionKey is the cache key holding the serialized current Actor.
const SessionKey = "app_user"

var catalog = []Collection{
	Inventory, ServiceOrders, Customers, Finance, FinanceCategories,
	Budgets, Team, Settings, Tenants, Accounts,
}

// Collections returns every known collection.
func Collections() []Collection {
	return slices.Clone(catalog)
}

// Lookup resolves a collection by name.
func Lookup(name string) (Collection, error) {
	for _, c := range catalog {
		if c.Name == name {
			return c, nil
		}
	}
	return Collection{}, fmt.Errorf("domain.Lookup %q: %w", name, ErrUnknownCollection)
}
