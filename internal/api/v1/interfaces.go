package v1

import (
	"context"

	"github.com/gosuda/tenantdesk/internal/auth"
	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/provision"
)

// DataService abstracts the tenant-scoped CRUD façade for handler testing.
// *dataservice.Service satisfies this interface.
type DataService interface {
	FetchAll(ctx context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error)
	InsertOne(ctx context.Context, scope domain.Scope, coll domain.Collection, rec domain.Record) (domain.Record, error)
	UpdateOne(ctx context.Context, scope domain.Scope, coll domain.Collection, id string, partial domain.Record) error
	DeleteOne(ctx context.Context, scope domain.Scope, coll domain.Collection, id string) error
	Save(ctx context.Context, scope domain.Scope, coll domain.Collection, recs []domain.Record) error
	ClearAll(ctx context.Context, colls []domain.Collection)
	SeedInitialData(ctx context.Context) error
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.Actor, auth.Tokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// Provisioner abstracts tenant provisioning for handler testing.
// *provision.Service satisfies this interface.
type Provisioner interface {
	CreateTenant(ctx context.Context, req provision.Request) (*provision.Result, error)
}

// InventoryService abstracts inventory listing and stock edits for handler
// testing. *inventory.Service satisfies this interface.
type InventoryService interface {
	List(ctx context.Context, scope domain.Scope) ([]domain.Record, error)
	AdjustStock(ctx context.Context, scope domain.Scope, id string, delta float64) (domain.Record, error)
}
