package v1_test

import (
	"context"

	"github.com/gosuda/tenantdesk/internal/auth"
	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/provision"
	"github.com/gosuda/tenantdesk/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers - inject the actor into context for DoCtx
// ---------------------------------------------------------------------------

func actorCtx(a *domain.Actor) context.Context {
	return middleware.WithActor(context.Background(), a)
}

func tenantCtx(tenantID string) context.Context {
	return actorCtx(&domain.Actor{ID: "u-1", Name: "Ana", Role: domain.RoleTenantAdmin, CompanyID: tenantID})
}

func ownerCtx() context.Context {
	return actorCtx(&domain.Actor{ID: auth.OwnerID, Name: "Owner", Role: domain.RolePlatformOwner})
}

// ---------------------------------------------------------------------------
// Mock DataService
// ---------------------------------------------------------------------------

type mockDataService struct {
	fetchAllFunc  func(ctx context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error)
	insertOneFunc func(ctx context.Context, scope domain.Scope, coll domain.Collection, rec domain.Record) (domain.Record, error)
	updateOneFunc func(ctx context.Context, scope domain.Scope, coll domain.Collection, id string, partial domain.Record) error
	deleteOneFunc func(ctx context.Context, scope domain.Scope, coll domain.Collection, id string) error
	saveFunc      func(ctx context.Context, scope domain.Scope, coll domain.Collection, recs []domain.Record) error
	clearAllFunc  func(ctx context.Context, colls []domain.Collection)
	seedFunc      func(ctx context.Context) error
}

func (m *mockDataService) FetchAll(ctx context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error) {
	return m.fetchAllFunc(ctx, scope, coll)
}

func (m *mockDataService) InsertOne(ctx context.Context, scope domain.Scope, coll domain.Collection, rec domain.Record) (domain.Record, error) {
	return m.insertOneFunc(ctx, scope, coll, rec)
}

func (m *mockDataService) UpdateOne(ctx context.Context, scope domain.Scope, coll domain.Collection, id string, partial domain.Record) error {
	return m.updateOneFunc(ctx, scope, coll, id, partial)
}

func (m *mockDataService) DeleteOne(ctx context.Context, scope domain.Scope, coll domain.Collection, id string) error {
	return m.deleteOneFunc(ctx, scope, coll, id)
}

func (m *mockDataService) Save(ctx context.Context, scope domain.Scope, coll domain.Collection, recs []domain.Record) error {
	return m.saveFunc(ctx, scope, coll, recs)
}

func (m *mockDataService) ClearAll(ctx context.Context, colls []domain.Collection) {
	m.clearAllFunc(ctx, colls)
}

func (m *mockDataService) SeedInitialData(ctx context.Context) error {
	return m.seedFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc        func(ctx context.Context, email, password string) (*domain.Actor, auth.Tokens, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*domain.Actor, auth.Tokens, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Mock Provisioner and InventoryService
// ---------------------------------------------------------------------------

type mockProvisioner struct {
	createTenantFunc func(ctx context.Context, req provision.Request) (*provision.Result, error)
}

func (m *mockProvisioner) CreateTenant(ctx context.Context, req provision.Request) (*provision.Result, error) {
	return m.createTenantFunc(ctx, req)
}

type mockInventory struct {
	listFunc        func(ctx context.Context, scope domain.Scope) ([]domain.Record, error)
	adjustStockFunc func(ctx context.Context, scope domain.Scope, id string, delta float64) (domain.Record, error)
}

func (m *mockInventory) List(ctx context.Context, scope domain.Scope) ([]domain.Record, error) {
	return m.listFunc(ctx, scope)
}

func (m *mockInventory) AdjustStock(ctx context.Context, scope domain.Scope, id string, delta float64) (domain.Record, error) {
	return m.adjustStockFunc(ctx, scope, id, delta)
}
