// Package provision creates tenants together with their first administrator.
package provision

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/auth"
	"github.com/gosuda/tenantdesk/internal/domain"
)

const minPasswordLen = 8

// Store is the subset of the data service provisioning needs.
type Store interface {
	FetchAll(ctx context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error)
	InsertOne(ctx context.Context, scope domain.Scope, coll domain.Collection, rec domain.Record) (domain.Record, error)
	DeleteOne(ctx context.Context, scope domain.Scope, coll domain.Collection, id string) error
}

// Request describes a new tenant and its administrator.
type Request struct {
	TenantName     string
	TenantDocument string
	AdminName      string
	AdminEmail     string
	AdminPassword  string
}

func (r Request) validate() error {
	if strings.TrimSpace(r.TenantName) == "" {
		return fmt.Errorf("tenant name is required: %w", domain.ErrInvalidRecord)
	}
	if strings.TrimSpace(r.AdminName) == "" {
		return fmt.Errorf("admin name is required: %w", domain.ErrInvalidRecord)
	}
	if _, err := mail.ParseAddress(r.AdminEmail); err != nil {
		return fmt.Errorf("admin email %q: %w", r.AdminEmail, domain.ErrInvalidRecord)
	}
	if len(r.AdminPassword) < minPasswordLen {
		return fmt.Errorf("admin password shorter than %d: %w", minPasswordLen, domain.ErrInvalidRecord)
	}
	return nil
}

// Result is what CreateTenant persisted. Admin.PasswordHash is cleared.
type Result struct {
	Tenant *domain.Tenant
	Admin  *domain.Account
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateTenant inserts a tenant and then its TENANT_ADMIN account. A login
// e-mail already in use fails with domain.ErrConflict before anything is
// written. Remote insert failures are returned as *domain.RemoteError.
func (s *Service) CreateTenant(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("provision.CreateTenant: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(req.AdminEmail))

	accounts, err := s.store.FetchAll(ctx, domain.NoScope, domain.Accounts)
	if err != nil {
		return nil, fmt.Errorf("provision.CreateTenant: list accounts: %w", err)
	}
	for _, a := range accounts {
		if strings.EqualFold(a.String("email"), email) {
			return nil, fmt.Errorf("provision.CreateTenant: email %s already in use: %w", email, domain.ErrConflict)
		}
	}

	tenant, err := domain.NewTenant(uuid.NewString(), req.TenantName, req.TenantDocument)
	if err != nil {
		return nil, fmt.Errorf("provision.CreateTenant: %w: %w", domain.ErrInvalidRecord, err)
	}
	if _, err := s.store.InsertOne(ctx, domain.NoScope, domain.Tenants, tenant.Record()); err != nil {
		return nil, fmt.Errorf("provision.CreateTenant: insert tenant: %w", err)
	}

	hash, err := auth.HashPassword(req.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("provision.CreateTenant: %w", err)
	}

	admin := &domain.Account{
		ID:           uuid.NewString(),
		CompanyID:    tenant.ID,
		Name:         strings.TrimSpace(req.AdminName),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleTenantAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.store.InsertOne(ctx, domain.NoScope, domain.Accounts, admin.Record()); err != nil {
		// Do not leave a company nobody can log in to.
		if delErr := s.store.DeleteOne(ctx, domain.NoScope, domain.Tenants, tenant.ID); delErr != nil {
			log.Error().Err(delErr).Str("tenant_id", tenant.ID).Msg("provision: rollback tenant")
		}
		return nil, fmt.Errorf("provision.CreateTenant: insert admin: %w", err)
	}

	log.Info().Str("tenant_id", tenant.ID).Str("admin_email", email).Msg("tenant provisioned")

	admin.PasswordHash = ""
	return &Result{Tenant: tenant, Admin: admin}, nil
}
