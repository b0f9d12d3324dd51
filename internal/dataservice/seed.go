package dataservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/auth"
	"github.com/gosuda/tenantdesk/internal/domain"
)

// SeedConfig describes the demonstration data of a fresh remote.
type SeedConfig struct {
	TenantName     string
	TenantDocument string
	AdminName      string
	AdminEmail     string
	AdminPassword  string
	CustomerName   string
	CustomerPhone  string
	OrderDevice    string
	OrderIssue     string
}

// DefaultSeed returns the built-in demonstration data.
func DefaultSeed() SeedConfig {
	return SeedConfig{
		TenantName:     "Demo Assistência Técnica",
		TenantDocument: "00.000.000/0001-00",
		AdminName:      "Demo Admin",
		AdminEmail:     "admin@demo.local",
		AdminPassword:  "demo1234",
		CustomerName:   "Cliente Exemplo",
		CustomerPhone:  "(11) 90000-0000",
		OrderDevice:    "Smartphone",
		OrderIssue:     "Tela quebrada",
	}
}

// SeedInitialData bootstraps an empty remote with one tenant, its
// administrator account, one customer and one service order, in that order.
// It does nothing when the remote is unavailable or already has tenants.
func (s *Service) SeedInitialData(ctx context.Context) error {
	if !s.RemoteAvailable() {
		log.Debug().Msg("seed skipped: remote unavailable")
		return nil
	}

	existing, err := s.remote.SelectAll(ctx, domain.Tenants.Table, nil)
	if err != nil {
		return fmt.Errorf("dataservice.SeedInitialData: %w", err)
	}
	if len(existing) > 0 {
		log.Debug().Int("tenants", len(existing)).Msg("seed skipped: tenants exist")
		return nil
	}

	cfg := s.seed
	now := time.Now().UTC()

	tenant, err := domain.NewTenant(uuid.NewString(), cfg.TenantName, cfg.TenantDocument)
	if err != nil {
		return fmt.Errorf("dataservice.SeedInitialData: %w", err)
	}
	if _, err := s.InsertOne(ctx, domain.NoScope, domain.Tenants, tenant.Record()); err != nil {
		return fmt.Errorf("dataservice.SeedInitialData: tenant: %w", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("dataservice.SeedInitialData: %w", err)
	}
	admin := &domain.Account{
		ID:           uuid.NewString(),
		CompanyID:    tenant.ID,
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleTenantAdmin,
		CreatedAt:    now,
	}
	if _, err := s.InsertOne(ctx, domain.NoScope, domain.Accounts, admin.Record()); err != nil {
		return fmt.Errorf("dataservice.SeedInitialData: admin account: %w", err)
	}

	scope := domain.Scope(tenant.ID)
	customer, err := s.InsertOne(ctx, scope, domain.Customers, domain.Record{
		"name":      cfg.CustomerName,
		"phone":     cfg.CustomerPhone,
		"createdAt": now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("dataservice.SeedInitialData: customer: %w", err)
	}

	if _, err := s.InsertOne(ctx, scope, domain.ServiceOrders, domain.Record{
		"customerId":   customer.ID(),
		"customerName": cfg.CustomerName,
		"device":       cfg.OrderDevice,
		"issue":        cfg.OrderIssue,
		"status":       "OPEN",
		"total":        0,
		"createdAt":    now.Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("dataservice.SeedInitialData: service order: %w", err)
	}

	log.Info().Str("tenant_id", tenant.ID).Str("admin_email", cfg.AdminEmail).Msg("seeded demonstration data")
	return nil
}
