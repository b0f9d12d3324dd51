package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/tenantdesk/internal/auth"
	"github.com/gosuda/tenantdesk/internal/domain"
)

// mockAccounts is a configurable AccountSource that records the scope and
// collection it was queried with.
type mockAccounts struct {
	recs []domain.Record
	err  error

	gotScope domain.Scope
	gotColl  domain.Collection
}

func (m *mockAccounts) FetchAll(_ context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error) {
	m.gotScope = scope
	m.gotColl = coll
	return m.recs, m.err
}

// --- test constants ---

const (
	testJWTSecret     = "test-secret-key-for-unit-tests"
	testEmail         = "alice@example.com"
	testPassword      = "correct-horse-battery-staple"
	testOwnerEmail    = "owner@example.com"
	testOwnerPassword = "owner-pass"
)

var (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 7 * 24 * time.Hour
)

func accountRecord(t *testing.T, id, companyID, email, password string, role domain.Role) domain.Record {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	a := &domain.Account{
		ID:           id,
		CompanyID:    companyID,
		Name:         "Alice",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	return a.Record()
}

// newTestService creates a Service with the given mock and standard test config.
func newTestService(accounts *mockAccounts) *auth.Service {
	owner := auth.Owner{Email: testOwnerEmail, Password: testOwnerPassword}
	return auth.NewService(accounts, owner, testJWTSecret, testAccessTTL, testRefreshTTL)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("account login", func(t *testing.T) {
		t.Parallel()

		accounts := &mockAccounts{recs: []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RoleTenantAdmin),
		}}
		svc := newTestService(accounts)

		actor, err := svc.Authenticate(t.Context(), "  ALICE@example.com ", testPassword)
		require.NoError(t, err)

		assert.Equal(t, "a-1", actor.ID)
		assert.Equal(t, domain.RoleTenantAdmin, actor.Role)
		assert.Equal(t, domain.Scope("T1"), actor.Scope())
		assert.Equal(t, domain.NoScope, accounts.gotScope, "accounts are listed unscoped")
		assert.Equal(t, domain.Accounts.Name, accounts.gotColl.Name)
	})

	t.Run("owner login", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&mockAccounts{})

		actor, err := svc.Authenticate(t.Context(), testOwnerEmail, testOwnerPassword)
		require.NoError(t, err)

		assert.Equal(t, auth.OwnerID, actor.ID)
		assert.Equal(t, domain.RolePlatformOwner, actor.Role)
		assert.True(t, actor.Scope().IsNone())
	})

	tests := []struct {
		name     string
		accounts *mockAccounts
		email    string
		password string
	}{
		{name: "wrong owner password", accounts: &mockAccounts{}, email: testOwnerEmail, password: "nope"},
		{name: "unknown email", accounts: &mockAccounts{}, email: "ghost@example.com", password: testPassword},
		{name: "empty password", accounts: &mockAccounts{}, email: testEmail, password: ""},
		{name: "accounts unavailable", accounts: &mockAccounts{err: errors.New("boom")}, email: testEmail, password: testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(tt.accounts)
			actor, err := svc.Authenticate(t.Context(), tt.email, tt.password)

			require.Error(t, err)
			assert.Nil(t, actor)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}

	t.Run("wrong account password", func(t *testing.T) {
		t.Parallel()

		accounts := &mockAccounts{recs: []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RoleTenantAdmin),
		}}
		svc := newTestService(accounts)

		_, err := svc.Authenticate(t.Context(), testEmail, "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("account without tenant is rejected", func(t *testing.T) {
		t.Parallel()

		accounts := &mockAccounts{recs: []domain.Record{
			accountRecord(t, "a-1", "", testEmail, testPassword, domain.RoleTechnician),
		}}
		svc := newTestService(accounts)

		_, err := svc.Authenticate(t.Context(), testEmail, testPassword)
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("account claiming the owner role is rejected", func(t *testing.T) {
		t.Parallel()

		accounts := &mockAccounts{recs: []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RolePlatformOwner),
			accountRecord(t, "a-2", "", "root@example.com", testPassword, domain.RolePlatformOwner),
		}}
		svc := newTestService(accounts)

		_, err := svc.Authenticate(t.Context(), testEmail, testPassword)
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		_, err = svc.Authenticate(t.Context(), "root@example.com", testPassword)
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	accounts := &mockAccounts{recs: []domain.Record{
		{domain.FieldID: "broken"},
		accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RoleSalesAgent),
	}}
	svc := newTestService(accounts)

	actor, tokens, err := svc.Login(t.Context(), testEmail, testPassword)
	require.NoError(t, err)
	assert.Equal(t, "a-1", actor.ID)

	access, err := auth.ValidateToken(testJWTSecret, tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, "T1", access.TenantID)
	assert.Equal(t, "SALES_AGENT", access.Role)
	assert.True(t, access.IsAccess())

	refresh, err := auth.ValidateToken(testJWTSecret, tokens.Refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh.TokenType)

	_, _, err = svc.Login(t.Context(), testEmail, "bad")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("account refresh picks up current role", func(t *testing.T) {
		t.Parallel()

		accounts := &mockAccounts{recs: []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RoleTechnician),
		}}
		svc := newTestService(accounts)

		_, tokens, err := svc.Login(t.Context(), testEmail, testPassword)
		require.NoError(t, err)

		accounts.recs = []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RoleTenantAdmin),
		}

		access, err := svc.RefreshToken(t.Context(), tokens.Refresh)
		require.NoError(t, err)

		claims, err := auth.ValidateToken(testJWTSecret, access)
		require.NoError(t, err)
		assert.Equal(t, "TENANT_ADMIN", claims.Role)
		assert.True(t, claims.IsAccess())
	})

	t.Run("account promoted to owner cannot refresh", func(t *testing.T) {
		t.Parallel()

		accounts := &mockAccounts{recs: []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RoleTechnician),
		}}
		svc := newTestService(accounts)

		_, tokens, err := svc.Login(t.Context(), testEmail, testPassword)
		require.NoError(t, err)

		accounts.recs = []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RolePlatformOwner),
		}

		_, err = svc.RefreshToken(t.Context(), tokens.Refresh)
		require.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("owner refresh", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&mockAccounts{})
		_, tokens, err := svc.Login(t.Context(), testOwnerEmail, testOwnerPassword)
		require.NoError(t, err)

		access, err := svc.RefreshToken(t.Context(), tokens.Refresh)
		require.NoError(t, err)

		claims, err := auth.ValidateToken(testJWTSecret, access)
		require.NoError(t, err)
		assert.Equal(t, auth.OwnerID, claims.UserID)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&mockAccounts{})
		_, tokens, err := svc.Login(t.Context(), testOwnerEmail, testOwnerPassword)
		require.NoError(t, err)

		_, err = svc.RefreshToken(t.Context(), tokens.Access)
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("deleted account", func(t *testing.T) {
		t.Parallel()

		accounts := &mockAccounts{recs: []domain.Record{
			accountRecord(t, "a-1", "T1", testEmail, testPassword, domain.RoleTechnician),
		}}
		svc := newTestService(accounts)

		_, tokens, err := svc.Login(t.Context(), testEmail, testPassword)
		require.NoError(t, err)

		accounts.recs = nil
		_, err = svc.RefreshToken(t.Context(), tokens.Refresh)
		require.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&mockAccounts{})
		_, err := svc.RefreshToken(t.Context(), "garbage")
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
