package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// OwnerID is the actor id of the configured platform owner.
const OwnerID = "platform-owner"

// AccountSource lists the accounts collection without scope filtering.
type AccountSource interface {
	FetchAll(ctx context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error)
}

// Owner holds the platform owner credentials. An empty Email disables
// owner login.
type Owner struct {
	Email    string
	Password string
}

// Tokens is an issued access/refresh pair.
type Tokens struct {
	Access  string
	Refresh string
}

// Service provides authentication operations.
type Service struct {
	accounts   AccountSource
	owner      Owner
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a new auth service.
func NewService(accounts AccountSource, owner Owner, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		accounts:   accounts,
		owner:      owner,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Authenticate resolves email/password to an Actor: first the configured
// platform owner, then the accounts collection.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
	}

	if s.owner.Email != "" && strings.EqualFold(s.owner.Email, email) {
		if subtle.ConstantTimeCompare([]byte(s.owner.Password), []byte(password)) != 1 {
			return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
		}
		return s.ownerActor(), nil
	}

	account, err := s.findAccount(ctx, func(a *domain.Account) bool {
		return strings.EqualFold(a.Email, email)
	})
	if err != nil {
		return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
	}

	// The platform owner comes from configuration only.
	actor := account.Actor()
	if !actor.Valid() || actor.Role == domain.RolePlatformOwner {
		return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
	}
	return actor, nil
}

// Login validates email/password and returns the actor with access and
// refresh JWT tokens.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Actor, Tokens, error) {
	actor, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("auth.Login: %w", err)
	}

	access, err := IssueAccessToken(s.jwtSecret, actor, s.accessTTL)
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("auth.Login: %w", err)
	}

	refresh, err := IssueRefreshToken(s.jwtSecret, actor, s.refreshTTL)
	if err != nil {
		return nil, Tokens{}, fmt.Errorf("auth.Login: %w", err)
	}

	return actor, Tokens{Access: access, Refresh: refresh}, nil
}

// RefreshToken validates a refresh token and issues a new access token for
// the actor's current account state.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	var actor *domain.Actor
	if claims.UserID == OwnerID && domain.Role(claims.Role) == domain.RolePlatformOwner {
		if s.owner.Email == "" {
			return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
		}
		actor = s.ownerActor()
	} else {
		// Verify the account still exists and pick up its current role.
		account, findErr := s.findAccount(ctx, func(a *domain.Account) bool {
			return a.ID == claims.UserID
		})
		if findErr != nil {
			return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
		}
		actor = account.Actor()
		if !actor.Valid() || actor.Role == domain.RolePlatformOwner {
			return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
		}
	}

	access, err := IssueAccessToken(s.jwtSecret, actor, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}
	return access, nil
}

func (s *Service) ownerActor() *domain.Actor {
	return &domain.Actor{
		ID:    OwnerID,
		Name:  "Platform Owner",
		Email: strings.ToLower(s.owner.Email),
		Role:  domain.RolePlatformOwner,
	}
}

func (s *Service) findAccount(ctx context.Context, match func(*domain.Account) bool) (*domain.Account, error) {
	recs, err := s.accounts.FetchAll(ctx, domain.NoScope, domain.Accounts)
	if err != nil {
		return nil, fmt.Errorf("auth.findAccount: %w", err)
	}

	for _, r := range recs {
		account, convErr := domain.AccountFromRecord(r)
		if convErr != nil {
			continue
		}
		if match(account) {
			return account, nil
		}
	}
	return nil, ErrUserNotFound
}
