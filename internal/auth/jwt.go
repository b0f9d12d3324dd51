package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// Claims holds the JWT token payload. A platform owner token carries an
// empty tid.
type Claims struct {
	jwt.RegisteredClaims
	TenantID  string `json:"tid,omitempty"`
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"typ"` // "access" or "refresh"
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueAccessToken creates a signed JWT access token.
func IssueAccessToken(secret string, actor *domain.Actor, ttl time.Duration) (string, error) {
	return issueToken(secret, actor, tokenTypeAccess, ttl)
}

// IssueRefreshToken creates a signed JWT refresh token.
func IssueRefreshToken(secret string, actor *domain.Actor, ttl time.Duration) (string, error) {
	return issueToken(secret, actor, tokenTypeRefresh, ttl)
}

func issueToken(secret string, actor *domain.Actor, tokenType string, ttl time.Duration) (string, error) {
	if !actor.Valid() {
		return "", fmt.Errorf("auth.issueToken: %w", domain.ErrInvalidRecord)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "tenantdesk",
		},
		TenantID:  actor.Scope().String(),
		UserID:    actor.ID,
		Role:      string(actor.Role),
		Name:      actor.Name,
		Email:     actor.Email,
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.issueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}

// Actor rebuilds the identity a token was issued to.
func (c *Claims) Actor() *domain.Actor {
	return &domain.Actor{
		ID:        c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		Role:      domain.Role(c.Role),
		CompanyID: c.TenantID,
	}
}

// IsAccess reports whether the token may authenticate API requests.
func (c *Claims) IsAccess() bool { return c.TokenType == tokenTypeAccess }
