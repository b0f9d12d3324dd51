package domain

import (
	"errors"
	"strings"
	"time"
)

// Tenant is a company record in the tenants collection. Its ID is the
// Tenant Scope of every actor that belongs to it.
type Tenant struct {
	ID        string
	Name      string
	Document  string // tax id
	Plan      string // "trial", "basic", "pro"
	Active    bool
	CreatedAt time.Time
}

// NewTenant validates required fields and applies defaults.
func NewTenant(id, name, document string) (*Tenant, error) {
	if id == "" {
		return nil, errors.New("tenant: id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("tenant: name is required")
	}
	return &Tenant{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Document:  document,
		Plan:      "trial",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (t *Tenant) Record() Record {
	return Record{
		FieldID:     t.ID,
		"name":      t.Name,
		"document":  t.Document,
		"plan":      t.Plan,
		"active":    t.Active,
		"createdAt": t.CreatedAt.Format(time.RFC3339),
	}
}

// Account is a login identity in the accounts collection. Accounts are
// global: CompanyID is set explicitly by whoever creates the account.
type Account struct {
	ID           string
	CompanyID    string
	Name         string
	Email        string
	PasswordHash string // argon2id
	Role         Role
	CreatedAt    time.Time
}

func (a *Account) Record() Record {
	return Record{
		FieldID:           a.ID,
		FieldTenant:       a.CompanyID,
		"name":            a.Name,
		"email":           strings.ToLower(a.Email),
		FieldPasswordHash: a.PasswordHash,
		"role":            string(a.Role),
		"createdAt":       a.CreatedAt.Format(time.RFC3339),
	}
}

// AccountFromRecord converts an accounts row.
func AccountFromRecord(r Record) (*Account, error) {
	a := &Account{
		ID:           r.ID(),
		CompanyID:    r.TenantID(),
		Name:         r.String("name"),
		Email:        r.String("email"),
		PasswordHash: r.String(FieldPasswordHash),
		Role:         Role(r.String("role")),
	}
	if a.ID == "" || a.Email == "" {
		return nil, ErrInvalidRecord
	}
	if ts := r.String("createdAt"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			a.CreatedAt = parsed
		}
	}
	return a, nil
}

// Actor returns the session identity of the account.
func (a *Account) Actor() *Actor {
	return &Actor{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CompanyID: a.CompanyID,
	}
}
