// Package session holds the persisted identity of the actor using this
// device and derives its Tenant Scope.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/cache"
	"github.com/gosuda/tenantdesk/internal/domain"
)

// Store reads and writes the single session slot of a cache backend.
type Store struct {
	backend cache.Backend
	key     string
}

func NewStore(backend cache.Backend) *Store {
	return &Store{backend: backend, key: domain.SessionKey}
}

// CurrentActor returns the persisted actor, or nil when logged out. An
// absent, unreadable or malformed slot is treated as logged out.
func (s *Store) CurrentActor(ctx context.Context) *domain.Actor {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil
	}

	var a domain.Actor
	if err := json.Unmarshal(raw, &a); err != nil {
		log.Debug().Err(err).Msg("session: discarding malformed actor")
		return nil
	}
	if !a.Valid() {
		return nil
	}
	return &a
}

// Scope is recomputed from storage on every call so a logout or a new login
// is reflected immediately.
func (s *Store) Scope(ctx context.Context) domain.Scope {
	return s.CurrentActor(ctx).Scope()
}

// Save persists a as the current actor (login).
func (s *Store) Save(ctx context.Context, a *domain.Actor) error {
	if !a.Valid() {
		return fmt.Errorf("session.Save: %w", domain.ErrInvalidRecord)
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	return nil
}

// Clear destroys the session (logout).
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}
