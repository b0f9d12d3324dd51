// Package cache implements the local durable mirror of remote collections.
// Each cache key holds a JSON array of records; one key may interleave rows
// of several tenants on a shared device.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// ErrMiss is returned by a Backend when a key was never written.
var ErrMiss = errors.New("cache: miss")

// Backend stores raw values by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Cache reads and writes record snapshots on a Backend. Storage and
// serialization failures are returned unchanged to the caller.
type Cache struct {
	backend Backend
}

func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// Backend exposes the underlying store for sibling slots such as the session.
func (c *Cache) Backend() Backend { return c.backend }

// Read returns the snapshot at key, or an empty slice if never written.
func (c *Cache) Read(ctx context.Context, key string) ([]domain.Record, error) {
	raw, err := c.backend.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache.Read %s: %w", key, err)
	}

	var recs []domain.Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("cache.Read %s: decode: %w", key, err)
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, nil
}

// Write replaces the whole snapshot at key.
func (c *Cache) Write(ctx context.Context, key string, recs []domain.Record) error {
	if recs == nil {
		recs = []domain.Record{}
	}
	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("cache.Write %s: encode: %w", key, err)
	}
	if err := c.backend.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("cache.Write %s: %w", key, err)
	}
	return nil
}

// WriteFiltered persists recs as the slice of coll visible to scope.
//
// Global collections, and writes made without a scope, replace the snapshot
// outright. Otherwise every record owned by scope is removed and recs are
// appended stamped with scope; other tenants' rows at the key are kept.
func (c *Cache) WriteFiltered(ctx context.Context, coll domain.Collection, recs []domain.Record, scope domain.Scope) error {
	if coll.IsGlobal() || scope.IsNone() {
		return c.Write(ctx, coll.CacheKey, domain.CloneAll(recs))
	}

	existing, err := c.Read(ctx, coll.CacheKey)
	if err != nil {
		return err
	}

	next := make([]domain.Record, 0, len(existing)+len(recs))
	for _, r := range existing {
		if r.TenantID() != scope.String() {
			next = append(next, r)
		}
	}
	for _, r := range recs {
		next = append(next, coll.Stamp(scope, r))
	}
	return c.Write(ctx, coll.CacheKey, next)
}

// Prepend puts rec at the head of the snapshot at key, dropping any older
// record with the same id.
func (c *Cache) Prepend(ctx context.Context, key string, rec domain.Record) error {
	existing, err := c.Read(ctx, key)
	if err != nil {
		return err
	}

	next := make([]domain.Record, 0, len(existing)+1)
	next = append(next, rec.Clone())
	for _, r := range existing {
		if r.ID() != rec.ID() {
			next = append(next, r)
		}
	}
	return c.Write(ctx, key, next)
}

// Delete drops the snapshots at keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if err := c.backend.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("cache.Delete: %w", err)
	}
	return nil
}
