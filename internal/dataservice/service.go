// Package dataservice is the generic CRUD façade every feature uses to reach
// persisted state. Each call takes the caller's Tenant Scope explicitly,
// tries the remote store first when one is available, mirrors results into
// the local cache, and falls back to the cache when the remote fails.
//
// Only InsertOne surfaces remote failures. Every other operation degrades to
// cache-backed results and returns errors only for local storage faults.
package dataservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/cache"
	"github.com/gosuda/tenantdesk/internal/domain"
)

// Service composes a remote store and a local cache.
type Service struct {
	remote domain.RemoteStore
	cache  *cache.Cache
	events Publisher
	seed   SeedConfig
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher broadcasts change events after successful writes.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithSeed overrides the demonstration data inserted by SeedInitialData.
func WithSeed(cfg SeedConfig) Option {
	return func(s *Service) { s.seed = cfg }
}

// New creates a Service. remote may be nil, which puts every operation in
// local-only mode.
func New(remote domain.RemoteStore, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		remote: remote,
		cache:  c,
		seed:   DefaultSeed(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoteAvailable reports whether operations reach the remote store.
func (s *Service) RemoteAvailable() bool {
	return s.remote != nil && s.remote.Available()
}

// FetchAll returns the records of coll visible to scope. Order is whatever
// the answering source produced.
func (s *Service) FetchAll(ctx context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error) {
	if s.RemoteAvailable() {
		recs, err := s.remote.SelectAll(ctx, coll.Table, coll.ReadFilter(scope))
		if err == nil {
			if err := s.cache.WriteFiltered(ctx, coll, recs, scope); err != nil {
				return nil, fmt.Errorf("dataservice.FetchAll %s: %w", coll.Name, err)
			}
			return visible(coll, scope, recs), nil
		}
		logFallback(err, "fetch", coll, scope)
	}

	recs, err := s.readLocal(ctx, coll, scope)
	if err != nil {
		return nil, fmt.Errorf("dataservice.FetchAll %s: %w", coll.Name, err)
	}
	return recs, nil
}

// InsertOne stamps rec with scope and creates it. A remote rejection is
// returned as a *domain.RemoteError and nothing is cached. Records without
// an id get a random one. A scoped caller reusing the id of another
// tenant's record gets domain.ErrForbidden.
func (s *Service) InsertOne(ctx context.Context, scope domain.Scope, coll domain.Collection, rec domain.Record) (domain.Record, error) {
	stamped := coll.Stamp(scope, rec)
	// The remote primary key already rejects a foreign id on insert; only
	// the cache can be clobbered.
	if err := s.checkOwnership(ctx, scope, coll, []domain.Record{stamped}, false); err != nil {
		return nil, fmt.Errorf("dataservice.InsertOne %s: %w", coll.Name, err)
	}
	if stamped.ID() == "" {
		stamped[domain.FieldID] = uuid.NewString()
	}

	if s.RemoteAvailable() {
		if err := s.remote.Insert(ctx, coll.Table, stamped); err != nil {
			log.Error().Err(err).
				Str("collection", coll.Name).
				Str("scope", scope.String()).
				Msg("remote insert rejected")
			return nil, fmt.Errorf("dataservice.InsertOne %s: %w", coll.Name, err)
		}
	}

	if err := s.cache.Prepend(ctx, coll.CacheKey, stamped); err != nil {
		return nil, fmt.Errorf("dataservice.InsertOne %s: %w", coll.Name, err)
	}

	s.publish(ctx, scope, coll, EventInserted, stamped.ID())
	return stamped.Clone(), nil
}

// UpdateOne merges partial into the record id of coll visible to scope.
// The id field of partial is ignored and the tenant field is restamped.
func (s *Service) UpdateOne(ctx context.Context, scope domain.Scope, coll domain.Collection, id string, partial domain.Record) error {
	patch := partial.Clone()
	delete(patch, domain.FieldID)
	if coll.Kind == domain.TenantScoped && !scope.IsNone() {
		patch[domain.FieldTenant] = scope.String()
	}

	if s.RemoteAvailable() {
		done, err := s.writeThrough(ctx, scope, coll, "update", func() error {
			return s.remote.Update(ctx, coll.Table, id, patch, coll.ReadFilter(scope))
		})
		if err != nil {
			return fmt.Errorf("dataservice.UpdateOne %s: %w", coll.Name, err)
		}
		if done {
			s.publish(ctx, scope, coll, EventUpdated, id)
			return nil
		}
	}

	changed, err := s.mutateLocal(ctx, scope, coll, id, func(r domain.Record) domain.Record {
		return r.Merge(patch)
	})
	if err != nil {
		return fmt.Errorf("dataservice.UpdateOne %s: %w", coll.Name, err)
	}
	if changed {
		s.publish(ctx, scope, coll, EventUpdated, id)
	}
	return nil
}

// DeleteOne removes the record id of coll visible to scope.
func (s *Service) DeleteOne(ctx context.Context, scope domain.Scope, coll domain.Collection, id string) error {
	if s.RemoteAvailable() {
		done, err := s.writeThrough(ctx, scope, coll, "delete", func() error {
			return s.remote.Delete(ctx, coll.Table, id, coll.ReadFilter(scope))
		})
		if err != nil {
			return fmt.Errorf("dataservice.DeleteOne %s: %w", coll.Name, err)
		}
		if done {
			s.publish(ctx, scope, coll, EventDeleted, id)
			return nil
		}
	}

	changed, err := s.mutateLocal(ctx, scope, coll, id, func(domain.Record) domain.Record {
		return nil
	})
	if err != nil {
		return fmt.Errorf("dataservice.DeleteOne %s: %w", coll.Name, err)
	}
	if changed {
		s.publish(ctx, scope, coll, EventDeleted, id)
	}
	return nil
}

// Save replaces the scope's slice of coll with recs. The remote write is an
// upsert keyed by id; the local snapshot is always rewritten. Nothing is
// written when a scoped caller names a record another tenant owns.
func (s *Service) Save(ctx context.Context, scope domain.Scope, coll domain.Collection, recs []domain.Record) error {
	stamped := make([]domain.Record, 0, len(recs))
	for _, r := range recs {
		stamped = append(stamped, coll.Stamp(scope, r))
	}
	if err := s.checkOwnership(ctx, scope, coll, stamped, true); err != nil {
		return fmt.Errorf("dataservice.Save %s: %w", coll.Name, err)
	}
	for _, r := range stamped {
		if r.ID() == "" {
			r[domain.FieldID] = uuid.NewString()
		}
	}

	if s.RemoteAvailable() {
		if err := s.remote.Upsert(ctx, coll.Table, stamped); err != nil {
			logFallback(err, "save", coll, scope)
		}
	}

	if err := s.cache.WriteFiltered(ctx, coll, stamped, scope); err != nil {
		return fmt.Errorf("dataservice.Save %s: %w", coll.Name, err)
	}

	s.publish(ctx, scope, coll, EventSaved, "")
	return nil
}

// ClearAll wipes every row of colls remotely and locally, and ends the
// current session. Failures are logged and never returned.
func (s *Service) ClearAll(ctx context.Context, colls []domain.Collection) {
	keys := make([]string, 0, len(colls)+1)
	for _, coll := range colls {
		if s.RemoteAvailable() {
			if err := s.remote.DeleteAll(ctx, coll.Table); err != nil {
				log.Error().Err(err).Str("collection", coll.Name).Msg("remote clear failed")
			}
		}
		keys = append(keys, coll.CacheKey)
	}
	keys = append(keys, domain.SessionKey)

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("local clear failed")
	}

	for _, coll := range colls {
		s.publish(ctx, domain.NoScope, coll, EventCleared, "")
	}
}

// writeThrough runs a remote write, re-reads coll from the remote and
// mirrors it locally. done is false when either remote call failed and the
// caller must fall back to the cache; err is a local storage failure.
func (s *Service) writeThrough(ctx context.Context, scope domain.Scope, coll domain.Collection, op string, write func() error) (bool, error) {
	if err := write(); err != nil {
		logFallback(err, op, coll, scope)
		return false, nil
	}

	recs, err := s.remote.SelectAll(ctx, coll.Table, coll.ReadFilter(scope))
	if err != nil {
		logFallback(err, op, coll, scope)
		return false, nil
	}

	if err := s.cache.WriteFiltered(ctx, coll, recs, scope); err != nil {
		return false, err
	}
	return true, nil
}

// checkOwnership rejects writes by a scoped caller that would land outside
// its Tenant Scope: a singleton row other than its own, or an id already
// held by another tenant. With remote set, the remote table is consulted as
// well as the cache. Unfiltered collections are scoped by their callers.
func (s *Service) checkOwnership(ctx context.Context, scope domain.Scope, coll domain.Collection, recs []domain.Record, remote bool) error {
	if scope.IsNone() || coll.Kind == domain.GlobalUnfiltered {
		return nil
	}

	if coll.Kind == domain.SingletonByTenantID {
		for _, r := range recs {
			if r.ID() != scope.String() {
				return fmt.Errorf("record %q is not the tenant's own row: %w", r.ID(), domain.ErrForbidden)
			}
		}
		return nil
	}

	wanted := make(map[string]bool, len(recs))
	for _, r := range recs {
		if id := r.ID(); id != "" {
			wanted[id] = true
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	var known []domain.Record
	if remote && s.RemoteAvailable() {
		rows, err := s.remote.SelectAll(ctx, coll.Table, nil)
		if err != nil {
			logFallback(err, "ownership check", coll, scope)
		}
		known = append(known, rows...)
	}
	cached, err := s.cache.Read(ctx, coll.CacheKey)
	if err != nil {
		return err
	}
	known = append(known, cached...)

	for _, r := range known {
		if wanted[r.ID()] && !coll.Visible(scope, r) {
			return fmt.Errorf("record %q belongs to another tenant: %w", r.ID(), domain.ErrForbidden)
		}
	}
	return nil
}

func (s *Service) readLocal(ctx context.Context, coll domain.Collection, scope domain.Scope) ([]domain.Record, error) {
	recs, err := s.cache.Read(ctx, coll.CacheKey)
	if err != nil {
		return nil, err
	}
	return visible(coll, scope, recs), nil
}

// mutateLocal rewrites the cached record id if it is visible to scope. fn
// returns the replacement, or nil to drop the record. It reports whether a
// record matched.
func (s *Service) mutateLocal(ctx context.Context, scope domain.Scope, coll domain.Collection, id string, fn func(domain.Record) domain.Record) (bool, error) {
	recs, err := s.cache.Read(ctx, coll.CacheKey)
	if err != nil {
		return false, err
	}

	matched := false
	next := make([]domain.Record, 0, len(recs))
	for _, r := range recs {
		if r.ID() != id || !coll.Visible(scope, r) {
			next = append(next, r)
			continue
		}
		matched = true
		if out := fn(r); out != nil {
			next = append(next, out)
		}
	}
	if !matched {
		return false, nil
	}
	return true, s.cache.Write(ctx, coll.CacheKey, next)
}

func visible(coll domain.Collection, scope domain.Scope, recs []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(recs))
	for _, r := range recs {
		if coll.Visible(scope, r) {
			out = append(out, r)
		}
	}
	return out
}

func logFallback(err error, op string, coll domain.Collection, scope domain.Scope) {
	log.Warn().Err(err).
		Str("op", op).
		Str("collection", coll.Name).
		Str("scope", scope.String()).
		Msg("remote unavailable, using local cache")
}
