package dataservice_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gosuda/tenantdesk/internal/cache"
	"github.com/gosuda/tenantdesk/internal/dataservice"
	"github.com/gosuda/tenantdesk/internal/domain"
)

// fakeRemote is an in-memory RemoteStore. Tables hold rows in insertion
// order; the *Fn fields, when set, replace the default behavior so tests
// can inject failures.
type fakeRemote struct {
	mu        sync.Mutex
	available bool
	tables    map[string][]domain.Record
	calls     []string

	selectFn    func(table string, filter *domain.Filter) ([]domain.Record, error)
	insertFn    func(table string, rec domain.Record) error
	updateFn    func(table, id string) error
	deleteFn    func(table, id string) error
	upsertFn    func(table string) error
	deleteAllFn func(table string) error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{available: true, tables: make(map[string][]domain.Record)}
}

func remoteDown(op, table string) error {
	return &domain.RemoteError{Op: op, Table: table, Status: 503, Message: "service unavailable"}
}

func (f *fakeRemote) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) rows(table string) []domain.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.CloneAll(f.tables[table])
}

func (f *fakeRemote) seedRows(table string, recs ...domain.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], domain.CloneAll(recs)...)
}

func match(r domain.Record, filter *domain.Filter) bool {
	return filter == nil || r.String(filter.Field) == filter.Value
}

func (f *fakeRemote) Available() bool { return f.available }

func (f *fakeRemote) SelectAll(_ context.Context, table string, filter *domain.Filter) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select:" + table)

	if f.selectFn != nil {
		return f.selectFn(table, filter)
	}

	var out []domain.Record
	for _, r := range f.tables[table] {
		if match(r, filter) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) Insert(_ context.Context, table string, rec domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("insert:" + table)

	if f.insertFn != nil {
		return f.insertFn(table, rec)
	}
	f.tables[table] = append(f.tables[table], rec.Clone())
	return nil
}

func (f *fakeRemote) Update(_ context.Context, table, id string, partial domain.Record, filter *domain.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update:" + table)

	if f.updateFn != nil {
		return f.updateFn(table, id)
	}
	for i, r := range f.tables[table] {
		if r.ID() == id && match(r, filter) {
			f.tables[table][i] = r.Merge(partial)
		}
	}
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, table, id string, filter *domain.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete:" + table)

	if f.deleteFn != nil {
		return f.deleteFn(table, id)
	}
	f.tables[table] = slices.DeleteFunc(f.tables[table], func(r domain.Record) bool {
		return r.ID() == id && match(r, filter)
	})
	return nil
}

func (f *fakeRemote) Upsert(_ context.Context, table string, recs []domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upsert:" + table)

	if f.upsertFn != nil {
		return f.upsertFn(table)
	}
	for _, rec := range recs {
		idx := slices.IndexFunc(f.tables[table], func(r domain.Record) bool { return r.ID() == rec.ID() })
		if idx >= 0 {
			f.tables[table][idx] = f.tables[table][idx].Merge(rec)
			continue
		}
		f.tables[table] = append(f.tables[table], rec.Clone())
	}
	return nil
}

func (f *fakeRemote) DeleteAll(_ context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete_all:" + table)

	if f.deleteAllFn != nil {
		return f.deleteAllFn(table)
	}
	delete(f.tables, table)
	return nil
}

// fakePublisher captures published events.
type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads []string
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, string(payload))
	return p.err
}

type fixture struct {
	remote *fakeRemote
	mem    *cache.Memory
	cache  *cache.Cache
	events *fakePublisher
	svc    *dataservice.Service
}

// newFixture wires a Service over a fake remote and an in-memory cache.
// Pass a nil remote for local-only mode.
func newFixture(t *testing.T, remote *fakeRemote) *fixture {
	t.Helper()

	mem := cache.NewMemory()
	c := cache.New(mem)
	events := &fakePublisher{}

	var store domain.RemoteStore
	if remote != nil {
		store = remote
	}

	return &fixture{
		remote: remote,
		mem:    mem,
		cache:  c,
		events: events,
		svc:    dataservice.New(store, c, dataservice.WithPublisher(events)),
	}
}

func (fx *fixture) cached(t *testing.T, coll domain.Collection) []domain.Record {
	t.Helper()
	recs, err := fx.cache.Read(context.Background(), coll.CacheKey)
	require.NoError(t, err)
	return recs
}

func (fx *fixture) prime(t *testing.T, coll domain.Collection, recs ...domain.Record) {
	t.Helper()
	require.NoError(t, fx.cache.Write(context.Background(), coll.CacheKey, recs))
}

func ids(recs []domain.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID())
	}
	return out
}
