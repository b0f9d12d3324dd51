package dataservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/tenantdesk/internal/cache"
	"github.com/gosuda/tenantdesk/internal/dataservice"
	"github.com/gosuda/tenantdesk/internal/domain"
)

func TestFetchAll_TenantIsolation(t *testing.T) {
	t.Parallel()

	shared := []domain.Record{
		{"id": "a", "companyId": "T1"},
		{"id": "b", "companyId": "T2"},
		{"id": "c", "companyId": "T1"},
	}

	t.Run("local only", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Customers, shared...)

		got, err := fx.svc.FetchAll(t.Context(), "T1", domain.Customers)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids(got))
	})

	t.Run("remote answers and cache keeps other tenants", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Customers.Table,
			domain.Record{"id": "r1", "companyId": "T1"},
			domain.Record{"id": "r2", "companyId": "T2"},
		)
		fx := newFixture(t, remote)
		fx.prime(t, domain.Customers, shared...)

		got, err := fx.svc.FetchAll(t.Context(), "T1", domain.Customers)
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, ids(got))

		assert.ElementsMatch(t, []string{"b", "r1"}, ids(fx.cached(t, domain.Customers)))
	})

	t.Run("remote leaking a foreign row is filtered", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.selectFn = func(string, *domain.Filter) ([]domain.Record, error) {
			return []domain.Record{{"id": "x", "companyId": "T2"}, {"id": "y", "companyId": "T1"}}, nil
		}
		fx := newFixture(t, remote)

		got, err := fx.svc.FetchAll(t.Context(), "T1", domain.Inventory)
		require.NoError(t, err)
		for _, r := range got {
			assert.Equal(t, "T1", r.TenantID())
		}
	})

	t.Run("remote failure falls back to cache", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.selectFn = func(table string, _ *domain.Filter) ([]domain.Record, error) {
			return nil, remoteDown("select", table)
		}
		fx := newFixture(t, remote)
		fx.prime(t, domain.Customers, shared...)

		got, err := fx.svc.FetchAll(t.Context(), "T2", domain.Customers)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(got))
	})
}

func TestFetchAll_GlobalCollections(t *testing.T) {
	t.Parallel()

	tenants := []domain.Record{{"id": "T1", "name": "One"}, {"id": "T2", "name": "Two"}}
	accounts := []domain.Record{
		{"id": "u1", "companyId": "T1", "email": "a@x"},
		{"id": "u2", "companyId": "T2", "email": "b@x"},
	}

	t.Run("tenant sees only its own company", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Tenants.Table, tenants...)
		fx := newFixture(t, remote)

		got, err := fx.svc.FetchAll(t.Context(), "T1", domain.Tenants)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "T1", got[0].ID())
	})

	t.Run("tenant sees only its own company locally", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Tenants, tenants...)

		got, err := fx.svc.FetchAll(t.Context(), "T2", domain.Tenants)
		require.NoError(t, err)
		assert.Equal(t, []string{"T2"}, ids(got))
	})

	t.Run("platform owner sees every company", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Tenants, tenants...)

		got, err := fx.svc.FetchAll(t.Context(), domain.NoScope, domain.Tenants)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("accounts are unfiltered", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Accounts.Table, accounts...)
		fx := newFixture(t, remote)

		for _, scope := range []domain.Scope{domain.NoScope, "T1"} {
			got, err := fx.svc.FetchAll(t.Context(), scope, domain.Accounts)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"u1", "u2"}, ids(got))
		}
	})
}

func TestInsertOne_StampsScope(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	fx := newFixture(t, remote)

	got, err := fx.svc.InsertOne(t.Context(), "T1", domain.Customers,
		domain.Record{"id": "c1", "companyId": "WRONG", "name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "T1", got.TenantID())

	rows := remote.rows(domain.Customers.Table)
	require.Len(t, rows, 1)
	assert.Equal(t, "T1", rows[0].TenantID())
	assert.Equal(t, "Ana", rows[0].String("name"))

	cached := fx.cached(t, domain.Customers)
	require.Len(t, cached, 1)
	assert.Equal(t, "T1", cached[0].TenantID())
}

func TestInsertOne_Local(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	fx.prime(t, domain.Inventory, domain.Record{"id": "old", "companyId": "T1"})

	got, err := fx.svc.InsertOne(t.Context(), "T1", domain.Inventory, domain.Record{"name": "Cabo USB"})
	require.NoError(t, err)
	require.NotEmpty(t, got.ID(), "id must be generated")

	cached := fx.cached(t, domain.Inventory)
	assert.Equal(t, []string{got.ID(), "old"}, ids(cached), "new record is prepended")

	_, err = fx.svc.InsertOne(t.Context(), "T1", domain.Inventory, domain.Record{"id": "old", "name": "again"})
	require.NoError(t, err)
	cached = fx.cached(t, domain.Inventory)
	assert.Equal(t, []string{"old", got.ID()}, ids(cached), "duplicate id is replaced")
	assert.Equal(t, "again", cached[0].String("name"))
}

func TestInsertOne_RemoteFailurePropagates(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.insertFn = func(table string, _ domain.Record) error {
		return &domain.RemoteError{Op: "insert", Table: table, Status: 409, Code: "23505", Message: "duplicate key"}
	}
	fx := newFixture(t, remote)
	fx.prime(t, domain.Accounts, domain.Record{"id": "u0"})

	got, err := fx.svc.InsertOne(t.Context(), domain.NoScope, domain.Accounts, domain.Record{"id": "u1", "email": "a@x"})
	require.Error(t, err)
	assert.Nil(t, got)

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.True(t, remoteErr.IsConflict())
	assert.Contains(t, err.Error(), "duplicate key")

	assert.Equal(t, []string{"u0"}, ids(fx.cached(t, domain.Accounts)), "rejected record must not be cached")
	assert.Empty(t, fx.events.channels)
}

func TestUpdateOne(t *testing.T) {
	t.Parallel()

	t.Run("local fallback merges only the matching record", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Inventory,
			domain.Record{"id": "p1", "companyId": "T1", "name": "Tela", "price": 100.0},
			domain.Record{"id": "p2", "companyId": "T1", "name": "Bateria", "price": 80.0},
		)

		require.NoError(t, fx.svc.UpdateOne(t.Context(), "T1", domain.Inventory, "p1", domain.Record{"price": 50}))

		cached := fx.cached(t, domain.Inventory)
		require.Len(t, cached, 2)
		assert.Equal(t, "p1", cached[0].ID())
		assert.Equal(t, 50.0, cached[0]["price"])
		assert.Equal(t, "Tela", cached[0]["name"])
		assert.Equal(t, 80.0, cached[1]["price"])
		assert.Equal(t, "Bateria", cached[1]["name"])
	})

	t.Run("cannot touch another tenant's record", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Inventory, domain.Record{"id": "p1", "companyId": "T2", "price": 100.0})

		require.NoError(t, fx.svc.UpdateOne(t.Context(), "T1", domain.Inventory, "p1", domain.Record{"price": 1}))

		cached := fx.cached(t, domain.Inventory)
		assert.Equal(t, 100.0, cached[0]["price"])
		assert.Equal(t, "T2", cached[0].TenantID())
		assert.Empty(t, fx.events.channels, "no event for a no-op")
	})

	t.Run("id and tenant in the patch are not trusted", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Customers, domain.Record{"id": "c1", "companyId": "T1"})

		patch := domain.Record{"id": "hijack", "companyId": "T2", "name": "Ana"}
		require.NoError(t, fx.svc.UpdateOne(t.Context(), "T1", domain.Customers, "c1", patch))

		cached := fx.cached(t, domain.Customers)
		require.Len(t, cached, 1)
		assert.Equal(t, "c1", cached[0].ID())
		assert.Equal(t, "T1", cached[0].TenantID())
		assert.Equal(t, "Ana", cached[0].String("name"))
		assert.Equal(t, "hijack", patch.ID(), "caller's patch is not mutated")
	})

	t.Run("remote success re-fetches into cache", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Inventory.Table,
			domain.Record{"id": "p1", "companyId": "T1", "qty": 1.0},
			domain.Record{"id": "p9", "companyId": "T1", "qty": 9.0},
		)
		fx := newFixture(t, remote)
		fx.prime(t, domain.Inventory, domain.Record{"id": "p1", "companyId": "T1", "qty": 1.0})

		require.NoError(t, fx.svc.UpdateOne(t.Context(), "T1", domain.Inventory, "p1", domain.Record{"qty": 5}))

		assert.Equal(t, []string{"update:inventory", "select:inventory"}, remote.calls)
		cached := fx.cached(t, domain.Inventory)
		assert.Equal(t, []string{"p1", "p9"}, ids(cached))
		assert.Equal(t, 5.0, cached[0]["qty"])
		require.Len(t, fx.events.payloads, 1)
		assert.JSONEq(t, `{"type":"updated","collection":"inventory","id":"p1"}`, fx.events.payloads[0])
		assert.Equal(t, "collection:T1:inventory", fx.events.channels[0])
	})

	t.Run("remote failure falls back to cache", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.updateFn = func(table, _ string) error { return remoteDown("update", table) }
		fx := newFixture(t, remote)
		fx.prime(t, domain.Inventory, domain.Record{"id": "p1", "companyId": "T1", "qty": 1.0})

		require.NoError(t, fx.svc.UpdateOne(t.Context(), "T1", domain.Inventory, "p1", domain.Record{"qty": 2}))
		assert.Equal(t, 2.0, fx.cached(t, domain.Inventory)[0]["qty"])
	})

	t.Run("re-fetch failure falls back to cache", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.selectFn = func(table string, _ *domain.Filter) ([]domain.Record, error) {
			return nil, remoteDown("select", table)
		}
		fx := newFixture(t, remote)
		fx.prime(t, domain.Inventory, domain.Record{"id": "p1", "companyId": "T1", "qty": 1.0})

		require.NoError(t, fx.svc.UpdateOne(t.Context(), "T1", domain.Inventory, "p1", domain.Record{"qty": 3}))
		assert.Equal(t, 3.0, fx.cached(t, domain.Inventory)[0]["qty"])
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		require.NoError(t, fx.svc.UpdateOne(t.Context(), "T1", domain.Inventory, "ghost", domain.Record{"qty": 3}))
		assert.Empty(t, fx.cached(t, domain.Inventory))
	})
}

func TestDeleteOne(t *testing.T) {
	t.Parallel()

	t.Run("local fallback removes exactly the matching record", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Finance,
			domain.Record{"id": "f1", "companyId": "T1"},
			domain.Record{"id": "f2", "companyId": "T1"},
			domain.Record{"id": "f2", "companyId": "T2"},
		)

		require.NoError(t, fx.svc.DeleteOne(t.Context(), "T1", domain.Finance, "f2"))

		cached := fx.cached(t, domain.Finance)
		require.Len(t, cached, 2)
		assert.Equal(t, "f1", cached[0].ID())
		assert.Equal(t, "f2", cached[1].ID())
		assert.Equal(t, "T2", cached[1].TenantID())
	})

	t.Run("remote delete is scoped", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Finance.Table,
			domain.Record{"id": "f1", "companyId": "T1"},
			domain.Record{"id": "f1", "companyId": "T2"},
		)
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.DeleteOne(t.Context(), "T1", domain.Finance, "f1"))

		rows := remote.rows(domain.Finance.Table)
		require.Len(t, rows, 1)
		assert.Equal(t, "T2", rows[0].TenantID())
		assert.Empty(t, fx.cached(t, domain.Finance))
	})

	t.Run("remote failure falls back to cache", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.deleteFn = func(table, _ string) error { return remoteDown("delete", table) }
		fx := newFixture(t, remote)
		fx.prime(t, domain.Finance, domain.Record{"id": "f1", "companyId": "T1"}, domain.Record{"id": "f2", "companyId": "T1"})

		require.NoError(t, fx.svc.DeleteOne(t.Context(), "T1", domain.Finance, "f1"))
		assert.Equal(t, []string{"f2"}, ids(fx.cached(t, domain.Finance)))
	})
}

func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("scoped replace keeps other tenants", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Inventory,
			domain.Record{"id": "a", "companyId": "T1"},
			domain.Record{"id": "b", "companyId": "T2"},
			domain.Record{"id": "c", "companyId": "T1"},
		)

		err := fx.svc.Save(t.Context(), "T1", domain.Inventory, []domain.Record{
			{"id": "d", "companyId": "T2"},
			{"id": "e"},
		})
		require.NoError(t, err)

		cached := fx.cached(t, domain.Inventory)
		assert.Equal(t, []string{"b", "d", "e"}, ids(cached))
		assert.Equal(t, "T2", cached[0].TenantID())
		assert.Equal(t, "T1", cached[1].TenantID(), "caller-supplied tenant is rewritten")
		assert.Equal(t, "T1", cached[2].TenantID())
	})

	t.Run("remote upsert failure still writes locally", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.upsertFn = func(table string) error { return remoteDown("upsert", table) }
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.Save(t.Context(), "T1", domain.Budgets, []domain.Record{{"id": "b1"}}))
		assert.Equal(t, []string{"b1"}, ids(fx.cached(t, domain.Budgets)))
	})

	t.Run("remote receives stamped records", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.Save(t.Context(), "T1", domain.Team, []domain.Record{{"name": "Caio"}}))

		rows := remote.rows(domain.Team.Table)
		require.Len(t, rows, 1)
		assert.Equal(t, "T1", rows[0].TenantID())
		assert.NotEmpty(t, rows[0].ID())
	})

	t.Run("global replace", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Accounts, domain.Record{"id": "u1", "companyId": "T1"})

		require.NoError(t, fx.svc.Save(t.Context(), "T2", domain.Accounts, []domain.Record{{"id": "u2", "companyId": "T9"}}))

		cached := fx.cached(t, domain.Accounts)
		assert.Equal(t, []string{"u2"}, ids(cached))
		assert.Equal(t, "T9", cached[0].TenantID())
	})
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.seedRows(domain.Inventory.Table, domain.Record{"id": "p1"})
	remote.deleteAllFn = func(table string) error {
		if table == domain.Customers.Table {
			return remoteDown("delete_all", table)
		}
		return nil
	}
	fx := newFixture(t, remote)
	ctx := context.Background()

	fx.prime(t, domain.Inventory, domain.Record{"id": "p1"})
	fx.prime(t, domain.Customers, domain.Record{"id": "c1"})
	fx.prime(t, domain.Finance, domain.Record{"id": "f1"})
	require.NoError(t, fx.mem.Put(ctx, domain.SessionKey, []byte(`{"id":"u1"}`)))

	fx.svc.ClearAll(ctx, []domain.Collection{domain.Inventory, domain.Customers})

	assert.Equal(t, []string{"delete_all:inventory", "delete_all:customers"}, remote.calls)
	assert.ElementsMatch(t, []string{domain.Finance.CacheKey}, fx.mem.Keys())
}

func TestSeedInitialData(t *testing.T) {
	t.Parallel()

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.SeedInitialData(t.Context()))
		require.NoError(t, fx.svc.SeedInitialData(t.Context()))

		assert.Len(t, remote.rows(domain.Tenants.Table), 1)
		assert.Len(t, remote.rows(domain.Accounts.Table), 1)
		assert.Len(t, remote.rows(domain.Customers.Table), 1)
		assert.Len(t, remote.rows(domain.ServiceOrders.Table), 1)
	})

	t.Run("inserts in dependency order with valid references", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.SeedInitialData(t.Context()))

		assert.Equal(t, []string{
			"select:tenants",
			"insert:tenants",
			"insert:accounts",
			"insert:customers",
			"insert:service_orders",
		}, remote.calls)

		tenant := remote.rows(domain.Tenants.Table)[0]
		account, err := domain.AccountFromRecord(remote.rows(domain.Accounts.Table)[0])
		require.NoError(t, err)
		customer := remote.rows(domain.Customers.Table)[0]
		order := remote.rows(domain.ServiceOrders.Table)[0]

		assert.Equal(t, tenant.ID(), account.CompanyID)
		assert.Equal(t, domain.RoleTenantAdmin, account.Role)
		assert.NotEqual(t, dataservice.DefaultSeed().AdminPassword, account.PasswordHash)
		assert.Equal(t, tenant.ID(), customer.TenantID())
		assert.Equal(t, tenant.ID(), order.TenantID())
		assert.Equal(t, customer.ID(), order.String("customerId"))
	})

	t.Run("existing tenants skip", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Tenants.Table, domain.Record{"id": "T1"})
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.SeedInitialData(t.Context()))
		assert.Equal(t, []string{"select:tenants"}, remote.calls)
	})

	t.Run("no-op without remote", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		require.NoError(t, fx.svc.SeedInitialData(t.Context()))
		assert.Empty(t, fx.mem.Keys())
	})

	t.Run("unavailable remote is a no-op", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.available = false
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.SeedInitialData(t.Context()))
		assert.Empty(t, remote.calls)
	})

	t.Run("insert failure stops the chain", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.insertFn = func(table string, _ domain.Record) error {
			if table == domain.Accounts.Table {
				return remoteDown("insert", table)
			}
			return nil
		}
		fx := newFixture(t, remote)

		err := fx.svc.SeedInitialData(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin account")
		assert.NotContains(t, remote.calls, "insert:customers")
	})
}

func TestFetchAll_OrderingIsCallersJob(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, newFakeRemote())
	for _, name := range []string{"B", "C", "A"} {
		_, err := fx.svc.InsertOne(t.Context(), "T1", domain.Customers, domain.Record{"name": name})
		require.NoError(t, err)
	}

	got, err := fx.svc.FetchAll(t.Context(), "T1", domain.Customers)
	require.NoError(t, err)
	require.Len(t, got, 3)

	domain.SortBy(got, "name", false)
	names := make([]string, 0, len(got))
	for _, r := range got {
		names = append(names, r.String("name"))
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestLocalStorageFailurePropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	svc := dataservice.New(nil, cache.New(failingBackend{err: boom}))

	_, err := svc.FetchAll(t.Context(), "T1", domain.Inventory)
	require.ErrorIs(t, err, boom)

	_, err = svc.InsertOne(t.Context(), "T1", domain.Inventory, domain.Record{"id": "p"})
	require.ErrorIs(t, err, boom)

	require.ErrorIs(t, svc.Save(t.Context(), "T1", domain.Inventory, nil), boom)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	fx.events.err = errors.New("redis down")

	_, err := fx.svc.InsertOne(t.Context(), domain.NoScope, domain.Tenants, domain.Record{"id": "T1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"collection:_platform:tenants"}, fx.events.channels)
}

type failingBackend struct{ err error }

func (b failingBackend) Get(context.Context, string) ([]byte, error) { return nil, b.err }

func (b failingBackend) Put(context.Context, string, []byte) error { return b.err }

func (b failingBackend) Delete(context.Context, ...string) error { return b.err }

func TestSave_ForeignRecordRejected(t *testing.T) {
	t.Parallel()

	t.Run("remote row of another tenant", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Inventory.Table, domain.Record{"id": "x", "companyId": "T2", "name": "Tela"})
		fx := newFixture(t, remote)

		err := fx.svc.Save(t.Context(), "T1", domain.Inventory, []domain.Record{{"id": "x", "name": "mine now"}})
		require.ErrorIs(t, err, domain.ErrForbidden)

		assert.NotContains(t, remote.calls, "upsert:inventory")
		got, err := fx.svc.FetchAll(t.Context(), "T2", domain.Inventory)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Tela", got[0].String("name"))
		assert.Empty(t, fx.events.channels)
	})

	t.Run("cached row of another tenant", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Inventory,
			domain.Record{"id": "x", "companyId": "T2"},
			domain.Record{"id": "a", "companyId": "T1"},
		)

		err := fx.svc.Save(t.Context(), "T1", domain.Inventory, []domain.Record{{"id": "a"}, {"id": "x"}})
		require.ErrorIs(t, err, domain.ErrForbidden)

		cached := fx.cached(t, domain.Inventory)
		assert.Equal(t, []string{"x", "a"}, ids(cached), "nothing is written")
		assert.Equal(t, "T2", cached[0].TenantID())
	})

	t.Run("own rows and new ids pass", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Inventory.Table,
			domain.Record{"id": "a", "companyId": "T1"},
			domain.Record{"id": "b", "companyId": "T2"},
		)
		fx := newFixture(t, remote)

		require.NoError(t, fx.svc.Save(t.Context(), "T1", domain.Inventory, []domain.Record{{"id": "a"}, {"id": "n"}, {"name": "no id"}}))
		got, err := fx.svc.FetchAll(t.Context(), "T2", domain.Inventory)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(got))
	})

	t.Run("platform scope is not checked", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, nil)
		fx.prime(t, domain.Inventory, domain.Record{"id": "x", "companyId": "T2"})

		require.NoError(t, fx.svc.Save(t.Context(), domain.NoScope, domain.Inventory, []domain.Record{{"id": "x", "companyId": "T2", "qty": 1.0}}))
	})
}

func TestSingleton_OnlyOwnRow(t *testing.T) {
	t.Parallel()

	t.Run("insert of another tenant row", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		fx := newFixture(t, remote)

		_, err := fx.svc.InsertOne(t.Context(), "T1", domain.Tenants, domain.Record{"id": "T9", "name": "Forged"})
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, remote.rows(domain.Tenants.Table))
	})

	t.Run("save of another tenant row", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		remote.seedRows(domain.Tenants.Table, domain.Record{"id": "T2", "name": "Beta"})
		fx := newFixture(t, remote)

		err := fx.svc.Save(t.Context(), "T1", domain.Tenants, []domain.Record{{"id": "T2", "name": "Hijacked"}})
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, "Beta", remote.rows(domain.Tenants.Table)[0].String("name"))
	})

	t.Run("own row without id", func(t *testing.T) {
		t.Parallel()

		remote := newFakeRemote()
		fx := newFixture(t, remote)

		got, err := fx.svc.InsertOne(t.Context(), "T1", domain.Tenants, domain.Record{"name": "Acme"})
		require.NoError(t, err)
		assert.Equal(t, "T1", got.ID())
	})
}

func TestInsertOne_ForeignCachedIDRejected(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	fx.prime(t, domain.Customers, domain.Record{"id": "c1", "companyId": "T2", "name": "Bia"})

	_, err := fx.svc.InsertOne(t.Context(), "T1", domain.Customers, domain.Record{"id": "c1", "name": "Ana"})
	require.ErrorIs(t, err, domain.ErrForbidden)

	cached := fx.cached(t, domain.Customers)
	require.Len(t, cached, 1)
	assert.Equal(t, "T2", cached[0].TenantID())
	assert.Equal(t, "Bia", cached[0].String("name"))
}
