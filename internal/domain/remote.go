package domain

import "context"

// Filter is an equality constraint on one field.
type Filter struct {
	Field string
	Value string
}

// RemoteStore is the remote relational backend. Callers must check
// Available before issuing operations.
type RemoteStore interface {
	Available() bool
	SelectAll(ctx context.Context, table string, filter *Filter) ([]Record, error)
	Insert(ctx context.Context, table string, rec Record) error
	Update(ctx context.Context, table, id string, partial Record, filter *Filter) error
	Delete(ctx context.Context, table, id string, filter *Filter) error
	// Upsert writes recs using the id column as conflict target.
	Upsert(ctx context.Context, table string, recs []Record) error
	// DeleteAll removes every row of table.
	DeleteAll(ctx context.Context, table string) error
}

// DeleteAllSentinel is an id no row ever has; "id <> sentinel" matches all rows.
const DeleteAllSentinel = "00000000-0000-0000-0000-000000000000"
