package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// Store is a remote store that speaks SQL to Postgres directly instead of
// going through the REST gateway. Rows travel as JSON objects so any table
// of the catalog can be served without per-entity code.
type Store struct {
	pool *pgxpool.Pool
}

var _ domain.RemoteStore = (*Store)(nil)

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Available() bool {
	return s != nil && s.pool != nil
}

func (s *Store) SelectAll(ctx context.Context, table string, filter *domain.Filter) ([]domain.Record, error) {
	query, args := buildSelect(table, filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, remoteErr("select", table, err)
	}
	defer rows.Close()

	recs := []domain.Record{}
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec); err != nil {
			return nil, remoteErr("select", table, fmt.Errorf("scan: %w", err))
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr("select", table, err)
	}

	return recs, nil
}

func (s *Store) Insert(ctx context.Context, table string, rec domain.Record) error {
	query, args := buildInsert(table, rec, false)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return remoteErr("insert", table, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, table, id string, partial domain.Record, filter *domain.Filter) error {
	query, args := buildUpdate(table, id, partial, filter)
	if query == "" {
		return nil
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return remoteErr("update", table, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table, id string, filter *domain.Filter) error {
	query, args := buildDelete(table, id, filter)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return remoteErr("delete", table, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, table string, recs []domain.Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return remoteErr("upsert", table, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range recs {
		query, args := buildInsert(table, rec, true)
		batch.Queue(query, args...)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return remoteErr("upsert", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return remoteErr("upsert", table, err)
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context, table string) error {
	query, args := buildDeleteAll(table)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return remoteErr("delete_all", table, err)
	}
	return nil
}

func remoteErr(op, table string, err error) error {
	rerr := &domain.RemoteError{Op: op, Table: table, Err: err}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		rerr.Code = pgErr.Code
		rerr.Message = pgErr.Message
		if pgErr.Detail != "" {
			rerr.Message += ": " + pgErr.Detail
		}
	}
	return rerr
}
