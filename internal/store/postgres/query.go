package postgres

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// Values are compared as text so callers never need to know column types.

func buildSelect(table string, filter *domain.Filter) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT row_to_json(t) FROM %s AS t", ident(table))

	var args []any
	if filter != nil && filter.Field != "" {
		args = append(args, filter.Value)
		fmt.Fprintf(&b, " WHERE t.%s::text = $1", ident(filter.Field))
	}
	return b.String(), args
}

// buildInsert inserts only the columns present in rec so column defaults
// still apply. With upsert, a conflicting id updates those same columns,
// and when rec carries a tenant only a row of that same tenant is updated.
func buildInsert(table string, rec domain.Record, upsert bool) (string, []any) {
	cols := columns(rec)
	quoted := quoteAll(cols)

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) SELECT %s FROM json_populate_record(NULL::%s, $1::json)",
		ident(table), strings.Join(quoted, ", "), strings.Join(quoted, ", "), ident(table))

	if upsert {
		sets := make([]string, 0, len(cols))
		for _, c := range cols {
			if c == domain.FieldID {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", ident(c), ident(c)))
		}
		if len(sets) == 0 {
			fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", ident(domain.FieldID))
		} else {
			fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s", ident(domain.FieldID), strings.Join(sets, ", "))
			if slices.Contains(cols, domain.FieldTenant) {
				fmt.Fprintf(&b, " WHERE %s.%s IS NOT DISTINCT FROM EXCLUDED.%s",
					ident(table), ident(domain.FieldTenant), ident(domain.FieldTenant))
			}
		}
	}

	return b.String(), []any{map[string]any(rec)}
}

// buildUpdate returns "" when partial has nothing to write.
func buildUpdate(table, id string, partial domain.Record, filter *domain.Filter) (string, []any) {
	cols := slices.DeleteFunc(columns(partial), func(c string) bool { return c == domain.FieldID })
	if len(cols) == 0 {
		return "", nil
	}

	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = r.%s", ident(c), ident(c)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s AS t SET %s FROM json_populate_record(NULL::%s, $1::json) AS r WHERE t.%s::text = $2",
		ident(table), strings.Join(sets, ", "), ident(table), ident(domain.FieldID))

	args := []any{map[string]any(partial), id}
	if filter != nil && filter.Field != "" {
		args = append(args, filter.Value)
		fmt.Fprintf(&b, " AND t.%s::text = $3", ident(filter.Field))
	}
	return b.String(), args
}

func buildDelete(table, id string, filter *domain.Filter) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s AS t WHERE t.%s::text = $1", ident(table), ident(domain.FieldID))

	args := []any{id}
	if filter != nil && filter.Field != "" {
		args = append(args, filter.Value)
		fmt.Fprintf(&b, " AND t.%s::text = $2", ident(filter.Field))
	}
	return b.String(), args
}

func buildDeleteAll(table string) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s AS t WHERE t.%s::text <> $1", ident(table), ident(domain.FieldID)),
		[]any{domain.DeleteAllSentinel}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func columns(rec domain.Record) []string {
	cols := make([]string, 0, len(rec))
	for k := range rec {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

func quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ident(c)
	}
	return out
}
