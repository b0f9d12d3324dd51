package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// Field names shared by every record.
const (
	FieldID     = "id"
	FieldTenant = "companyId"

	FieldPasswordHash = "passwordHash"
)

// Record is one row of a collection. Business entities are plain field maps at
// this layer; feature packages convert them to their own shapes.
type Record map[string]any

// ID returns the record identifier, or "" when absent.
func (r Record) ID() string {
	return r.String(FieldID)
}

// TenantID returns the owning tenant, or "" when absent.
func (r Record) TenantID() string {
	return r.String(FieldTenant)
}

// String returns field as a string. Non-string scalars are formatted.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Number returns field as a float64 and whether it held a number.
func (r Record) Number(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	}
	return 0, false
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with every field of partial written over it.
// Fields absent from partial are untouched.
func (r Record) Merge(partial Record) Record {
	out := r.Clone()
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// CloneAll returns shallow copies of every record.
func CloneAll(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Clone())
	}
	return out
}

// SortBy sorts records in place by field. Numbers compare numerically,
// everything else by its string form. Records missing the field sort last.
func SortBy(recs []Record, field string, desc bool) {
	slices.SortStableFunc(recs, func(a, b Record) int {
		_, aok := a[field]
		_, bok := b[field]
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}

		var c int
		an, aNum := a.Number(field)
		bn, bNum := b.Number(field)
		if aNum && bNum {
			c = cmp.Compare(an, bn)
		} else {
			c = cmp.Compare(a.String(field), b.String(field))
		}
		if desc {
			return -c
		}
		return c
	})
}
