// Package inventory implements stock edits on the inventory collection.
package inventory

import (
	"context"
	"fmt"

	"github.com/gosuda/tenantdesk/internal/domain"
)

// FieldQuantity holds the units in stock of an inventory item.
const FieldQuantity = "quantity"

// Store is the subset of the data service inventory needs.
type Store interface {
	FetchAll(ctx context.Context, scope domain.Scope, coll domain.Collection) ([]domain.Record, error)
	Save(ctx context.Context, scope domain.Scope, coll domain.Collection, recs []domain.Record) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the scope's items ordered by name.
func (s *Service) List(ctx context.Context, scope domain.Scope) ([]domain.Record, error) {
	items, err := s.store.FetchAll(ctx, scope, domain.Inventory)
	if err != nil {
		return nil, fmt.Errorf("inventory.List: %w", err)
	}
	domain.SortBy(items, "name", false)
	return items, nil
}

// AdjustStock adds delta to the quantity of item id and persists the whole
// inventory of scope. Stock never goes below zero.
func (s *Service) AdjustStock(ctx context.Context, scope domain.Scope, id string, delta float64) (domain.Record, error) {
	items, err := s.store.FetchAll(ctx, scope, domain.Inventory)
	if err != nil {
		return nil, fmt.Errorf("inventory.AdjustStock: %w", err)
	}

	idx := -1
	for i, it := range items {
		if it.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("inventory.AdjustStock %s: %w", id, domain.ErrNotFound)
	}

	current, _ := items[idx].Number(FieldQuantity)
	next := current + delta
	if next < 0 {
		return nil, fmt.Errorf("inventory.AdjustStock %s: %v in stock, cannot remove %v: %w",
			id, current, -delta, domain.ErrInvalidRecord)
	}

	updated := items[idx].Clone()
	updated[FieldQuantity] = next
	items[idx] = updated

	if err := s.store.Save(ctx, scope, domain.Inventory, items); err != nil {
		return nil, fmt.Errorf("inventory.AdjustStock: %w", err)
	}
	return updated, nil
}
