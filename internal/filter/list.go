package filter

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"penny_watch/internal/storage"
)

// List is the operator-facing filter collection. Every call reloads the
// stored list. Read-modify-write sequences are serialized per List.
type List struct {
	mu    sync.Mutex
	store storage.Storage
}

// NewList returns a List persisted in store.
func NewList(store storage.Storage) *List {
	return &List{store: store}
}

// AddResult reports the outcome of Add.
type AddResult struct {
	Filter string
	Added  bool
	Total  int
}

// RemoveResult reports the outcome of Remove.
type RemoveResult struct {
	Filter  string
	Removed bool
	Total   int
}

// All returns the current filters in insertion order.
func (l *List) All(ctx context.Context) ([]string, error) {
	filters, err := l.store.LoadFilters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load filters: %w", err)
	}
	return filters, nil
}

// Add appends word in normalized form unless it is already present.
func (l *List) Add(ctx context.Context, word string) (AddResult, error) {
	normalized := Normalize(word)
	if normalized == "" {
		return AddResult{}, fmt.Errorf("filter word is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	filters, err := l.All(ctx)
	if err != nil {
		return AddResult{}, err
	}
	if slices.Contains(filters, normalized) {
		return AddResult{Filter: normalized, Total: len(filters)}, nil
	}

	filters = append(filters, normalized)
	if err := l.store.SaveFilters(ctx, filters); err != nil {
		return AddResult{}, fmt.Errorf("save filters: %w", err)
	}
	return AddResult{Filter: normalized, Added: true, Total: len(filters)}, nil
}

// Remove deletes word if present. A missing word is not an error.
func (l *List) Remove(ctx context.Context, word string) (RemoveResult, error) {
	normalized := Normalize(word)

	l.mu.Lock()
	defer l.mu.Unlock()

	filters, err := l.All(ctx)
	if err != nil {
		return RemoveResult{}, err
	}
	idx := slices.Index(filters, normalized)
	if idx < 0 {
		return RemoveResult{Filter: normalized, Total: len(filters)}, nil
	}

	filters = slices.Delete(filters, idx, idx+1)
	if err := l.store.SaveFilters(ctx, filters); err != nil {
		return RemoveResult{}, fmt.Errorf("save filters: %w", err)
	}
	return RemoveResult{Filter: normalized, Removed: true, Total: len(filters)}, nil
}

// Clear persists an empty list and returns how many filters were dropped.
func (l *List) Clear(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	filters, err := l.All(ctx)
	if err != nil {
		return 0, err
	}
	if err := l.store.SaveFilters(ctx, []string{}); err != nil {
		return 0, fmt.Errorf("save filters: %w", err)
	}
	return len(filters), nil
}
