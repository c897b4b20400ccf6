package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryStore is a generic thread-safe map backed store that the typed in-memory
// repositories build on
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items: make(map[string]T),
	}
}

func (s *InMemoryStore[T]) Create(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return fmt.Errorf("item with id %s already exists", id)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		var zero T
		return zero, fmt.Errorf("item with id %s not found", id)
	}
	return item, nil
}

func (s *InMemoryStore[T]) Update(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("item with id %s not found", id)
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return fmt.Errorf("item with id %s not found", id)
	}
	delete(s.items, id)
	return nil
}

// BaseFilter is the pagination surface List needs from a filter
type BaseFilter interface {
	GetLimit() int
	GetOffset() int
	IsUnlimited() bool
}

// List returns the items accepted by filterFn, ordered by sortFn and paginated by filter
func (s *InMemoryStore[T]) List(
	ctx context.Context,
	filter BaseFilter,
	filterFn func(context.Context, T, interface{}) bool,
	sortFn func(i, j T) bool,
) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []T
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			result = append(result, item)
		}
	}

	if sortFn != nil {
		sort.SliceStable(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}

	if filter == nil || filter.IsUnlimited() {
		return result, nil
	}

	offset := filter.GetOffset()
	if offset >= len(result) {
		return []T{}, nil
	}
	end := len(result)
	if limit := filter.GetLimit(); limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return result[offset:end], nil
}

// Count returns the number of items accepted by filterFn
func (s *InMemoryStore[T]) Count(ctx context.Context, filter interface{}, filterFn func(context.Context, T, interface{}) bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			count++
		}
	}
	return count, nil
}

// Clear removes all items
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}
