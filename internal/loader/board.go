package loader

import (
	"context"
	"sync"

	"taskdeck/internal/filter"
	"taskdeck/internal/service"
)

// Board is the filtered task board. Once loaded, a filter change refetches
// with the composed query; a set that changes nothing does not.
type Board struct {
	loader *Loader

	mu     sync.Mutex
	filter filter.Filter
	loaded bool
}

// NewBoard returns a board with no filters set.
func (l *Loader) NewBoard() *Board {
	return &Board{loader: l}
}

// Filter returns the current filter.
func (b *Board) Filter() filter.Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Load fetches the tasks for the current filter.
func (b *Board) Load(ctx context.Context) ([]service.Task, error) {
	b.mu.Lock()
	f := b.filter
	b.loaded = true
	b.mu.Unlock()
	return b.loader.Tasks(ctx, f)
}

// SetFilter changes one filter. If the board has been loaded and the filter
// changed, the tasks are refetched. Reports whether a fetch happened.
func (b *Board) SetFilter(ctx context.Context, name filter.Name, value string) (bool, error) {
	b.mu.Lock()
	changed, err := b.filter.Set(name, value)
	loaded := b.loaded
	b.mu.Unlock()
	if err != nil {
		return false, err
	}
	if !changed || !loaded {
		return false, nil
	}
	_, err = b.Load(ctx)
	return err == nil, err
}

// Reset clears every filter, refetching when something was set.
func (b *Board) Reset(ctx context.Context) (bool, error) {
	b.mu.Lock()
	changed := b.filter.Reset()
	loaded := b.loaded
	b.mu.Unlock()
	if !changed || !loaded {
		return false, nil
	}
	_, err := b.Load(ctx)
	return err == nil, err
}
