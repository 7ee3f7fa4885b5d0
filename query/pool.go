// Package query implements the read-only serving surface over a
// completed set of artifacts: the hand converter plus the tsumo and
// metrics tables.
package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/hahho/tsumodp/flatfile"
)

// ReaderPool is a fixed-size set of pre-opened read-only flatfile handles
// onto the same path, gated by a weighted semaphore. A single
// flatfile.FlatFileVec serializes all calls on it behind one mutex; a pool
// of independent handles lets concurrent queries read in parallel without
// re-opening a file per request.
type ReaderPool[T flatfile.Record[T]] struct {
	handles []*flatfile.FlatFileVec[T]
	free    chan int
	sem     *semaphore.Weighted
}

// NewReaderPool opens size independent read-only handles onto path.
func NewReaderPool[T flatfile.Record[T]](path string, size int) (*ReaderPool[T], error) {
	if size < 1 {
		return nil, fmt.Errorf("query: pool size must be positive, got %d", size)
	}
	handles := make([]*flatfile.FlatFileVec[T], 0, size)
	free := make(chan int, size)
	for i := 0; i < size; i++ {
		h, err := flatfile.OpenReadOnly[T](path)
		if err != nil {
			for _, opened := range handles {
				opened.Close()
			}
			return nil, err
		}
		handles = append(handles, h)
		free <- i
	}
	return &ReaderPool[T]{handles: handles, free: free, sem: semaphore.NewWeighted(int64(size))}, nil
}

// Acquire blocks until a handle is available (or ctx is done), returning
// it plus a release function the caller must call exactly once.
func (p *ReaderPool[T]) Acquire(ctx context.Context) (*flatfile.FlatFileVec[T], func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	idx := <-p.free
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		p.free <- idx
		p.sem.Release(1)
	}
	return p.handles[idx], release, nil
}

// Close closes every handle in the pool.
func (p *ReaderPool[T]) Close() error {
	var firstErr error
	for _, h := range p.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
