package bandsync

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// TileGuard serializes writers to the tile. The band gives no ordering
// guarantee between concurrent page writes.
type TileGuard struct {
	sem *semaphore.Weighted
}

func NewTileGuard() *TileGuard {
	return &TileGuard{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the guard is free or ctx is done.
func (g *TileGuard) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// TryAcquire takes the guard only if it is free.
func (g *TileGuard) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

func (g *TileGuard) Release() {
	g.sem.Release(1)
}
