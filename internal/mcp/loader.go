package mcp

import (
	"context"
	"sync"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/store"
)

type SnapshotStore interface {
	ListSnapshots(ctx context.Context) ([]store.Snapshot, error)
	LoadSnapshot(ctx context.Context, label string, schema *config.Schema) (*graphdb.DB, *store.Snapshot, error)
}

// SnapshotGraph serves the latest snapshot, or a fixed label, and reloads
// only when a newer snapshot has been saved.
type SnapshotGraph struct {
	Store  SnapshotStore
	Schema *config.Schema
	Label  string

	mu     sync.Mutex
	id     string
	cached *graphdb.DB
}

func (g *SnapshotGraph) LoadGraph(ctx context.Context) (*graphdb.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapshots, err := g.Store.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	var want *store.Snapshot
	for i := range snapshots {
		if g.Label == "" || snapshots[i].Label == g.Label {
			want = &snapshots[i]
		}
	}
	if want == nil {
		return nil, store.ErrSnapshotNotFound
	}
	if g.cached != nil && want.ID == g.id {
		return g.cached, nil
	}

	db, snapshot, err := g.Store.LoadSnapshot(ctx, want.Label, g.Schema)
	if err != nil {
		return nil, err
	}
	g.cached, g.id = db, snapshot.ID
	return db, nil
}

// StaticGraph serves a graph built in memory.
type StaticGraph struct {
	DB *graphdb.DB
}

func (g StaticGraph) LoadGraph(ctx context.Context) (*graphdb.DB, error) {
	return g.DB, nil
}
