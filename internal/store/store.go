// Package store persists document graph snapshots. Each snapshot is a full
// copy of one built graph, identified by a label (normally the timestamp of
// the export it was built from).
package store

import (
	"context"
	"errors"

	"scribl/internal/config"
	"scribl/internal/graphdb"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// SaveSnapshot stores a graph under input.Label, replacing any snapshot
	// with the same label.
	SaveSnapshot(ctx context.Context, input SnapshotInput) (*Snapshot, error)
	// LoadSnapshot rebuilds a stored graph. An empty label loads the latest.
	LoadSnapshot(ctx context.Context, label string, schema *config.Schema) (*graphdb.DB, *Snapshot, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	DeleteSnapshot(ctx context.Context, label string) (bool, error)

	Search(ctx context.Context, query, label, entityType string) ([]SearchResult, error)
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
