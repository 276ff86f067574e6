package instance

import (
	"context"
	"fmt"
	"os"

	"scribl/internal/export"
	"scribl/internal/graphdb"
	"scribl/internal/store"
)

// SaveSnapshot stores the current graph, labelled with its export's
// timestamp.
func (i *Instance) SaveSnapshot(ctx context.Context) (*store.Snapshot, error) {
	if i.current == nil {
		return nil, ErrNoGraph
	}
	s, err := i.Store(ctx)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.SaveSnapshot(ctx, store.SnapshotInput{
		Label:      i.current.Label,
		SourceHash: i.current.SourceHash,
		DB:         i.current.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	i.log.Info("saved snapshot", "label", snapshot.Label)
	return snapshot, nil
}

func (i *Instance) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	s, err := i.Store(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListSnapshots(ctx)
}

// LoadSnapshot rebuilds a stored graph, the latest when label is empty.
func (i *Instance) LoadSnapshot(ctx context.Context, label string) (*graphdb.DB, *store.Snapshot, error) {
	s, err := i.Store(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s.LoadSnapshot(ctx, label, i.Schema)
}

// Diff compares the current graph with a snapshot. An empty label picks
// the latest snapshot older than the current graph; with none the diff is
// against an empty graph. The base snapshot is nil in that case.
func (i *Instance) Diff(ctx context.Context, label string) (*graphdb.DB, *store.Snapshot, error) {
	current, err := i.graph()
	if err != nil {
		return nil, nil, err
	}

	if label == "" {
		snapshots, err := i.Snapshots(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, snapshot := range snapshots {
			if snapshot.Label < i.current.Label {
				label = snapshot.Label
			}
		}
		if label == "" {
			i.log.Debug("no earlier snapshot, diffing against an empty graph")
			return graphdb.Diff(current, graphdb.New(i.Schema)), nil, nil
		}
	}

	base, snapshot, err := i.LoadSnapshot(ctx, label)
	if err != nil {
		return nil, nil, err
	}
	return graphdb.Diff(current, base), snapshot, nil
}

// Backup writes the Cypher export of the current graph to the backup
// folder and returns its path.
func (i *Instance) Backup() (string, error) {
	current, err := i.graph()
	if err != nil {
		return "", err
	}
	path := i.path(BackupDir, i.current.Label+"_db_backup.txt")
	text := export.Text(export.Cypher(current))
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	i.log.Info("backed up graph", "path", path)
	return path, nil
}

func (i *Instance) Inspect(list ...string) (graphdb.Inspection, error) {
	current, err := i.graph()
	if err != nil {
		return graphdb.Inspection{}, err
	}
	return current.Inspect(list...), nil
}

func (i *Instance) CheckSynonyms() (graphdb.SynonymReport, error) {
	current, err := i.graph()
	if err != nil {
		return graphdb.SynonymReport{}, err
	}
	return current.CheckSynonyms(), nil
}

func (i *Instance) CheckAgentLabels() ([]string, error) {
	current, err := i.graph()
	if err != nil {
		return nil, err
	}
	return current.CheckAgentLabels(), nil
}
