package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (c *Client) DeleteSnapshot(ctx context.Context, label string) (bool, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	deleted, err := deleteSnapshot(ctx, tx, label)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing delete: %w", err)
	}
	return deleted, nil
}

// deleteSnapshot removes a snapshot and its rows. Child tables are cleared
// explicitly since foreign key enforcement is per connection in SQLite.
func deleteSnapshot(ctx context.Context, tx *sql.Tx, label string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM snapshots WHERE label = ?", label).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("finding snapshot %s: %w", label, err)
	}

	for _, table := range []string{"articles", "entities", "edges", "diagnostics"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE snapshot_id = ?", id); err != nil {
			return false, fmt.Errorf("removing %s of snapshot %s: %w", table, label, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("removing snapshot %s: %w", label, err)
	}
	return true, nil
}
