package postgres

import (
	"context"
	"fmt"
)

// DeleteSnapshot removes a snapshot. Child rows go with it through the
// cascading foreign keys.
func (c *Client) DeleteSnapshot(ctx context.Context, label string) (bool, error) {
	tag, err := c.pool.Exec(ctx, "DELETE FROM snapshots WHERE label = $1", label)
	if err != nil {
		return false, fmt.Errorf("removing snapshot %s: %w", label, err)
	}
	return tag.RowsAffected() > 0, nil
}
