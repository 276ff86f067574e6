package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Clear detach-deletes every node carrying one of labels and returns how
// many were removed.
func (c *Client) Clear(ctx context.Context, labels []string) (int64, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	query := `
MATCH (n)
WHERE any(label IN labels(n) WHERE label IN $labels)
DETACH DELETE n
RETURN count(n) AS deleted
`

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"labels": labels})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			if count, ok := value.(int64); ok {
				return count, nil
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("clearing graph: %w", err)
	}

	return result.(int64), nil
}
