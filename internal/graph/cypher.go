package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// RunCypher runs a read query and returns its records as maps.
func (c *Client) RunCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0)
		for res.Next(ctx) {
			record := res.Record()
			row := make(map[string]any, len(record.Keys))
			for _, key := range record.Keys {
				value, _ := record.Get(key)
				row[key] = value
			}
			rows = append(rows, row)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("run cypher: %w", err)
	}

	return result.([]map[string]any), nil
}

// Counts returns the number of nodes per label.
func (c *Client) Counts(ctx context.Context, labels []string) (map[string]int64, error) {
	rows, err := c.RunCypher(ctx, `
UNWIND $labels AS label
CALL {
    WITH label
    MATCH (n) WHERE label IN labels(n)
    RETURN count(n) AS total
}
RETURN label, total
`, map[string]any{"labels": labels})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		label, _ := row["label"].(string)
		total, _ := row["total"].(int64)
		counts[label] = total
	}
	return counts, nil
}
