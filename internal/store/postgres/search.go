package postgres

import (
	"context"
	"fmt"
	"strings"

	"scribl/internal/store"
)

// Search matches a web-style query against one snapshot. An empty label
// searches the latest snapshot.
func (c *Client) Search(ctx context.Context, query, label, entityType string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	snapshot, err := c.findSnapshot(ctx, label)
	if err != nil {
		return nil, err
	}

	sql := `
SELECT name, entity_type, tags,
    ts_rank(search_vector, websearch_to_tsquery('simple', $1)) AS score,
    CASE WHEN cardinality(notes) > 0 THEN
        ts_headline('simple', array_to_string(notes, ' '), websearch_to_tsquery('simple', $1),
            'MaxFragments=2, MaxWords=40, MinWords=20, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM entities
WHERE search_vector @@ websearch_to_tsquery('simple', $1)
  AND snapshot_id = $2
  AND ($3 = '' OR entity_type = $3)
ORDER BY score DESC, name ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query, snapshot.ID, entityType)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	var results []store.SearchResult
	for rows.Next() {
		r := store.SearchResult{Label: snapshot.Label}
		var score float32
		err := rows.Scan(&r.Name, &r.EntityType, &r.Tags, &score, &r.Snippet)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Score = float64(score)
		if r.Tags == nil {
			r.Tags = []string{}
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	if results == nil {
		results = []store.SearchResult{}
	}

	return results, nil
}
