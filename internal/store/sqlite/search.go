package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scribl/internal/store"
)

// Search runs a web-style query against entity names, synonyms, tags and
// notes of one snapshot. An empty label searches the latest snapshot.
func (c *Client) Search(ctx context.Context, query, label, entityType string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	snapshot, err := c.findSnapshot(ctx, label)
	if err != nil {
		return nil, err
	}

	ftsQuery := convertWebsearchToFTS5(query)

	sqlQuery := `
	SELECT e.name, e.entity_type, e.tags,
		   bm25(entities_fts, 10.0, 6.0, 3.0, 1.0) AS score,
		   snippet(entities_fts, 3, '**', '**', '...', 32) AS snippet
	FROM entities_fts
	JOIN entities e ON entities_fts.rowid = e.id
	WHERE entities_fts MATCH ?
	  AND e.snapshot_id = ?
	  AND (? = '' OR e.entity_type = ?)
	ORDER BY score ASC, e.name ASC
	LIMIT 50
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, snapshot.ID, entityType, entityType)
	if err != nil {
		return nil, fmt.Errorf("searching entities: %w", err)
	}
	defer rows.Close()

	var results []store.SearchResult
	for rows.Next() {
		r := store.SearchResult{Label: snapshot.Label}
		var tags string
		if err := rows.Scan(&r.Name, &r.EntityType, &tags, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		// bm25 scores are negative; lower is better.
		r.Score = -r.Score
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
				return nil, fmt.Errorf("unmarshaling tags: %w", err)
			}
		}
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

// convertWebsearchToFTS5 rewrites a web-style query (implicit AND, quoted
// phrases, -negation, trailing * prefixes) into FTS5 syntax.
func convertWebsearchToFTS5(query string) string {
	var result strings.Builder
	var inQuote bool
	var current strings.Builder

	flushToken := func() {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}

		upper := strings.ToUpper(token)
		switch upper {
		case "AND", "OR", "NOT":
			if result.Len() > 0 {
				result.WriteString(" ")
			}
			result.WriteString(upper)
			return
		}

		if result.Len() > 0 {
			lastWord := lastWord(result.String())
			if lastWord != "AND" && lastWord != "OR" && lastWord != "NOT" && lastWord != "" {
				result.WriteString(" AND ")
			} else {
				result.WriteString(" ")
			}
		}

		if strings.HasPrefix(token, "-") && len(token) > 1 {
			result.WriteString("NOT ")
			token = token[1:]
		}
		result.WriteString(bareword(token))
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				token := current.String()
				current.Reset()
				if token != "" {
					if result.Len() > 0 {
						result.WriteString(" AND ")
					}
					result.WriteString(`"`)
					result.WriteString(token)
					result.WriteString(`"`)
				}
			} else {
				flushToken()
				inQuote = true
			}
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flushToken()
		default:
			current.WriteByte(ch)
		}
	}

	flushToken()

	return result.String()
}

// bareword quotes tokens FTS5 would not accept unquoted, such as gene
// names with hyphens. A trailing * stays outside the quotes.
func bareword(token string) string {
	stem, prefix := strings.CutSuffix(token, "*")
	for _, r := range stem {
		if r != '_' && r < 0x80 && !('0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			quoted := `"` + strings.ReplaceAll(stem, `"`, `""`) + `"`
			if prefix {
				quoted += "*"
			}
			return quoted
		}
	}
	return token
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
