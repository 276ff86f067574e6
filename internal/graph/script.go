package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ApplyScript runs each statement in its own write transaction and stops
// at the first failure. It returns the number of statements applied.
func (c *Client) ApplyScript(ctx context.Context, statements []string) (int, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	applied := 0
	for n, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		query := strings.TrimSuffix(strings.TrimSpace(stmt), ";")
		if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, query, nil)
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		}); err != nil {
			return applied, fmt.Errorf("applying statement %d: %w", n+1, err)
		}
		applied++
	}
	return applied, nil
}

// SplitScript splits a script written by export into statements. A
// statement ends with a line whose last character is ";".
func SplitScript(text string) []string {
	var statements []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" && len(current) == 0 {
			continue
		}
		current = append(current, line)
		if strings.HasSuffix(strings.TrimRight(line, " \t\r"), ";") {
			statements = append(statements, strings.Join(current, "\n"))
			current = nil
		}
	}
	if rest := strings.TrimSpace(strings.Join(current, "\n")); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}
