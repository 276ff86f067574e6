// Package graph pushes rendered Cypher scripts to a Neo4j database.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"scribl/internal/config"
)

const (
	ArticleLabel  = "ARTICLE"
	MetadataLabel = "METADATA"
)

type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewClient(ctx context.Context, uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: database}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
}

// Labels returns every node label a scribl graph uses.
func Labels(schema *config.Schema) []string {
	labels := []string{ArticleLabel}
	for _, entityType := range schema.EntityTypes {
		labels = append(labels, entityType.Label)
	}
	return append(labels, MetadataLabel)
}

// EnsureConstraints makes entity names unique per label and article keys
// unique.
func (c *Client) EnsureConstraints(ctx context.Context, schema *config.Schema) error {
	session := c.session(ctx)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT scribl_article_key IF NOT EXISTS
FOR (n:ARTICLE) REQUIRE n.key IS UNIQUE`,
	}
	for _, entityType := range schema.EntityTypes {
		statements = append(statements, fmt.Sprintf(`CREATE CONSTRAINT scribl_%s_name IF NOT EXISTS
FOR (n:%s) REQUIRE n.name IS UNIQUE`, entityType.Name, entityType.Label))
	}

	for _, stmt := range statements {
		if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return fmt.Errorf("ensuring constraints: %w", err)
		}
	}

	return nil
}
