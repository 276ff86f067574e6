package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/store"
)

func (c *Client) SaveSnapshot(ctx context.Context, input store.SnapshotInput) (*store.Snapshot, error) {
	if input.Label == "" {
		return nil, fmt.Errorf("snapshot label must not be empty")
	}
	rows := store.Flatten(input.DB)
	snapshot := &store.Snapshot{
		ID:            uuid.NewString(),
		Label:         input.Label,
		SourceHash:    input.SourceHash,
		CreatedAt:     time.Now().UTC(),
		Articles:      len(rows.Articles),
		Entities:      len(rows.Entities),
		Relationships: len(rows.Edges),
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM snapshots WHERE label = $1", input.Label); err != nil {
		return nil, fmt.Errorf("replacing snapshot %s: %w", input.Label, err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`
INSERT INTO snapshots (id, label, source_hash, created_at, article_count, entity_count, relationship_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snapshot.ID, snapshot.Label, snapshot.SourceHash, snapshot.CreatedAt,
		snapshot.Articles, snapshot.Entities, snapshot.Relationships)

	for _, row := range rows.Articles {
		batch.Queue("INSERT INTO articles (snapshot_id, position, key, metadata) VALUES ($1, $2, $3, $4)",
			snapshot.ID, row.Position, row.Key, row.Metadata)
	}
	for _, row := range rows.Entities {
		batch.Queue(`
INSERT INTO entities (snapshot_id, position, entity_type, name, urls, tags, notes, labels, synonyms, search_vector)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
    setweight(to_tsvector('simple', $4), 'A') || setweight(to_tsvector('simple', $10), 'B'))`,
			snapshot.ID, row.Position, row.EntityType, row.Name,
			row.URLs, row.Tags, row.Notes, row.Labels, row.Synonyms, store.SearchText(row))
	}
	for _, row := range rows.Edges {
		batch.Queue("INSERT INTO edges (snapshot_id, position, rel_type, source, target) VALUES ($1, $2, $3, $4, $5)",
			snapshot.ID, row.Position, row.RelType, row.Source, row.Target)
	}
	for _, row := range rows.Diagnostics {
		batch.Queue(`
INSERT INTO diagnostics (snapshot_id, position, severity, record_key, title, messages)
VALUES ($1, $2, $3, $4, $5, $6)`,
			snapshot.ID, row.Position, row.Severity, row.RecordKey, row.Title, row.Messages)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("inserting snapshot %s: %w", snapshot.Label, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing snapshot: %w", err)
	}
	return snapshot, nil
}

const snapshotColumns = "id, label, source_hash, created_at, article_count, entity_count, relationship_count"

func scanSnapshot(row pgx.Row) (*store.Snapshot, error) {
	var s store.Snapshot
	if err := row.Scan(&s.ID, &s.Label, &s.SourceHash, &s.CreatedAt, &s.Articles, &s.Entities, &s.Relationships); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListSnapshots(ctx context.Context) ([]store.Snapshot, error) {
	rows, err := c.pool.Query(ctx, "SELECT "+snapshotColumns+" FROM snapshots ORDER BY label ASC")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []store.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (c *Client) findSnapshot(ctx context.Context, label string) (*store.Snapshot, error) {
	s, err := scanSnapshot(c.pool.QueryRow(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE ($1 = '' OR label = $1) ORDER BY label DESC LIMIT 1",
		label))
	if errors.Is(err, pgx.ErrNoRows) {
		if label == "" {
			return nil, store.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("%w: %s", store.ErrSnapshotNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("finding snapshot: %w", err)
	}
	return s, nil
}

func (c *Client) LoadSnapshot(ctx context.Context, label string, schema *config.Schema) (*graphdb.DB, *store.Snapshot, error) {
	snapshot, err := c.findSnapshot(ctx, label)
	if err != nil {
		return nil, nil, err
	}

	var rows store.Rows

	rows.Articles, err = collect(ctx, c, "SELECT position, key, metadata FROM articles WHERE snapshot_id = $1 ORDER BY position",
		snapshot.ID, func(r pgx.Rows) (store.ArticleRow, error) {
			var row store.ArticleRow
			err := r.Scan(&row.Position, &row.Key, &row.Metadata)
			return row, err
		})
	if err != nil {
		return nil, nil, fmt.Errorf("loading articles: %w", err)
	}

	rows.Entities, err = collect(ctx, c, `
SELECT position, entity_type, name, urls, tags, notes, labels, synonyms
FROM entities WHERE snapshot_id = $1 ORDER BY position`,
		snapshot.ID, func(r pgx.Rows) (store.EntityRow, error) {
			var row store.EntityRow
			err := r.Scan(&row.Position, &row.EntityType, &row.Name, &row.URLs, &row.Tags, &row.Notes, &row.Labels, &row.Synonyms)
			return row, err
		})
	if err != nil {
		return nil, nil, fmt.Errorf("loading entities: %w", err)
	}

	rows.Edges, err = collect(ctx, c, "SELECT position, rel_type, source, target FROM edges WHERE snapshot_id = $1 ORDER BY position",
		snapshot.ID, func(r pgx.Rows) (store.EdgeRow, error) {
			var row store.EdgeRow
			err := r.Scan(&row.Position, &row.RelType, &row.Source, &row.Target)
			return row, err
		})
	if err != nil {
		return nil, nil, fmt.Errorf("loading edges: %w", err)
	}

	rows.Diagnostics, err = collect(ctx, c, `
SELECT position, severity, record_key, title, messages
FROM diagnostics WHERE snapshot_id = $1 ORDER BY position`,
		snapshot.ID, func(r pgx.Rows) (store.DiagnosticRow, error) {
			var row store.DiagnosticRow
			err := r.Scan(&row.Position, &row.Severity, &row.RecordKey, &row.Title, &row.Messages)
			return row, err
		})
	if err != nil {
		return nil, nil, fmt.Errorf("loading diagnostics: %w", err)
	}

	db, err := store.Assemble(schema, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("assembling snapshot %s: %w", snapshot.Label, err)
	}
	return db, snapshot, nil
}

func collect[T any](ctx context.Context, c *Client, query, snapshotID string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := c.pool.Query(ctx, query, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
