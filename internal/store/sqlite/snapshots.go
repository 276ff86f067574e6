package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

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

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := deleteSnapshot(ctx, tx, input.Label); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO snapshots (id, label, source_hash, created_at, article_count, entity_count, relationship_count)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snapshot.ID, snapshot.Label, snapshot.SourceHash, snapshot.CreatedAt.Format(time.RFC3339Nano),
		snapshot.Articles, snapshot.Entities, snapshot.Relationships)
	if err != nil {
		return nil, fmt.Errorf("inserting snapshot: %w", err)
	}

	for _, row := range rows.Articles {
		metadata, err := json.Marshal(row.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO articles (snapshot_id, position, key, metadata) VALUES (?, ?, ?, ?)",
			snapshot.ID, row.Position, row.Key, string(metadata),
		); err != nil {
			return nil, fmt.Errorf("inserting article %s: %w", row.Key, err)
		}
	}

	for _, row := range rows.Entities {
		lists, err := marshalLists(row.URLs, row.Tags, row.Notes, row.Labels, row.Synonyms)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO entities (snapshot_id, position, entity_type, name, urls, tags, notes, labels, synonyms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, snapshot.ID, row.Position, row.EntityType, row.Name, lists[0], lists[1], lists[2], lists[3], lists[4]); err != nil {
			return nil, fmt.Errorf("inserting %s %s: %w", row.EntityType, row.Name, err)
		}
	}

	for _, row := range rows.Edges {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO edges (snapshot_id, position, rel_type, source, target) VALUES (?, ?, ?, ?, ?)",
			snapshot.ID, row.Position, row.RelType, row.Source, row.Target,
		); err != nil {
			return nil, fmt.Errorf("inserting edge: %w", err)
		}
	}

	for _, row := range rows.Diagnostics {
		messages, err := json.Marshal(row.Messages)
		if err != nil {
			return nil, fmt.Errorf("marshaling diagnostics: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO diagnostics (snapshot_id, position, severity, record_key, title, messages) VALUES (?, ?, ?, ?, ?, ?)",
			snapshot.ID, row.Position, row.Severity, row.RecordKey, row.Title, string(messages),
		); err != nil {
			return nil, fmt.Errorf("inserting diagnostics: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing snapshot: %w", err)
	}
	return snapshot, nil
}

func marshalLists(lists ...[]string) ([]string, error) {
	encoded := make([]string, 0, len(lists))
	for _, list := range lists {
		data, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("marshaling list: %w", err)
		}
		encoded = append(encoded, string(data))
	}
	return encoded, nil
}

func (c *Client) ListSnapshots(ctx context.Context) ([]store.Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, label, source_hash, created_at, article_count, entity_count, relationship_count
	FROM snapshots
	ORDER BY label ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []store.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*store.Snapshot, error) {
	var s store.Snapshot
	var createdAt string
	if err := row.Scan(&s.ID, &s.Label, &s.SourceHash, &createdAt, &s.Articles, &s.Entities, &s.Relationships); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot time: %w", err)
	}
	s.CreatedAt = parsed
	return &s, nil
}

func (c *Client) findSnapshot(ctx context.Context, label string) (*store.Snapshot, error) {
	query := `
	SELECT id, label, source_hash, created_at, article_count, entity_count, relationship_count
	FROM snapshots
	WHERE (? = '' OR label = ?)
	ORDER BY label DESC
	LIMIT 1
	`
	s, err := scanSnapshot(c.db.QueryRowContext(ctx, query, label, label))
	if errors.Is(err, sql.ErrNoRows) {
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
	if rows.Articles, err = c.loadArticles(ctx, snapshot.ID); err != nil {
		return nil, nil, err
	}
	if rows.Entities, err = c.loadEntities(ctx, snapshot.ID); err != nil {
		return nil, nil, err
	}
	if rows.Edges, err = c.loadEdges(ctx, snapshot.ID); err != nil {
		return nil, nil, err
	}
	if rows.Diagnostics, err = c.loadDiagnostics(ctx, snapshot.ID); err != nil {
		return nil, nil, err
	}

	db, err := store.Assemble(schema, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("assembling snapshot %s: %w", snapshot.Label, err)
	}
	return db, snapshot, nil
}

func (c *Client) loadArticles(ctx context.Context, snapshotID string) ([]store.ArticleRow, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT position, key, metadata FROM articles WHERE snapshot_id = ? ORDER BY position", snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}
	defer rows.Close()

	var result []store.ArticleRow
	for rows.Next() {
		var row store.ArticleRow
		var metadata string
		if err := rows.Scan(&row.Position, &row.Key, &metadata); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &row.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *Client) loadEntities(ctx context.Context, snapshotID string) ([]store.EntityRow, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT position, entity_type, name, urls, tags, notes, labels, synonyms
	FROM entities WHERE snapshot_id = ? ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading entities: %w", err)
	}
	defer rows.Close()

	var result []store.EntityRow
	for rows.Next() {
		var row store.EntityRow
		var urls, tags, notes, labels, synonyms string
		if err := rows.Scan(&row.Position, &row.EntityType, &row.Name, &urls, &tags, &notes, &labels, &synonyms); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		for _, field := range []struct {
			raw string
			dst *[]string
		}{{urls, &row.URLs}, {tags, &row.Tags}, {notes, &row.Notes}, {labels, &row.Labels}, {synonyms, &row.Synonyms}} {
			if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
				return nil, fmt.Errorf("unmarshaling %s fields: %w", row.Name, err)
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *Client) loadEdges(ctx context.Context, snapshotID string) ([]store.EdgeRow, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT position, rel_type, source, target FROM edges WHERE snapshot_id = ? ORDER BY position", snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	defer rows.Close()

	var result []store.EdgeRow
	for rows.Next() {
		var row store.EdgeRow
		if err := rows.Scan(&row.Position, &row.RelType, &row.Source, &row.Target); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *Client) loadDiagnostics(ctx context.Context, snapshotID string) ([]store.DiagnosticRow, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT position, severity, record_key, title, messages
	FROM diagnostics WHERE snapshot_id = ? ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading diagnostics: %w", err)
	}
	defer rows.Close()

	var result []store.DiagnosticRow
	for rows.Next() {
		var row store.DiagnosticRow
		var messages string
		if err := rows.Scan(&row.Position, &row.Severity, &row.RecordKey, &row.Title, &messages); err != nil {
			return nil, fmt.Errorf("scanning diagnostics: %w", err)
		}
		if err := json.Unmarshal([]byte(messages), &row.Messages); err != nil {
			return nil, fmt.Errorf("unmarshaling diagnostics: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
