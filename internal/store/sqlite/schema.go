package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id                 TEXT PRIMARY KEY,
		label              TEXT NOT NULL UNIQUE,
		source_hash        TEXT DEFAULT '',
		created_at         TEXT NOT NULL,
		article_count      INTEGER DEFAULT 0,
		entity_count       INTEGER DEFAULT 0,
		relationship_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS articles (
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		key         TEXT NOT NULL,
		metadata    TEXT DEFAULT '[]',
		PRIMARY KEY (snapshot_id, key)
	);

	CREATE TABLE IF NOT EXISTS entities (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		entity_type TEXT NOT NULL,
		name        TEXT NOT NULL,
		urls        TEXT DEFAULT '[]',
		tags        TEXT DEFAULT '[]',
		notes       TEXT DEFAULT '[]',
		labels      TEXT DEFAULT '[]',
		synonyms    TEXT DEFAULT '[]',
		CONSTRAINT uq_entity UNIQUE (snapshot_id, entity_type, name)
	);

	CREATE TABLE IF NOT EXISTS edges (
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		rel_type    TEXT NOT NULL,
		source      TEXT NOT NULL,
		target      TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, rel_type, source, target)
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		severity    TEXT NOT NULL,
		record_key  TEXT NOT NULL,
		title       TEXT DEFAULT '',
		messages    TEXT DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_entities_snapshot_type ON entities (snapshot_id, entity_type);
	CREATE INDEX IF NOT EXISTS idx_edges_snapshot_type ON edges (snapshot_id, rel_type);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges (snapshot_id, source);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges (snapshot_id, target);
	CREATE INDEX IF NOT EXISTS idx_diagnostics_snapshot ON diagnostics (snapshot_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS entities_fts USING fts5(
		name,
		synonyms,
		tags,
		notes,
		content=entities,
		content_rowid=id
	);

	CREATE TRIGGER IF NOT EXISTS entities_ai AFTER INSERT ON entities BEGIN
		INSERT INTO entities_fts(rowid, name, synonyms, tags, notes)
		VALUES (new.id, new.name, new.synonyms, new.tags, new.notes);
	END;

	CREATE TRIGGER IF NOT EXISTS entities_ad AFTER DELETE ON entities BEGIN
		INSERT INTO entities_fts(entities_fts, rowid, name, synonyms, tags, notes)
		VALUES ('delete', old.id, old.name, old.synonyms, old.tags, old.notes);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements splits DDL on lines ending in ";". Trigger bodies end
// with "END;" so their inner statements are joined back together.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && upper != "END;" {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}
