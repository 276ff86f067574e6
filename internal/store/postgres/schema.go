package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the snapshot tables. The DDL runs as one implicit
// transaction and every statement is idempotent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS snapshots (
    id                 TEXT PRIMARY KEY,
    label              TEXT NOT NULL UNIQUE,
    source_hash        TEXT DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    article_count      INTEGER DEFAULT 0,
    entity_count       INTEGER DEFAULT 0,
    relationship_count INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS articles (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    key         TEXT NOT NULL,
    metadata    JSONB DEFAULT '[]',
    PRIMARY KEY (snapshot_id, key)
);

CREATE TABLE IF NOT EXISTS entities (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    snapshot_id   TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    position      INTEGER NOT NULL,
    entity_type   TEXT NOT NULL,
    name          TEXT NOT NULL,
    urls          TEXT[] DEFAULT '{}',
    tags          TEXT[] DEFAULT '{}',
    notes         TEXT[] DEFAULT '{}',
    labels        TEXT[] DEFAULT '{}',
    synonyms      TEXT[] DEFAULT '{}',
    search_vector TSVECTOR,
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
    messages    TEXT[] DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_entities_search ON entities USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_entities_snapshot_type ON entities (snapshot_id, entity_type);
CREATE INDEX IF NOT EXISTS idx_entities_tags ON entities USING GIN (tags);
CREATE INDEX IF NOT EXISTS idx_edges_snapshot_type ON edges (snapshot_id, rel_type);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges (snapshot_id, source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges (snapshot_id, target);
CREATE INDEX IF NOT EXISTS idx_diagnostics_snapshot ON diagnostics (snapshot_id);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
