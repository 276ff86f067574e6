package store

import (
	"time"

	"scribl/internal/graphdb"
)

type SnapshotInput struct {
	Label      string
	SourceHash string
	DB         *graphdb.DB
}

type Snapshot struct {
	ID            string
	Label         string
	SourceHash    string
	CreatedAt     time.Time
	Articles      int
	Entities      int
	Relationships int
}

type SearchResult struct {
	Label      string
	Name       string
	EntityType string
	Tags       []string
	Score      float64
	Snippet    string
}

// ArticleRow, EntityRow, EdgeRow and DiagnosticRow are the flattened form of
// a graph as the backends store it. Position preserves insertion order.
type ArticleRow struct {
	Position int
	Key      string
	Metadata []graphdb.MetadataField
}

type EntityRow struct {
	Position   int
	EntityType string
	Name       string
	URLs       []string
	Tags       []string
	Notes      []string
	Labels     []string
	Synonyms   []string
}

type EdgeRow struct {
	Position int
	RelType  string
	Source   string
	Target   string
}

const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

type DiagnosticRow struct {
	Position  int
	Severity  string
	RecordKey string
	Title     string
	Messages  []string
}

type Rows struct {
	Articles    []ArticleRow
	Entities    []EntityRow
	Edges       []EdgeRow
	Diagnostics []DiagnosticRow
}
