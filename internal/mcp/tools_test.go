package mcp

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/parser"
	"scribl/internal/store"
)

type mockSearcher struct {
	result []store.SearchResult
	err    error

	lastQuery string
	lastLabel string
	lastType  string
}

func (m *mockSearcher) Search(ctx context.Context, query, label, entityType string) ([]store.SearchResult, error) {
	m.lastQuery = query
	m.lastLabel = label
	m.lastType = entityType
	return m.result, m.err
}

type mockSnapshotStore struct {
	snapshots []store.Snapshot
	db        *graphdb.DB
	loads     int
}

func (m *mockSnapshotStore) ListSnapshots(ctx context.Context) ([]store.Snapshot, error) {
	return m.snapshots, nil
}

func (m *mockSnapshotStore) LoadSnapshot(ctx context.Context, label string, schema *config.Schema) (*graphdb.DB, *store.Snapshot, error) {
	m.loads++
	for i := range m.snapshots {
		if m.snapshots[i].Label == label {
			return m.db, &m.snapshots[i], nil
		}
	}
	return nil, nil, store.ErrSnapshotNotFound
}

func testGraph() *graphdb.DB {
	schema := config.DefaultSchema()
	builder := graphdb.NewBuilder(schema, parser.New(schema, parser.NewGrammar(schema)), config.TagDelimiter)
	return builder.Build([]graphdb.Record{{
		Key:        "K1",
		Metadata:   []graphdb.MetadataField{{Name: "zotero_key", Value: "K1"}, {Name: "title", Value: "Autophagy"}},
		Annotation: "::agent b :protein; ::agent a ~ b :syn alpha; ::process p @ a",
	}})
}

func newTestServer(searcher Searcher) *Server {
	return NewServer(config.DefaultSchema(), StaticGraph{DB: testGraph()}, searcher, "test")
}

func TestParseAnnotation(t *testing.T) {
	server := newTestServer(nil)

	_, output, err := server.handleParseAnnotation(context.Background(), nil, ParseAnnotationInput{
		Text: "::agent a ~ b; ::agent b; ::process p @ a; ::process q @ missing",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, entity := range output.Entities {
		names = append(names, entity.Type+":"+entity.Name)
	}
	if !slices.Equal(names, []string{"agent:a", "agent:b", "process:p", "process:q"}) {
		t.Fatalf("unexpected entities: %v", names)
	}
	rels := output.Entities[0].Relationships
	if len(rels) != 1 || rels[0].Type != "MODIFIES" || rels[0].Target != "b" {
		t.Fatalf("unexpected relationships of a: %+v", rels)
	}
	if len(output.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", output.Errors)
	}
}

func TestParseAnnotationIsStateless(t *testing.T) {
	server := newTestServer(nil)

	for range 2 {
		_, output, err := server.handleParseAnnotation(context.Background(), nil, ParseAnnotationInput{Text: "::agent a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(output.Entities) != 1 {
			t.Fatalf("expected 1 entity, got %d", len(output.Entities))
		}
	}
}

func TestParseAnnotation_RequiresText(t *testing.T) {
	server := newTestServer(nil)

	_, _, err := server.handleParseAnnotation(context.Background(), nil, ParseAnnotationInput{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetEntity(t *testing.T) {
	server := newTestServer(nil)

	_, output, err := server.handleGetEntity(context.Background(), nil, GetEntityInput{Type: "agent", Name: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(output.Synonyms, "alpha") {
		t.Fatalf("expected synonym alpha, got %v", output.Synonyms)
	}

	_, article, err := server.handleGetEntity(context.Background(), nil, GetEntityInput{Type: "article", Name: "K1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(article.Metadata) != 2 || article.Metadata[1].Value != "Autophagy" {
		t.Fatalf("unexpected article metadata: %+v", article.Metadata)
	}
}

func TestGetEntity_NotFound(t *testing.T) {
	server := newTestServer(nil)

	_, _, err := server.handleGetEntity(context.Background(), nil, GetEntityInput{Type: "agent", Name: "missing"})
	if !errors.Is(err, graphdb.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, _, err = server.handleGetEntity(context.Background(), nil, GetEntityInput{Type: "gizmo", Name: "a"})
	if !errors.Is(err, graphdb.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
}

func TestShowRelationships(t *testing.T) {
	server := newTestServer(nil)

	_, output, err := server.handleShowRelationships(context.Background(), nil, ShowRelationshipsInput{Type: "agent", Name: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, kp := range output.Relationships {
		if len(kp.Pairs) == 0 {
			t.Fatalf("empty kind %s in output", kp.Type)
		}
		if kp.Type == "INVOLVES" && kp.Pairs[0] == (PairOutput{Source: "p", Target: "a"}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected INVOLVES p -> a, got %+v", output.Relationships)
	}
}

func TestListEntities(t *testing.T) {
	server := newTestServer(nil)

	_, output, err := server.handleListEntities(context.Background(), nil, ListEntitiesInput{Type: "agent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(output.Names, []string{"a", "b"}) {
		t.Fatalf("unexpected names: %v", output.Names)
	}
}

func TestSearchEntities(t *testing.T) {
	searcher := &mockSearcher{
		result: []store.SearchResult{{Label: "2024_01_02_030405", Name: "ulk1", EntityType: "agent", Tags: []string{"kinase"}, Score: 2.5}},
	}
	server := newTestServer(searcher)

	_, output, err := server.handleSearchEntities(context.Background(), nil, SearchEntitiesInput{Query: "atg1", Type: "agent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Results) != 1 || output.Results[0].Name != "ulk1" || output.Results[0].Snapshot != "2024_01_02_030405" {
		t.Fatalf("unexpected search output: %+v", output)
	}
	if searcher.lastQuery != "atg1" || searcher.lastLabel != "" || searcher.lastType != "agent" {
		t.Fatalf("unexpected search params")
	}
}

func TestSearchEntities_NoStore(t *testing.T) {
	server := newTestServer(nil)

	_, _, err := server.handleSearchEntities(context.Background(), nil, SearchEntitiesInput{Query: "atg1"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestInspectGraph(t *testing.T) {
	server := newTestServer(nil)

	_, output, err := server.handleInspectGraph(context.Background(), nil, InspectGraphInput{List: []string{"agent"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range output.Collections {
		if c.Name == "agent" {
			if c.Count != 2 || !slices.Equal(c.Items, []string{"a", "b"}) {
				t.Fatalf("unexpected agent count: %+v", c)
			}
			return
		}
	}
	t.Fatalf("agent collection missing: %+v", output.Collections)
}

func TestExportCypher(t *testing.T) {
	server := newTestServer(nil)

	_, output, err := server.handleExportCypher(context.Background(), nil, ExportCypherInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Statements == 0 || !strings.Contains(output.Text, `key:"K1"`) {
		t.Fatalf("unexpected cypher output: %+v", output)
	}
}

func TestGetSchema(t *testing.T) {
	server := newTestServer(nil)

	_, output, err := server.handleGetSchema(context.Background(), nil, GetSchemaInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.EntityTypes) != 4 || output.EntityTypes[1].Header != "::agent" {
		t.Fatalf("unexpected entity types: %+v", output.EntityTypes)
	}
	if len(output.RelationshipTypes) != 14 {
		t.Fatalf("expected 14 relationship types, got %d", len(output.RelationshipTypes))
	}
}

func TestSnapshotGraphCachesByID(t *testing.T) {
	db := testGraph()
	snapshots := &mockSnapshotStore{
		snapshots: []store.Snapshot{{ID: "1", Label: "2024_01_01_000000"}},
		db:        db,
	}
	loader := &SnapshotGraph{Store: snapshots, Schema: config.DefaultSchema()}

	for range 2 {
		got, err := loader.LoadGraph(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != db {
			t.Fatalf("unexpected graph")
		}
	}
	if snapshots.loads != 1 {
		t.Fatalf("expected 1 load, got %d", snapshots.loads)
	}

	snapshots.snapshots = append(snapshots.snapshots, store.Snapshot{ID: "2", Label: "2024_02_01_000000"})
	if _, err := loader.LoadGraph(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshots.loads != 2 {
		t.Fatalf("expected reload after new snapshot, got %d loads", snapshots.loads)
	}
}

func TestSnapshotGraph_Empty(t *testing.T) {
	loader := &SnapshotGraph{Store: &mockSnapshotStore{}, Schema: config.DefaultSchema()}

	_, err := loader.LoadGraph(context.Background())
	if !errors.Is(err, store.ErrSnapshotNotFound) {
		t.Fatalf("expected snapshot not found, got %v", err)
	}
}
