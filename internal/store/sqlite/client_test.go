package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/parser"
	"scribl/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(ctx) })
	require.NoError(t, client.EnsureSchema(ctx))
	return client
}

func buildGraph(t *testing.T, annotations ...string) *graphdb.DB {
	t.Helper()
	schema := config.DefaultSchema()
	builder := graphdb.NewBuilder(schema, parser.New(schema, parser.NewGrammar(schema)), config.TagDelimiter)
	var records []graphdb.Record
	for i, annotation := range annotations {
		key := string(rune('A'+i)) + "KEY0000"
		records = append(records, graphdb.Record{
			Key:        key,
			Metadata:   []graphdb.MetadataField{{Name: "zotero_key", Value: key}, {Name: "title", Value: "Article " + key}},
			Annotation: annotation,
		})
	}
	return builder.Build(records)
}

func TestSnapshotLifecycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	schema := config.DefaultSchema()

	first := buildGraph(t,
		"::agent ulk1 :protein :syn atg1 :tag kinase; ::process autophagy @ ulk1",
	)
	second := buildGraph(t,
		"::agent ulk1 :protein :syn atg1 :tag kinase; ::process autophagy @ ulk1",
		"::agent mtor :protein ~ ulk1; ::agent ulk1; ::category autophagy; ::process bogus @ nothing",
	)

	saved, err := client.SaveSnapshot(ctx, store.SnapshotInput{Label: "2024_01_05_101500", SourceHash: "h1", DB: first})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Articles)
	assert.NotEmpty(t, saved.ID)

	_, err = client.SaveSnapshot(ctx, store.SnapshotInput{Label: "2024_02_05_101500", SourceHash: "h2", DB: second})
	require.NoError(t, err)

	snapshots, err := client.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "2024_01_05_101500", snapshots[0].Label)
	assert.Equal(t, "h2", snapshots[1].SourceHash)

	latest, meta, err := client.LoadSnapshot(ctx, "", schema)
	require.NoError(t, err)
	assert.Equal(t, "2024_02_05_101500", meta.Label)
	assert.Equal(t, second.Articles.Names(), latest.Articles.Names())
	assert.True(t, latest.Relationships.Has("MODIFIES", graphdb.Pair{Source: "mtor", Target: "ulk1"}))
	assert.Equal(t, second.Errors.Count(), latest.Errors.Count())
	assert.Zero(t, graphdb.Diff(second, latest).Articles.Len())

	older, _, err := client.LoadSnapshot(ctx, "2024_01_05_101500", schema)
	require.NoError(t, err)
	assert.Equal(t, []string{"ulk1"}, older.Entities[config.Agent].Names())

	_, _, err = client.LoadSnapshot(ctx, "1999_01_01_000000", schema)
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)

	// Saving under an existing label replaces the snapshot.
	_, err = client.SaveSnapshot(ctx, store.SnapshotInput{Label: "2024_01_05_101500", SourceHash: "h3", DB: second})
	require.NoError(t, err)
	snapshots, err = client.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "h3", snapshots[0].SourceHash)

	deleted, err := client.DeleteSnapshot(ctx, "2024_01_05_101500")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = client.DeleteSnapshot(ctx, "2024_01_05_101500")
	require.NoError(t, err)
	assert.False(t, deleted)

	rows, err := client.RunSQL(ctx, "SELECT count(*) AS n FROM entities WHERE entity_type = ?", map[string]any{"1": config.Agent})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0]["n"])

	_, err = client.RunSQL(ctx, "DELETE FROM entities", nil)
	assert.ErrorIs(t, err, store.ErrNotReadOnly)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Search(ctx, "atg1", "", "")
	assert.ErrorIs(t, err, store.ErrSnapshotNotFound)

	db := buildGraph(t,
		"::agent ulk1 :protein :syn atg1 :tag kinase; ::agent camkk-beta :protein ~ ulk1; ::process autophagy @ ulk1",
	)
	_, err = client.SaveSnapshot(ctx, store.SnapshotInput{Label: "2024_03_01_000000", DB: db})
	require.NoError(t, err)

	results, err := client.Search(ctx, "atg1", "", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ulk1", results[0].Name)
	assert.Equal(t, config.Agent, results[0].EntityType)
	assert.Equal(t, []string{"kinase"}, results[0].Tags)
	assert.Equal(t, "2024_03_01_000000", results[0].Label)
	assert.Greater(t, results[0].Score, 0.0)

	results, err = client.Search(ctx, "camkk-beta", "2024_03_01_000000", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "camkk-beta", results[0].Name)

	results, err = client.Search(ctx, "ulk1", "", config.Process)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = client.Search(ctx, "  ", "", "")
	assert.Error(t, err)
}

func TestSplitStatementsKeepsTriggers(t *testing.T) {
	ddl := `
	CREATE TABLE a (x INTEGER);
	-- comment;
	CREATE TRIGGER a_ai AFTER INSERT ON a BEGIN
		INSERT INTO b VALUES (new.x);
		INSERT INTO c VALUES (new.x);
	END;
	CREATE INDEX i ON a (x);
	`
	statements := splitStatements(ddl)
	require.Len(t, statements, 3)
	assert.Contains(t, statements[1], "INSERT INTO c")
	assert.NotContains(t, statements[0], "comment")
}
