package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/parser"
)

func TestFlattenAssemble(t *testing.T) {
	schema := config.DefaultSchema()
	builder := graphdb.NewBuilder(schema, parser.New(schema, parser.NewGrammar(schema)), config.TagDelimiter)
	db := builder.Build([]graphdb.Record{
		{
			Key:        "K1",
			Metadata:   []graphdb.MetadataField{{Name: "zotero_key", Value: "K1"}, {Name: "title", Value: "One"}},
			Annotation: "::agent b :protein; ::agent a ~ b :syn alpha; ::process p @ a; ::process q @ missing",
		},
		{
			Key:        "K0",
			Metadata:   []graphdb.MetadataField{{Name: "zotero_key", Value: "K0"}, {Name: "title", Value: "Zero"}},
			Annotation: "::category c1; ::resource r1 % a; ::agent a",
		},
	})
	require.Equal(t, 1, db.Errors.Len())

	rows := Flatten(db)
	assert.Len(t, rows.Articles, 2)
	assert.Len(t, rows.Diagnostics, 1)

	// Reverse every slice to show that assembly does not rely on row order.
	reverse := func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}
	reverse(len(rows.Entities), func(i, j int) { rows.Entities[i], rows.Entities[j] = rows.Entities[j], rows.Entities[i] })
	reverse(len(rows.Edges), func(i, j int) { rows.Edges[i], rows.Edges[j] = rows.Edges[j], rows.Edges[i] })

	loaded, err := Assemble(schema, rows)
	require.NoError(t, err)

	assert.Equal(t, db.Articles.Names(), loaded.Articles.Names())
	for _, kind := range graphdb.EntityOrder {
		assert.Equal(t, db.Entities[kind].Names(), loaded.Entities[kind].Names(), kind)
	}
	for _, kind := range db.Relationships.Kinds() {
		assert.Equal(t, db.Relationships.Pairs(kind), loaded.Relationships.Pairs(kind), kind)
	}
	agent, err := loaded.Get(config.Agent, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "alpha"}, agent.Synonyms)
	assert.Equal(t, db.Errors.Keys(), loaded.Errors.Keys())

	assert.Zero(t, graphdb.Diff(db, loaded).Articles.Len())
}

func TestAssembleRejectsUnknownKinds(t *testing.T) {
	schema := config.DefaultSchema()

	_, err := Assemble(schema, Rows{Entities: []EntityRow{{EntityType: "gizmo", Name: "x"}}})
	assert.Error(t, err)

	_, err = Assemble(schema, Rows{Edges: []EdgeRow{{RelType: "LIKES", Source: "a", Target: "b"}}})
	assert.Error(t, err)

	_, err = Assemble(schema, Rows{Diagnostics: []DiagnosticRow{{Severity: "info"}}})
	assert.Error(t, err)
}

func TestSearchText(t *testing.T) {
	row := EntityRow{Name: "ulk1", Synonyms: []string{"ulk1", "atg1"}, Tags: []string{"kinase"}}
	assert.Equal(t, "ulk1 ulk1 atg1 kinase", SearchText(row))
}
