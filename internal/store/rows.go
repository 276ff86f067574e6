package store

import (
	"fmt"
	"slices"
	"strings"

	"scribl/internal/config"
	"scribl/internal/graphdb"
)

// Flatten converts a graph into the rows a backend stores.
func Flatten(db *graphdb.DB) Rows {
	var rows Rows
	for i, key := range db.Articles.Names() {
		article, _ := db.Articles.Get(key)
		rows.Articles = append(rows.Articles, ArticleRow{Position: i, Key: key, Metadata: article.Metadata})
	}

	position := 0
	for _, entityType := range db.Schema.EntityTypes {
		collection := db.Entities[entityType.Name]
		for _, name := range collection.Names() {
			entity, _ := collection.Get(name)
			rows.Entities = append(rows.Entities, EntityRow{
				Position:   position,
				EntityType: entityType.Name,
				Name:       name,
				URLs:       nonNil(entity.URLs),
				Tags:       nonNil(entity.Tags),
				Notes:      nonNil(entity.Notes),
				Labels:     nonNil(entity.Labels),
				Synonyms:   nonNil(entity.Synonyms),
			})
			position++
		}
	}

	position = 0
	for _, kind := range db.Relationships.Kinds() {
		for _, pair := range db.Relationships.Pairs(kind) {
			rows.Edges = append(rows.Edges, EdgeRow{Position: position, RelType: kind, Source: pair.Source, Target: pair.Target})
			position++
		}
	}

	position = 0
	for _, diag := range []struct {
		severity string
		d        *graphdb.Diagnostics
	}{{SeverityWarning, db.Warnings}, {SeverityError, db.Errors}} {
		for _, key := range diag.d.Keys() {
			rows.Diagnostics = append(rows.Diagnostics, DiagnosticRow{
				Position:  position,
				Severity:  diag.severity,
				RecordKey: key.RecordKey,
				Title:     key.Title,
				Messages:  diag.d.Get(key),
			})
			position++
		}
	}
	return rows
}

// Assemble rebuilds a graph from stored rows. Rows may arrive in any order.
func Assemble(schema *config.Schema, rows Rows) (*graphdb.DB, error) {
	db := graphdb.New(schema)

	articles := slices.Clone(rows.Articles)
	slices.SortFunc(articles, func(a, b ArticleRow) int { return a.Position - b.Position })
	for _, row := range articles {
		db.Articles.Set(row.Key, &graphdb.Article{Metadata: row.Metadata})
	}

	entities := slices.Clone(rows.Entities)
	slices.SortFunc(entities, func(a, b EntityRow) int { return a.Position - b.Position })
	for _, row := range entities {
		collection, ok := db.Collection(row.EntityType)
		if !ok {
			return nil, fmt.Errorf("stored entity %q has unknown type %q", row.Name, row.EntityType)
		}
		entity := &graphdb.Entity{
			URLs:  nonNil(row.URLs),
			Tags:  nonNil(row.Tags),
			Notes: nonNil(row.Notes),
		}
		if row.EntityType == config.Agent {
			entity.Labels = nonNil(row.Labels)
			entity.Synonyms = nonNil(row.Synonyms)
		}
		collection.Set(row.Name, entity)
	}

	edges := slices.Clone(rows.Edges)
	slices.SortFunc(edges, func(a, b EdgeRow) int { return a.Position - b.Position })
	for _, row := range edges {
		if !db.Schema.IsValidRelationshipType(row.RelType) {
			return nil, fmt.Errorf("stored edge has unknown relationship %q", row.RelType)
		}
		db.Relationships.Add(row.RelType, graphdb.Pair{Source: row.Source, Target: row.Target})
	}

	diagnostics := slices.Clone(rows.Diagnostics)
	slices.SortFunc(diagnostics, func(a, b DiagnosticRow) int { return a.Position - b.Position })
	for _, row := range diagnostics {
		key := graphdb.DiagnosticKey{RecordKey: row.RecordKey, Title: row.Title}
		switch row.Severity {
		case SeverityWarning:
			db.Warnings.Set(key, row.Messages)
		case SeverityError:
			db.Errors.Set(key, row.Messages)
		default:
			return nil, fmt.Errorf("stored diagnostic has unknown severity %q", row.Severity)
		}
	}
	return db, nil
}

// SearchText is the text indexed for full-text search of an entity.
func SearchText(row EntityRow) string {
	parts := []string{row.Name}
	parts = append(parts, row.Synonyms...)
	parts = append(parts, row.Tags...)
	parts = append(parts, row.Notes...)
	return strings.Join(parts, " ")
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
