package graphdb

import (
	"scribl/internal/config"
	"scribl/internal/parser"
)

// Record is one bibliographic record: a key, its mapped metadata fields in
// key-map order and the raw annotation text.
type Record struct {
	Key        string
	Metadata   []MetadataField
	Annotation string
}

// Builder folds records into a document graph. The parser is reset before
// every record.
type Builder struct {
	schema    *config.Schema
	parser    *parser.Parser
	delimiter string
}

func NewBuilder(schema *config.Schema, p *parser.Parser, delimiter string) *Builder {
	return &Builder{schema: schema, parser: p, delimiter: delimiter}
}

// Build returns a new graph holding every record.
func (b *Builder) Build(records []Record) *DB {
	db := New(b.schema)
	for _, record := range records {
		b.Add(db, record)
	}
	return db
}

// recordKinds pairs each entity type with the relationship linking an
// article to it, in fold order.
var recordKinds = []struct {
	entityType string
	kind       string
}{
	{config.Category, "RELATES"},
	{config.Resource, "REFERENCES"},
	{config.Agent, "MENTIONS"},
	{config.Process, "DESCRIBES"},
}

// relationshipSources are the entity types whose parsed relationships are
// copied into the graph, in fold order.
var relationshipSources = []string{config.Resource, config.Agent, config.Process}

// Add folds one record into db.
func (b *Builder) Add(db *DB, record Record) {
	b.parser.Reset()
	b.parser.Parse(record.Annotation, b.delimiter)

	article := &Article{Metadata: append([]MetadataField(nil), record.Metadata...)}
	db.Articles.Set(record.Key, article)

	key := NewDiagnosticKey(record.Key, article.Title())
	if len(b.parser.Warnings) > 0 {
		db.Warnings.Set(key, b.parser.Warnings)
	}
	if len(b.parser.Errors) > 0 {
		db.Errors.Set(key, b.parser.Errors)
	}

	for _, rk := range recordKinds {
		entityType, _ := b.schema.EntityTypeByName(rk.entityType)
		collection := db.Entities[entityType.Name]
		for _, name := range b.parser.Catalog(entityType.Header) {
			parsed, _ := b.parser.Get(entityType.Header, name)
			entity, ok := collection.Get(name)
			if !ok {
				entity = newEntity(entityType)
				if entityType.Name == config.Agent {
					entity.Synonyms = []string{name}
				}
				collection.Set(name, entity)
			}
			entity.Merge(config.FieldURLs, parsed.URLs...)
			entity.Merge(config.FieldTags, parsed.Tags...)
			entity.Merge(config.FieldNotes, parsed.Notes...)
			if entityType.Name == config.Agent {
				entity.Merge(config.FieldLabels, parsed.Labels...)
				entity.Merge(config.FieldSynonyms, parsed.Synonyms...)
			}
			db.Relationships.Add(rk.kind, Pair{Source: record.Key, Target: name})
		}
	}

	for _, source := range relationshipSources {
		header := config.Header(source)
		for _, name := range b.parser.Catalog(header) {
			parsed, _ := b.parser.Get(header, name)
			for _, relation := range parsed.Relationships {
				rel, ok := b.schema.RelationshipTypeByMarker(relation.Marker)
				if !ok {
					continue
				}
				db.Relationships.Add(rel.Name, Pair{Source: name, Target: relation.Partner})
			}
		}
	}

	// Modifying an agent implies binding to it.
	for _, pair := range db.Relationships.Pairs("MODIFIES") {
		db.Relationships.Add("BINDS", pair)
	}
}
