package config

import (
	"strings"
	"sync"
)

type Schema struct {
	EntityTypes       []EntityType
	RelationshipTypes []RelationshipType

	entityIndex map[string]*EntityType
	relIndex    map[string]*RelationshipType
	markerIndex map[string]*RelationshipType
}

type EntityType struct {
	Name   string
	Header string
	Label  string
	// Fields held by the entity in the document graph.
	Fields []string
}

// RelationshipType is one relationship kind. Record kinds link an article to
// an entity and have no marker.
type RelationshipType struct {
	Name   string
	Marker string
	Source string
	Target string
}

func (r RelationshipType) IsRecordKind() bool {
	return r.Source == Article
}

// SourceLabel and TargetLabel are the node labels of the endpoints.
func (r RelationshipType) SourceLabel() string {
	return strings.ToUpper(r.Source)
}

func (r RelationshipType) TargetLabel() string {
	return strings.ToUpper(r.Target)
}

var defaultSchema = sync.OnceValue(newSchema)

// DefaultSchema returns the shared immutable schema of the tag language.
func DefaultSchema() *Schema {
	return defaultSchema()
}

func newSchema() *Schema {
	common := []string{FieldURLs, FieldTags, FieldNotes}
	schema := &Schema{
		EntityTypes: []EntityType{
			{Name: Category, Fields: common},
			{Name: Agent, Fields: []string{FieldURLs, FieldTags, FieldNotes, FieldLabels, FieldSynonyms}},
			{Name: Process, Fields: common},
			{Name: Resource, Fields: common},
		},
		RelationshipTypes: []RelationshipType{
			{Name: "RELATES", Source: Article, Target: Category},
			{Name: "REFERENCES", Source: Article, Target: Resource},
			{Name: "DESCRIBES", Source: Article, Target: Process},
			{Name: "MENTIONS", Source: Article, Target: Agent},
			{Name: "ACTIVATES", Marker: ">", Source: Process, Target: Process},
			{Name: "INHIBITS", Marker: "<", Source: Process, Target: Process},
			{Name: "REGULATES", Marker: "=", Source: Process, Target: Process},
			{Name: "INVOLVES", Marker: "@", Source: Process, Target: Agent},
			{Name: "BINDS", Marker: "|", Source: Agent, Target: Agent},
			{Name: "MODIFIES", Marker: "~", Source: Agent, Target: Agent},
			{Name: "GENERATES", Marker: "+", Source: Process, Target: Agent},
			{Name: "REMOVES", Marker: "-", Source: Process, Target: Agent},
			{Name: "RESOURCE_DESCRIBES", Marker: "&", Source: Resource, Target: Process},
			{Name: "RESOURCE_MENTIONS", Marker: "%", Source: Resource, Target: Agent},
		},
	}

	schema.entityIndex = make(map[string]*EntityType)
	for i := range schema.EntityTypes {
		entity := &schema.EntityTypes[i]
		entity.Header = Header(entity.Name)
		entity.Label = schema.NodeLabel(entity.Name)
		schema.entityIndex[entity.Name] = entity
		schema.entityIndex[entity.Header] = entity
	}

	schema.relIndex = make(map[string]*RelationshipType)
	schema.markerIndex = make(map[string]*RelationshipType)
	for i := range schema.RelationshipTypes {
		rel := &schema.RelationshipTypes[i]
		schema.relIndex[rel.Name] = rel
		if rel.Marker != "" {
			schema.markerIndex[rel.Marker] = rel
		}
	}

	return schema
}

// EntityTypeByName accepts a bare type name ("agent") or a header ("::agent").
func (s *Schema) EntityTypeByName(name string) (*EntityType, bool) {
	if s == nil {
		return nil, false
	}
	entity, ok := s.entityIndex[strings.ToLower(name)]
	return entity, ok
}

func (s *Schema) RelationshipTypeByName(name string) (*RelationshipType, bool) {
	if s == nil {
		return nil, false
	}
	rel, ok := s.relIndex[strings.ToUpper(name)]
	return rel, ok
}

func (s *Schema) RelationshipTypeByMarker(marker string) (*RelationshipType, bool) {
	if s == nil {
		return nil, false
	}
	rel, ok := s.markerIndex[marker]
	return rel, ok
}

func (s *Schema) IsValidEntityType(name string) bool {
	_, ok := s.EntityTypeByName(name)
	return ok
}

func (s *Schema) IsValidRelationshipType(name string) bool {
	_, ok := s.RelationshipTypeByName(name)
	return ok
}

// Markers returns the relationship markers in declaration order.
func (s *Schema) Markers() []string {
	markers := make([]string, 0, len(s.markerIndex))
	for _, rel := range s.RelationshipTypes {
		if rel.Marker != "" {
			markers = append(markers, rel.Marker)
		}
	}
	return markers
}

// RelationshipNames returns every relationship kind in table order.
func (s *Schema) RelationshipNames() []string {
	names := make([]string, 0, len(s.RelationshipTypes))
	for _, rel := range s.RelationshipTypes {
		names = append(names, rel.Name)
	}
	return names
}

func (s *Schema) NodeLabel(entityType string) string {
	return strings.ToUpper(strings.TrimPrefix(entityType, StatementPrefix))
}
