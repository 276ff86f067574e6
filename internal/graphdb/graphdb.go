// Package graphdb holds the document graph: the cumulative store of articles,
// typed entities, relationships and per-article diagnostics built from
// annotated bibliographic records.
package graphdb

import (
	"slices"
	"strings"

	"scribl/internal/config"
)

// Entity is one category, agent, process or resource. Only agents use Labels
// and Synonyms; an agent's first synonym is its own name.
type Entity struct {
	URLs     []string
	Tags     []string
	Notes    []string
	Labels   []string
	Synonyms []string
	// Update is set on diff entries that describe changes to an existing node.
	Update bool
}

func (e *Entity) field(name string) *[]string {
	switch name {
	case config.FieldURLs:
		return &e.URLs
	case config.FieldTags:
		return &e.Tags
	case config.FieldNotes:
		return &e.Notes
	case config.FieldLabels:
		return &e.Labels
	case config.FieldSynonyms:
		return &e.Synonyms
	}
	return nil
}

// Values returns the values of a named field.
func (e *Entity) Values(field string) []string {
	if ptr := e.field(field); ptr != nil {
		return *ptr
	}
	return nil
}

// Merge appends values not already present in the field.
func (e *Entity) Merge(field string, values ...string) {
	ptr := e.field(field)
	if ptr == nil {
		return
	}
	for _, value := range values {
		if !slices.Contains(*ptr, value) {
			*ptr = append(*ptr, value)
		}
	}
}

func (e *Entity) Clone() *Entity {
	return &Entity{
		URLs:     slices.Clone(e.URLs),
		Tags:     slices.Clone(e.Tags),
		Notes:    slices.Clone(e.Notes),
		Labels:   slices.Clone(e.Labels),
		Synonyms: slices.Clone(e.Synonyms),
		Update:   e.Update,
	}
}

func newEntity(entityType *config.EntityType) *Entity {
	e := &Entity{}
	for _, field := range entityType.Fields {
		*e.field(field) = []string{}
	}
	return e
}

// MetadataField is one mapped bibliographic field of an article.
type MetadataField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Article is the graph node for one bibliographic record.
type Article struct {
	Metadata []MetadataField
	Update   bool
}

// Get returns the value of a metadata field, or "" when absent.
func (a *Article) Get(name string) string {
	for _, field := range a.Metadata {
		if field.Name == name {
			return field.Value
		}
	}
	return ""
}

func (a *Article) Title() string {
	return a.Get("title")
}

func (a *Article) Clone() *Article {
	return &Article{Metadata: slices.Clone(a.Metadata), Update: a.Update}
}

// Collection is a name-keyed map that remembers insertion order.
type Collection[V any] struct {
	names []string
	items map[string]V
}

func NewCollection[V any]() *Collection[V] {
	return &Collection[V]{items: make(map[string]V)}
}

func (c *Collection[V]) Get(name string) (V, bool) {
	v, ok := c.items[name]
	return v, ok
}

// Set stores v under name. A new name is appended; an existing name keeps its
// position.
func (c *Collection[V]) Set(name string, v V) {
	if _, ok := c.items[name]; !ok {
		c.names = append(c.names, name)
	}
	c.items[name] = v
}

func (c *Collection[V]) Has(name string) bool {
	_, ok := c.items[name]
	return ok
}

// Names returns the keys in insertion order.
func (c *Collection[V]) Names() []string {
	return slices.Clone(c.names)
}

func (c *Collection[V]) Len() int {
	return len(c.names)
}

// Pair is one directed relationship between two named nodes. For record
// kinds the source is an article key.
type Pair struct {
	Source string
	Target string
}

// Relationships maps relationship kinds to ordered, duplicate-free pairs.
type Relationships struct {
	kinds []string
	pairs map[string][]Pair
}

func NewRelationships(schema *config.Schema) *Relationships {
	r := &Relationships{pairs: make(map[string][]Pair)}
	for _, name := range schema.RelationshipNames() {
		r.kinds = append(r.kinds, name)
		r.pairs[name] = []Pair{}
	}
	return r
}

// Add records a pair and reports whether it was new. Unknown kinds are
// rejected.
func (r *Relationships) Add(kind string, pair Pair) bool {
	pairs, ok := r.pairs[kind]
	if !ok || slices.Contains(pairs, pair) {
		return false
	}
	r.pairs[kind] = append(pairs, pair)
	return true
}

func (r *Relationships) Has(kind string, pair Pair) bool {
	return slices.Contains(r.pairs[kind], pair)
}

func (r *Relationships) Pairs(kind string) []Pair {
	return r.pairs[kind]
}

// Kinds returns the relationship kinds in table order.
func (r *Relationships) Kinds() []string {
	return slices.Clone(r.kinds)
}

func (r *Relationships) Len() int {
	n := 0
	for _, pairs := range r.pairs {
		n += len(pairs)
	}
	return n
}

// DiagnosticKey identifies the article a group of diagnostics belongs to.
type DiagnosticKey struct {
	RecordKey string
	Title     string
}

const diagnosticTitleLength = 50

func NewDiagnosticKey(recordKey, title string) DiagnosticKey {
	runes := []rune(title)
	if len(runes) > diagnosticTitleLength {
		title = string(runes[:diagnosticTitleLength])
	}
	return DiagnosticKey{RecordKey: recordKey, Title: title}
}

// Diagnostics groups parser messages by article, in article order.
type Diagnostics struct {
	keys  []DiagnosticKey
	byKey map[DiagnosticKey][]string
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{byKey: make(map[DiagnosticKey][]string)}
}

// Set replaces the messages filed under key.
func (d *Diagnostics) Set(key DiagnosticKey, messages []string) {
	if _, ok := d.byKey[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.byKey[key] = slices.Clone(messages)
}

func (d *Diagnostics) Get(key DiagnosticKey) []string {
	return d.byKey[key]
}

func (d *Diagnostics) Keys() []DiagnosticKey {
	return slices.Clone(d.keys)
}

func (d *Diagnostics) Len() int {
	return len(d.keys)
}

// Count returns the total number of messages.
func (d *Diagnostics) Count() int {
	n := 0
	for _, messages := range d.byKey {
		n += len(messages)
	}
	return n
}

// DB is the document graph.
type DB struct {
	Schema        *config.Schema
	Articles      *Collection[*Article]
	Entities      map[string]*Collection[*Entity]
	Warnings      *Diagnostics
	Errors        *Diagnostics
	Relationships *Relationships
}

func New(schema *config.Schema) *DB {
	db := &DB{
		Schema:        schema,
		Articles:      NewCollection[*Article](),
		Entities:      make(map[string]*Collection[*Entity]),
		Warnings:      NewDiagnostics(),
		Errors:        NewDiagnostics(),
		Relationships: NewRelationships(schema),
	}
	for _, entityType := range schema.EntityTypes {
		db.Entities[entityType.Name] = NewCollection[*Entity]()
	}
	return db
}

// Collection returns the entities of a type, accepting a bare name or header.
func (db *DB) Collection(entityType string) (*Collection[*Entity], bool) {
	c, ok := db.Entities[strings.TrimPrefix(entityType, config.StatementPrefix)]
	return c, ok
}

// EntityOrder is the order entity collections are listed in the document
// graph.
var EntityOrder = []string{config.Category, config.Agent, config.Process, config.Resource}

// DiffName prefixes name with the diff marker.
func DiffName(name string) string {
	return config.DiffPrefix + name
}

// SplitDiffName strips the diff marker, reporting whether it was present.
func SplitDiffName(name string) (string, bool) {
	if strings.HasPrefix(name, config.DiffPrefix) {
		return name[len(config.DiffPrefix):], true
	}
	return name, false
}
