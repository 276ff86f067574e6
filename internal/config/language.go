package config

// Tag language constants. The language is fixed; none of this is read from
// the project file.
const (
	Prefix          = ":"
	StatementPrefix = Prefix + Prefix
	FieldPrefix     = Prefix
	TagDelimiter    = ";"

	// ZoteroTagMax is the longest tag Zotero will sync.
	ZoteroTagMax = 255

	DefaultAnnotationField = "Manual Tags"

	// DiffPrefix marks an entity in a diff as an update to an existing node.
	DiffPrefix = "---"
)

// Entity type names.
const (
	Article  = "article"
	Category = "category"
	Agent    = "agent"
	Process  = "process"
	Resource = "resource"
)

// Entity field names, in the order the parser stores them.
const (
	FieldURLs          = "urls"
	FieldLabels        = "labels"
	FieldTags          = "tags"
	FieldNotes         = "notes"
	FieldRelationships = "relationships"
	FieldSynonyms      = "synonyms"
)

// Field markers introducing optional statement clauses.
var (
	URLMarker     = FieldPrefix + "url"
	TagMarker     = FieldPrefix + "tag"
	SynonymMarker = FieldPrefix + "syn"
	NoteMarker    = FieldPrefix + "txt"
)

// StatementTypes lists the statement headers without their prefix.
var StatementTypes = []string{Category, Agent, Process, Resource}

// AgentLabelNames is the closed set of agent sub-kinds.
var AgentLabelNames = []string{"protein", "gene", "dna", "rna", "mrna", "complex", "organelle", "biomarker"}

// ParserFields is the field layout of a parsed entity.
var ParserFields = []string{FieldURLs, FieldLabels, FieldTags, FieldNotes, FieldRelationships, FieldSynonyms}

// Header returns the statement header for an entity type, e.g. "::agent".
func Header(entityType string) string {
	return StatementPrefix + entityType
}

// FieldMarker returns a field-prefixed keyword, e.g. ":protein".
func FieldMarker(name string) string {
	return FieldPrefix + name
}

// AgentLabels returns the agent label keywords with their prefix.
func AgentLabels() []string {
	labels := make([]string, 0, len(AgentLabelNames))
	for _, name := range AgentLabelNames {
		labels = append(labels, FieldMarker(name))
	}
	return labels
}

// KeyMap pairs Zotero export columns with record field names by position.
type KeyMap struct {
	ZoteroKeys []string `yaml:"zotero_keys"`
	CypherKeys []string `yaml:"cypher_keys"`
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		ZoteroKeys: []string{"Key", "Title", "Url", "Publication Year", "Author", "Publication Title", "Journal Abbreviation", "Abstract Note"},
		CypherKeys: []string{"zotero_key", "title", "url", "year", "author", "journal_title", "journal_abreviation", "abstract"},
	}
}
