package parser

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"scribl/internal/config"
)

// Entity is the accumulated state of one named entity. Every list is ordered
// by first appearance and holds no duplicates.
type Entity struct {
	URLs          []string
	Labels        []string
	Tags          []string
	Notes         []string
	Relationships []Relation
	Synonyms      []string
}

type entitySet struct {
	names  []string
	byName map[string]*Entity
}

func newEntitySet() *entitySet {
	return &entitySet{byName: make(map[string]*Entity)}
}

func (s *entitySet) getOrCreate(name string) *Entity {
	if entity, ok := s.byName[name]; ok {
		return entity
	}
	entity := &Entity{
		URLs:          []string{},
		Labels:        []string{},
		Tags:          []string{},
		Notes:         []string{},
		Relationships: []Relation{},
		Synonyms:      []string{},
	}
	s.byName[name] = entity
	s.names = append(s.names, name)
	return entity
}

// Summary counts entities per statement header plus errors and warnings.
type Summary map[string]int

// Parser folds tag-language text into per-type entity collections. State
// persists across Parse calls until Reset.
type Parser struct {
	grammar  *Grammar
	schema   *config.Schema
	entities map[string]*entitySet
	Errors   []string
	Warnings []string
}

func New(schema *config.Schema, grammar *Grammar) *Parser {
	p := &Parser{grammar: grammar, schema: schema}
	p.Reset()
	return p
}

// NewDefault builds a parser over the default schema.
func NewDefault() *Parser {
	schema := config.DefaultSchema()
	return New(schema, NewGrammar(schema))
}

func (p *Parser) Reset() {
	p.entities = make(map[string]*entitySet)
	for _, entityType := range p.schema.EntityTypes {
		p.entities[entityType.Header] = newEntitySet()
	}
	p.Errors = []string{}
	p.Warnings = []string{}
}

// Parse splits text on delimiter and folds each statement. An empty delimiter
// treats the whole text as one statement.
func (p *Parser) Parse(text, delimiter string) {
	if delimiter == "" {
		p.ParseLines([]string{text})
		return
	}
	p.ParseLines(strings.Split(text, delimiter))
}

// ParseLines folds each line as an independent statement, then drops
// relationships whose partner never appeared.
func (p *Parser) ParseLines(lines []string) {
	for n, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > config.ZoteroTagMax {
			p.Warnings = append(p.Warnings, fmt.Sprintf("Line: %d Statement length exceeds max. for Zotero syncing: %s", n, line))
		}
		stmt, err := p.grammar.Parse(line)
		if err != nil {
			p.Errors = append(p.Errors, fmt.Sprintf("Line: %d Unable to parse statement [%s]", n, line))
			continue
		}
		p.fold(n, line, stmt)
	}
	p.validateRelationships()
}

func (p *Parser) fold(n int, line string, stmt *Statement) {
	entity := p.entities[stmt.Header].getOrCreate(stmt.Name)
	entity.URLs = appendUnique(entity.URLs, stmt.URLs...)
	entity.Tags = appendUnique(entity.Tags, stmt.Tags...)
	entity.Notes = appendUnique(entity.Notes, stmt.Notes...)

	if stmt.Header != config.Header(config.Agent) {
		for _, field := range [][]string{stmt.Labels, stmt.Synonyms} {
			if len(field) > 0 {
				p.Warnings = append(p.Warnings, fmt.Sprintf("Line: %d Agent fields ignored in non-agent statement [%s]", n, line))
			}
		}
	} else {
		entity.Synonyms = appendUnique(entity.Synonyms, stmt.Synonyms...)
		entity.Labels = appendUnique(entity.Labels, stmt.Labels...)
	}

	for _, relation := range stmt.Relationships {
		rel, ok := p.schema.RelationshipTypeByMarker(relation.Marker)
		if !ok || config.Header(rel.Source) != stmt.Header {
			p.Errors = append(p.Errors, fmt.Sprintf("Line: %d Invalid relationship \"%s %s\" for \"%s\" ignored [%s]", n, relation.Marker, relation.Partner, stmt.Header, line))
			continue
		}
		if !slices.Contains(entity.Relationships, relation) {
			entity.Relationships = append(entity.Relationships, relation)
		}
	}
}

func (p *Parser) validateRelationships() {
	for _, entityType := range p.schema.EntityTypes {
		set := p.entities[entityType.Header]
		for _, name := range set.names {
			entity := set.byName[name]
			kept := make([]Relation, 0, len(entity.Relationships))
			for _, relation := range entity.Relationships {
				rel, _ := p.schema.RelationshipTypeByMarker(relation.Marker)
				if _, ok := p.entities[config.Header(rel.Target)].byName[relation.Partner]; !ok {
					p.Errors = append(p.Errors, fmt.Sprintf("Unrecognized entity \"%s\" in relationship: %s %s ... %s %s",
						relation.Partner, entityType.Header, name, relation.Marker, relation.Partner))
					continue
				}
				kept = append(kept, relation)
			}
			entity.Relationships = kept
		}
	}
}

// Get returns the entity of the given header and name.
func (p *Parser) Get(header, name string) (*Entity, bool) {
	set, ok := p.entities[header]
	if !ok {
		return nil, false
	}
	entity, ok := set.byName[name]
	return entity, ok
}

// Catalog lists entity names of a header in order of first appearance. An
// unknown header yields an empty list.
func (p *Parser) Catalog(header string) []string {
	set, ok := p.entities[header]
	if !ok {
		return []string{}
	}
	return slices.Clone(set.names)
}

func (p *Parser) Summary() Summary {
	summary := make(Summary)
	for _, entityType := range p.schema.EntityTypes {
		summary[entityType.Header] = len(p.entities[entityType.Header].names)
	}
	summary["errors"] = len(p.Errors)
	summary["warnings"] = len(p.Warnings)
	return summary
}

func appendUnique(dst []string, values ...string) []string {
	for _, value := range values {
		if !slices.Contains(dst, value) {
			dst = append(dst, value)
		}
	}
	return dst
}
