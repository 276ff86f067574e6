package graphdb

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"scribl/internal/config"
)

var (
	ErrUnknownType = errors.New("unknown entity type")
	ErrNotFound    = errors.New("not found")
)

// Catalog returns the sorted names of an entity type, or the sorted article
// keys for "article".
func (db *DB) Catalog(kind string) ([]string, error) {
	if kind == config.Article {
		names := db.Articles.Names()
		slices.Sort(names)
		return names, nil
	}
	collection, ok := db.Collection(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, kind)
	}
	names := collection.Names()
	slices.Sort(names)
	return names, nil
}

// CatalogRelationships returns the pairs of a relationship kind sorted by
// source then target.
func (db *DB) CatalogRelationships(kind string) ([]Pair, error) {
	rel, ok := db.Schema.RelationshipTypeByName(kind)
	if !ok {
		return nil, fmt.Errorf("%w: relationship %s", ErrUnknownType, kind)
	}
	pairs := slices.Clone(db.Relationships.Pairs(rel.Name))
	slices.SortFunc(pairs, func(a, b Pair) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Target, b.Target))
	})
	return pairs, nil
}

func (db *DB) Get(kind, name string) (*Entity, error) {
	collection, ok := db.Collection(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, kind)
	}
	entity, ok := collection.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
	}
	return entity, nil
}

func (db *DB) GetArticle(key string) (*Article, error) {
	article, ok := db.Articles.Get(key)
	if !ok {
		return nil, fmt.Errorf("article %q: %w", key, ErrNotFound)
	}
	return article, nil
}

// KindPairs is the list of pairs of one relationship kind.
type KindPairs struct {
	Kind  string
	Pairs []Pair
}

// RelationshipView lists, for every relationship kind, the pairs that have
// the searched name at either end.
type RelationshipView struct {
	Kind          string
	Name          string
	Relationships []KindPairs
}

func (db *DB) ShowRelationships(kind, name string) (*RelationshipView, error) {
	if kind == config.Article {
		if _, err := db.GetArticle(name); err != nil {
			return nil, err
		}
	} else if _, err := db.Get(kind, name); err != nil {
		return nil, err
	}

	view := &RelationshipView{Kind: kind, Name: name}
	for _, rk := range db.Relationships.Kinds() {
		matched := KindPairs{Kind: rk, Pairs: []Pair{}}
		for _, pair := range db.Relationships.Pairs(rk) {
			if pair.Source == name || pair.Target == name {
				matched.Pairs = append(matched.Pairs, pair)
			}
		}
		view.Relationships = append(view.Relationships, matched)
	}
	return view, nil
}

// SharedSynonym is a synonym claimed by more than one agent.
type SharedSynonym struct {
	Synonym string
	Agents  []string
}

type SynonymReport struct {
	// InDifferentAgents lists synonyms declared by two or more agents.
	InDifferentAgents []SharedSynonym
	// AppearsAsAgent lists synonyms that are themselves agent names.
	AppearsAsAgent []string
}

// CheckSynonyms looks for declared synonyms that are ambiguous. An agent's
// own name, its first synonym, is not counted.
func (db *DB) CheckSynonyms() SynonymReport {
	agents := db.Entities[config.Agent]
	var order []string
	claims := make(map[string][]string)
	for _, name := range agents.Names() {
		agent, _ := agents.Get(name)
		if len(agent.Synonyms) < 2 {
			continue
		}
		for _, synonym := range agent.Synonyms[1:] {
			if _, ok := claims[synonym]; !ok {
				order = append(order, synonym)
			}
			claims[synonym] = append(claims[synonym], name)
		}
	}

	report := SynonymReport{InDifferentAgents: []SharedSynonym{}, AppearsAsAgent: []string{}}
	for _, synonym := range order {
		if len(claims[synonym]) > 1 {
			report.InDifferentAgents = append(report.InDifferentAgents, SharedSynonym{Synonym: synonym, Agents: claims[synonym]})
		}
		if agents.Has(synonym) {
			report.AppearsAsAgent = append(report.AppearsAsAgent, synonym)
		}
	}
	return report
}

// CheckAgentLabels returns the agents that carry no label.
func (db *DB) CheckAgentLabels() []string {
	agents := db.Entities[config.Agent]
	unlabelled := []string{}
	for _, name := range agents.Names() {
		agent, _ := agents.Get(name)
		if len(agent.Labels) == 0 {
			unlabelled = append(unlabelled, name)
		}
	}
	return unlabelled
}

// Count is the size of one collection in an inspection.
type Count struct {
	Name  string
	Count int
	Items []string `json:",omitempty"`
}

type Inspection struct {
	Collections   []Count
	Relationships []Count
}

// Inspect counts every collection and relationship kind. Collections named in
// list also carry their contents: sorted names for entities, "key: messages"
// for warnings and errors, "source -> target" for relationship kinds.
func (db *DB) Inspect(list ...string) Inspection {
	listed := func(name string) bool { return slices.Contains(list, name) }

	var in Inspection
	articles := Count{Name: config.Article, Count: db.Articles.Len()}
	if listed(config.Article) {
		articles.Items, _ = db.Catalog(config.Article)
	}
	in.Collections = append(in.Collections, articles)

	for _, kind := range EntityOrder {
		count := Count{Name: kind, Count: db.Entities[kind].Len()}
		if listed(kind) {
			count.Items, _ = db.Catalog(kind)
		}
		in.Collections = append(in.Collections, count)
	}

	for _, diag := range []struct {
		name string
		d    *Diagnostics
	}{{"warnings", db.Warnings}, {"errors", db.Errors}} {
		count := Count{Name: diag.name, Count: diag.d.Count()}
		if listed(diag.name) {
			for _, key := range diag.d.Keys() {
				for _, message := range diag.d.Get(key) {
					count.Items = append(count.Items, fmt.Sprintf("%s (%s): %s", key.RecordKey, key.Title, message))
				}
			}
		}
		in.Collections = append(in.Collections, count)
	}

	for _, kind := range db.Relationships.Kinds() {
		pairs := db.Relationships.Pairs(kind)
		count := Count{Name: kind, Count: len(pairs)}
		if listed(kind) || listed("relationships") {
			for _, pair := range pairs {
				count.Items = append(count.Items, pair.Source+" -> "+pair.Target)
			}
		}
		in.Relationships = append(in.Relationships, count)
	}
	return in
}
