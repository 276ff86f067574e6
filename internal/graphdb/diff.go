package graphdb

import (
	"slices"
)

// Diff returns what db holds that other does not. Articles and entities
// missing from other are copied whole. Those present in both keep only the
// values other lacks and are stored under DiffName(name) with Update set;
// unchanged ones are left out. Warnings and errors are not diffed.
func Diff(db, other *DB) *DB {
	diff := New(db.Schema)

	for _, key := range db.Articles.Names() {
		article, _ := db.Articles.Get(key)
		previous, ok := other.Articles.Get(key)
		if !ok {
			diff.Articles.Set(key, article.Clone())
			continue
		}
		changed := &Article{Update: true}
		for _, field := range article.Metadata {
			if previous.Get(field.Name) != field.Value {
				changed.Metadata = append(changed.Metadata, field)
			}
		}
		if len(changed.Metadata) > 0 {
			diff.Articles.Set(DiffName(key), changed)
		}
	}

	for _, entityType := range db.Schema.EntityTypes {
		current := db.Entities[entityType.Name]
		previous := other.Entities[entityType.Name]
		target := diff.Entities[entityType.Name]
		for _, name := range current.Names() {
			entity, _ := current.Get(name)
			old, ok := previous.Get(name)
			if !ok {
				target.Set(name, entity.Clone())
				continue
			}
			changed := newEntity(&entityType)
			changed.Update = true
			found := false
			for _, field := range entityType.Fields {
				for _, value := range entity.Values(field) {
					if !slices.Contains(old.Values(field), value) {
						*changed.field(field) = append(*changed.field(field), value)
						found = true
					}
				}
			}
			if found {
				target.Set(DiffName(name), changed)
			}
		}
	}

	for _, kind := range db.Relationships.Kinds() {
		for _, pair := range db.Relationships.Pairs(kind) {
			if !other.Relationships.Has(kind, pair) {
				diff.Relationships.Add(kind, pair)
			}
		}
	}
	return diff
}
