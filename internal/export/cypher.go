// Package export renders a document graph, or a diff of two graphs, as a
// Cypher script or a GraphML document.
package export

import (
	"fmt"
	"strings"

	"scribl/internal/config"
	"scribl/internal/graphdb"
)

// BindsCleanup removes one direction of every pair of agents that bind each
// other.
const BindsCleanup = "MATCH (a1:AGENT)-[r1:BINDS]->(a2:AGENT) WITH a1,a2 MATCH(a1:AGENT)<-[r2:BINDS]-(a2:AGENT) DELETE r2;"

// nodeOrder is the order entity statements are emitted in.
var nodeOrder = []string{config.Category, config.Resource, config.Process, config.Agent}

var nodeVariables = map[string]string{
	config.Category: "c",
	config.Resource: "r",
	config.Process:  "r",
	config.Agent:    "a",
}

var literal = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + literal.Replace(s) + `"`
}

// Cypher returns one statement per article, entity and relationship pair,
// then the BINDS cleanup. Names carrying the diff marker become MATCH
// statements that append their values to the existing node.
func Cypher(db *graphdb.DB) []string {
	var statements []string

	for _, key := range db.Articles.Names() {
		article, _ := db.Articles.Get(key)
		statements = append(statements, articleStatement(key, article))
	}

	for _, kind := range nodeOrder {
		entityType, _ := db.Schema.EntityTypeByName(kind)
		collection := db.Entities[kind]
		for _, name := range collection.Names() {
			entity, _ := collection.Get(name)
			statements = append(statements, entityStatement(entityType, name, entity))
		}
	}

	for _, rel := range db.Schema.RelationshipTypes {
		matchField := "name"
		if rel.IsRecordKind() {
			matchField = "key"
		}
		label := strings.TrimPrefix(rel.Name, "RESOURCE_")
		for _, pair := range db.Relationships.Pairs(rel.Name) {
			statements = append(statements, fmt.Sprintf("MATCH (p1:%s {%s:%s}), (p2:%s {name:%s})\nMERGE (p1)-[:%s]->(p2);",
				rel.SourceLabel(), matchField, quote(pair.Source), rel.TargetLabel(), quote(pair.Target), label))
		}
	}

	if len(statements) > 0 {
		statements = append(statements, BindsCleanup)
	}
	return statements
}

func articleStatement(key string, article *graphdb.Article) string {
	name, update := graphdb.SplitDiffName(key)
	if update {
		lines := []string{fmt.Sprintf("MATCH (n:ARTICLE {key:%s})", quote(name))}
		for _, field := range article.Metadata {
			lines = append(lines, fmt.Sprintf("set n.%s = %s", field.Name, quote(field.Value)))
		}
		return strings.Join(lines, "\n") + ";"
	}

	if len(article.Metadata) == 0 {
		return fmt.Sprintf("MERGE (:ARTICLE {key:%s});", quote(name))
	}
	parts := make([]string, 0, len(article.Metadata))
	for _, field := range article.Metadata {
		parts = append(parts, fmt.Sprintf("%s:%s ", field.Name, quote(field.Value)))
	}
	return fmt.Sprintf("MERGE (:ARTICLE {key:%s, %s});", quote(name), strings.Join(parts, ", "))
}

func entityStatement(entityType *config.EntityType, key string, entity *graphdb.Entity) string {
	name, update := graphdb.SplitDiffName(key)
	v := nodeVariables[entityType.Name]

	var lines []string
	if update {
		lines = append(lines, fmt.Sprintf("MATCH (%s:%s {name:%s})", v, entityType.Label, quote(name)))
	} else {
		empty := make([]string, 0, len(entityType.Fields))
		for _, field := range entityType.Fields {
			empty = append(empty, field+":[]")
		}
		lines = append(lines, fmt.Sprintf("MERGE (%s:%s {name:%s, %s })", v, entityType.Label, quote(name), strings.Join(empty, ", ")))
	}

	for _, field := range entityType.Fields {
		for _, value := range entity.Values(field) {
			lines = append(lines, fmt.Sprintf("set %s.%s = (%s.%s + %s)", v, field, v, field, quote(value)))
		}
	}
	return strings.Join(lines, "\n") + ";"
}

// Text joins rendered statements or document parts with newlines.
func Text(parts []string) string {
	return strings.Join(parts, "\n")
}
