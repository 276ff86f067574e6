package export

import (
	"fmt"
	"strings"

	"scribl/internal/config"
	"scribl/internal/graphdb"
)

const graphMLHeader = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://graphml.graphdrawing.org/xmlns http://graphml.graphdrawing.org/xmlns/1.0/graphml.xsd">`

// entityAttributes are the node keys shared by every entity type.
var entityAttributes = []string{config.FieldURLs, config.FieldLabels, config.FieldTags, config.FieldNotes, config.FieldSynonyms}

var markup = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;", `'`, "&apos;")

func escape(s string) string {
	return markup.Replace(s)
}

// GraphML renders db as a directed GraphML document. recordKeys names the
// article attributes to declare, normally the key map's record fields.
func GraphML(db *graphdb.DB, recordKeys []string) []string {
	parts := []string{
		graphMLHeader,
		`<key id="desc" for="node" attr.name="desc" attr.type="string"/>`,
	}
	for _, key := range append(append([]string{}, entityAttributes...), recordKeys...) {
		parts = append(parts, fmt.Sprintf(`<key id="%s" for="node" attr.name="%s" attr.type="string"/>`, escape(key), escape(key)))
	}
	parts = append(parts,
		`<key id="relationship" for="edge" attr.name="label" attr.type="string"/>`,
		"<graph id='G' edgedefault='directed'>",
	)

	for _, key := range db.Articles.Names() {
		article, _ := db.Articles.Get(key)
		name, _ := graphdb.SplitDiffName(key)
		lines := []string{
			fmt.Sprintf("<node id='%s'>", escape(name)),
			"<desc>ARTICLE</desc>",
			`<data key="desc">ARTICLE</data>`,
		}
		for _, field := range article.Metadata {
			lines = append(lines, fmt.Sprintf(`<data key="%s">%s</data>`, escape(field.Name), escape(field.Value)))
		}
		lines = append(lines, "</node>")
		parts = append(parts, strings.Join(lines, "\n"))
	}

	for _, kind := range nodeOrder {
		entityType, _ := db.Schema.EntityTypeByName(kind)
		collection := db.Entities[kind]
		for _, key := range collection.Names() {
			entity, _ := collection.Get(key)
			name, _ := graphdb.SplitDiffName(key)
			lines := []string{
				fmt.Sprintf(`<node id="%s">`, escape(name)),
				fmt.Sprintf("<desc>%s</desc>", entityType.Label),
				fmt.Sprintf(`<data key="desc">%s</data>`, entityType.Label),
			}
			for _, field := range entityType.Fields {
				for _, value := range entity.Values(field) {
					lines = append(lines, fmt.Sprintf(`<data key="%s">%s</data>`, field, escape(value)))
				}
			}
			lines = append(lines, "</node>")
			parts = append(parts, strings.Join(lines, "\n"))
		}
	}

	for _, rel := range db.Schema.RelationshipTypes {
		for _, pair := range db.Relationships.Pairs(rel.Name) {
			source, target := escape(pair.Source), escape(pair.Target)
			parts = append(parts, strings.Join([]string{
				fmt.Sprintf(`<edge id="%s-%s-%s-%s" source="%s" target="%s">`, rel.SourceLabel(), source, rel.TargetLabel(), target, source, target),
				fmt.Sprintf(`<data key="relationship">%s</data>`, rel.Name),
				"</edge>",
			}, "\n"))
		}
	}

	return append(parts, "</graph>", "</graphml>")
}
