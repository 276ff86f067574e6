package export

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/parser"
)

func buildGraph(t *testing.T, title, annotation string) *graphdb.DB {
	t.Helper()
	schema := config.DefaultSchema()
	builder := graphdb.NewBuilder(schema, parser.New(schema, parser.NewGrammar(schema)), config.TagDelimiter)
	return builder.Build([]graphdb.Record{{
		Key:        "K1",
		Metadata:   []graphdb.MetadataField{{Name: "zotero_key", Value: "K1"}, {Name: "title", Value: title}},
		Annotation: annotation,
	}})
}

func TestCypher(t *testing.T) {
	t.Run("article and agent statements", func(t *testing.T) {
		statements := Cypher(buildGraph(t, "AMPK", "::agent ampk :protein :url https://example.org/ampk"))

		require.Len(t, statements, 4)
		assert.Equal(t, `MERGE (:ARTICLE {key:"K1", zotero_key:"K1" , title:"AMPK" });`, statements[0])
		assert.Equal(t, strings.Join([]string{
			`MERGE (a:AGENT {name:"ampk", urls:[], tags:[], notes:[], labels:[], synonyms:[] })`,
			`set a.urls = (a.urls + "https://example.org/ampk")`,
			`set a.labels = (a.labels + ":protein")`,
			`set a.synonyms = (a.synonyms + "ampk");`,
		}, "\n"), statements[1])
		assert.Equal(t, "MATCH (p1:ARTICLE {key:\"K1\"}), (p2:AGENT {name:\"ampk\"})\nMERGE (p1)-[:MENTIONS]->(p2);", statements[2])
		assert.Equal(t, BindsCleanup, statements[3])
	})

	t.Run("modifies renders binds too", func(t *testing.T) {
		script := Text(Cypher(buildGraph(t, "Kinases", "::agent a ~ b; ::agent b")))
		assert.Contains(t, script, "MATCH (p1:AGENT {name:\"a\"}), (p2:AGENT {name:\"b\"})\nMERGE (p1)-[:MODIFIES]->(p2);")
		assert.Contains(t, script, "MATCH (p1:AGENT {name:\"a\"}), (p2:AGENT {name:\"b\"})\nMERGE (p1)-[:BINDS]->(p2);")
		assert.True(t, strings.HasSuffix(script, BindsCleanup))
	})

	t.Run("resource prefix is stripped", func(t *testing.T) {
		script := Text(Cypher(buildGraph(t, "Db", "::resource uniprot % ampk; ::agent ampk")))
		assert.Contains(t, script, "MATCH (p1:RESOURCE {name:\"uniprot\"}), (p2:AGENT {name:\"ampk\"})\nMERGE (p1)-[:MENTIONS]->(p2);")
		assert.NotContains(t, script, "RESOURCE_")
	})

	t.Run("non-agent nodes", func(t *testing.T) {
		statements := Cypher(buildGraph(t, "Cats", "::category autophagy :tag cell biology; ::process mitophagy"))
		assert.Equal(t, "MERGE (c:CATEGORY {name:\"autophagy\", urls:[], tags:[], notes:[] })\nset c.tags = (c.tags + \"cell biology\");", statements[1])
		assert.Equal(t, "MERGE (r:PROCESS {name:\"mitophagy\", urls:[], tags:[], notes:[] });", statements[2])
	})

	t.Run("updates match existing nodes", func(t *testing.T) {
		base := buildGraph(t, "One", "::agent a :protein")
		next := buildGraph(t, "One", "::agent a :protein :tag kinase")
		statements := Cypher(graphdb.Diff(next, base))

		require.Len(t, statements, 2)
		assert.Equal(t, "MATCH (a:AGENT {name:\"a\"})\nset a.tags = (a.tags + \"kinase\");", statements[0])
	})

	t.Run("updated article fields", func(t *testing.T) {
		base := buildGraph(t, "One", "")
		next := buildGraph(t, "Two", "")
		statements := Cypher(graphdb.Diff(next, base))
		require.Len(t, statements, 2)
		assert.Equal(t, "MATCH (n:ARTICLE {key:\"K1\"})\nset n.title = \"Two\";", statements[0])
	})

	t.Run("empty diff has no cleanup", func(t *testing.T) {
		db := buildGraph(t, "One", "::agent a")
		assert.Empty(t, Cypher(graphdb.Diff(db, db)))
	})

	t.Run("quotes are escaped", func(t *testing.T) {
		statements := Cypher(buildGraph(t, `The "best" paper`, ""))
		assert.Equal(t, `MERGE (:ARTICLE {key:"K1", zotero_key:"K1" , title:"The \"best\" paper" });`, statements[0])
	})
}

func TestGraphML(t *testing.T) {
	db := buildGraph(t, "Cats & <Dogs>", "::agent R&D :protein; ::process p1 @ R&D; ::category c1")
	doc := Text(GraphML(db, config.DefaultKeyMap().CypherKeys))

	t.Run("well formed", func(t *testing.T) {
		decoder := xml.NewDecoder(strings.NewReader(doc))
		nodes, edges := 0, 0
		for {
			tok, err := decoder.Token()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			if start, ok := tok.(xml.StartElement); ok {
				switch start.Name.Local {
				case "node":
					nodes++
				case "edge":
					edges++
				}
			}
		}
		assert.Equal(t, 4, nodes)
		assert.Equal(t, 4, edges)
	})

	t.Run("layout", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`))
		assert.Contains(t, doc, `<key id="journal_abreviation" for="node" attr.name="journal_abreviation" attr.type="string"/>`)
		assert.Contains(t, doc, "<node id='K1'>\n<desc>ARTICLE</desc>\n<data key=\"desc\">ARTICLE</data>\n<data key=\"zotero_key\">K1</data>\n<data key=\"title\">Cats &amp; &lt;Dogs&gt;</data>\n</node>")
		assert.Contains(t, doc, "<node id=\"R&amp;D\">\n<desc>AGENT</desc>\n<data key=\"desc\">AGENT</data>\n<data key=\"labels\">:protein</data>\n<data key=\"synonyms\">R&amp;D</data>\n</node>")
		assert.Contains(t, doc, "<edge id=\"PROCESS-p1-AGENT-R&amp;D\" source=\"p1\" target=\"R&amp;D\">\n<data key=\"relationship\">INVOLVES</data>\n</edge>")
		assert.True(t, strings.HasSuffix(doc, "</graph>\n</graphml>"))
	})

	t.Run("node order", func(t *testing.T) {
		category := strings.Index(doc, "<desc>CATEGORY</desc>")
		process := strings.Index(doc, "<desc>PROCESS</desc>")
		agent := strings.Index(doc, "<desc>AGENT</desc>")
		assert.Less(t, category, process)
		assert.Less(t, process, agent)
	})
}

func TestMetadataCypher(t *testing.T) {
	statements := MetadataCypher(Metadata{
		Created:     "10:15:00 03-04-2024",
		Curator:     "Amber Lab",
		Name:        "Autophagy",
		Summary:     "Kinases' roles",
		Initialized: "10:15:00 03-04-2024",
		Annotations: []string{"jd: 11:00:00 03-04-2024: first pass", "jd: 12:00:00 03-04-2024: added mtor"},
	})

	require.Len(t, statements, 5)
	assert.Equal(t, "MATCH(m:METADATA)-[r:METADATA]-(a:METADATA) delete r;", statements[0])
	assert.Equal(t, `CREATE(:METADATA{name:'metadata', initialized:'10:15:00 03-04-2024', curator:'Amber Lab', title:'Autophagy', description:'Kinases\' roles'});`, statements[2])
	assert.Equal(t, "CREATE(:METADATA:ANNOTATIONS{name:'annotations',initialized:'10:15:00 03-04-2024', annotations:['jd: 11:00:00 03-04-2024: first pass', 'jd: 12:00:00 03-04-2024: added mtor']});", statements[3])
	assert.True(t, strings.HasPrefix(statements[4], "MATCH(m:METADATA{name:'metadata'})"))

	empty := MetadataCypher(Metadata{})
	assert.Contains(t, empty[3], "annotations:[]")
}
