package export

import (
	"fmt"
	"strings"
)

// Metadata describes a scribl database: its metadata.txt fields and the
// curator annotations.
type Metadata struct {
	Created     string
	Curator     string
	Name        string
	Summary     string
	Initialized string
	Annotations []string
}

var singleQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func singleQuote(s string) string {
	return "'" + singleQuoter.Replace(s) + "'"
}

// MetadataCypher returns the statements replacing the METADATA and
// ANNOTATIONS nodes.
func MetadataCypher(m Metadata) []string {
	notes := make([]string, len(m.Annotations))
	for i, note := range m.Annotations {
		notes[i] = singleQuote(note)
	}
	return []string{
		"MATCH(m:METADATA)-[r:METADATA]-(a:METADATA) delete r;",
		"MATCH(m:METADATA) delete m;",
		fmt.Sprintf("CREATE(:METADATA{name:'metadata', initialized:%s, curator:%s, title:%s, description:%s});",
			singleQuote(m.Created), singleQuote(m.Curator), singleQuote(m.Name), singleQuote(m.Summary)),
		fmt.Sprintf("CREATE(:METADATA:ANNOTATIONS{name:'annotations',initialized:%s, annotations:[%s]});",
			singleQuote(m.Initialized), strings.Join(notes, ", ")),
		"MATCH(m:METADATA{name:'metadata'}), (a:METADATA{name:'annotations'})\nCREATE(m)-[:METADATA]->(a);",
	}
}
