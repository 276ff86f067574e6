package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"scribl/internal/config"
)

func TestParse(t *testing.T) {
	t.Run("agent with label and url", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::agent ampk :protein :url https://example.org/ampk", ";")
		entity, ok := p.Get("::agent", "ampk")
		if !ok {
			t.Fatalf("expected agent ampk")
		}
		if !reflect.DeepEqual(entity.Labels, []string{":protein"}) {
			t.Fatalf("unexpected labels: %#v", entity.Labels)
		}
		if !reflect.DeepEqual(entity.URLs, []string{"https://example.org/ampk"}) {
			t.Fatalf("unexpected urls: %#v", entity.URLs)
		}
		if len(entity.Synonyms) != 0 {
			t.Fatalf("expected no parser synonyms, got %#v", entity.Synonyms)
		}
		if len(p.Errors) != 0 || len(p.Warnings) != 0 {
			t.Fatalf("expected no diagnostics, got %v %v", p.Errors, p.Warnings)
		}
	})

	t.Run("multi-word names and notes", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::resource protein data bank :url https://www.rcsb.org/search :txt archive of structural data", ";")
		entity, ok := p.Get("::resource", "protein data bank")
		if !ok {
			t.Fatalf("expected resource")
		}
		if !reflect.DeepEqual(entity.Notes, []string{"archive of structural data"}) {
			t.Fatalf("unexpected notes: %#v", entity.Notes)
		}
	})

	t.Run("tag and synonym lists", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::agent ulk1 :protein :syn atg1, unc-51 like kinase :tag kinase,autophagy core", ";")
		entity, _ := p.Get("::agent", "ulk1")
		if !reflect.DeepEqual(entity.Synonyms, []string{"atg1", "unc-51 like kinase"}) {
			t.Fatalf("unexpected synonyms: %#v", entity.Synonyms)
		}
		if !reflect.DeepEqual(entity.Tags, []string{"kinase", "autophagy core"}) {
			t.Fatalf("unexpected tags: %#v", entity.Tags)
		}
	})

	t.Run("repeated statements merge fields", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::agent tau :protein :url https://a.org/tau; ::agent tau :gene :protein :url https://a.org/tau :url https://b.org/tau", ";")
		entity, _ := p.Get("::agent", "tau")
		if !reflect.DeepEqual(entity.Labels, []string{":protein", ":gene"}) {
			t.Fatalf("unexpected labels: %#v", entity.Labels)
		}
		if !reflect.DeepEqual(entity.URLs, []string{"https://a.org/tau", "https://b.org/tau"}) {
			t.Fatalf("unexpected urls: %#v", entity.URLs)
		}
	})

	t.Run("relationships resolve forward references", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::process autophagy @ ulk1 > lysosomal clearance; ::agent ulk1; ::process lysosomal clearance", ";")
		entity, _ := p.Get("::process", "autophagy")
		want := []Relation{{Marker: "@", Partner: "ulk1"}, {Marker: ">", Partner: "lysosomal clearance"}}
		if !reflect.DeepEqual(entity.Relationships, want) {
			t.Fatalf("unexpected relationships: %#v", entity.Relationships)
		}
		if len(p.Errors) != 0 {
			t.Fatalf("expected no errors, got %v", p.Errors)
		}
	})

	t.Run("duplicate relationships collapse", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::agent a | b; ::agent a | b; ::agent b", ";")
		entity, _ := p.Get("::agent", "a")
		if len(entity.Relationships) != 1 {
			t.Fatalf("expected 1 relationship, got %#v", entity.Relationships)
		}
	})

	t.Run("marker without spacing", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::process p1 @ulk1; ::agent ulk1", ";")
		entity, _ := p.Get("::process", "p1")
		if !reflect.DeepEqual(entity.Relationships, []Relation{{Marker: "@", Partner: "ulk1"}}) {
			t.Fatalf("unexpected relationships: %#v", entity.Relationships)
		}
	})

	t.Run("empty delimiter parses a single statement", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::category als", "")
		if got := p.Catalog("::category"); !reflect.DeepEqual(got, []string{"als"}) {
			t.Fatalf("unexpected catalog: %#v", got)
		}
	})

	t.Run("blank statements skipped", func(t *testing.T) {
		p := NewDefault()
		p.Parse(" ; ::category als;; ", ";")
		if len(p.Errors) != 0 || len(p.Catalog("::category")) != 1 {
			t.Fatalf("unexpected result: %v %v", p.Errors, p.Catalog("::category"))
		}
	})
}

func TestParseErrors(t *testing.T) {
	t.Run("unparsable statement", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::categry neuroinflammation; ::category progranulin pathology", ";")
		want := []string{"Line: 0 Unable to parse statement [::categry neuroinflammation]"}
		if !reflect.DeepEqual(p.Errors, want) {
			t.Fatalf("unexpected errors: %#v", p.Errors)
		}
		if len(p.Catalog("::category")) != 1 {
			t.Fatalf("expected following statement to parse")
		}
	})

	t.Run("unrecognized partner", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::category lysosomal clearance; ::process autophagosome formation @ ulk1 complex", ";")
		want := []string{`Unrecognized entity "ulk1 complex" in relationship: ::process autophagosome formation ... @ ulk1 complex`}
		if !reflect.DeepEqual(p.Errors, want) {
			t.Fatalf("unexpected errors: %#v", p.Errors)
		}
		entity, _ := p.Get("::process", "autophagosome formation")
		if len(entity.Relationships) != 0 {
			t.Fatalf("expected relationship removed, got %#v", entity.Relationships)
		}
	})

	t.Run("bogus partner", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::process p1 @ bogus", ";")
		if len(p.Errors) != 1 || !strings.Contains(p.Errors[0], `Unrecognized entity "bogus"`) {
			t.Fatalf("unexpected errors: %#v", p.Errors)
		}
		entity, _ := p.Get("::process", "p1")
		if len(entity.Relationships) != 0 {
			t.Fatalf("expected empty relationships, got %#v", entity.Relationships)
		}
	})

	t.Run("partner of wrong type", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::process p1 @ p2; ::process p2", ";")
		if len(p.Errors) != 1 {
			t.Fatalf("expected one error, got %#v", p.Errors)
		}
	})

	t.Run("invalid relationship for header", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::category lysosomal clearance; ::process autophagosome formation | ulk1 complex", ";")
		want := []string{`Line: 1 Invalid relationship "| ulk1 complex" for "::process" ignored [::process autophagosome formation | ulk1 complex]`}
		if !reflect.DeepEqual(p.Errors, want) {
			t.Fatalf("unexpected errors: %#v", p.Errors)
		}
	})

	t.Run("statement too long for zotero", func(t *testing.T) {
		p := NewDefault()
		name := strings.Repeat("blah ", 60)
		p.Parse("::category lysosomal clearance; ::process "+name, ";")
		if len(p.Errors) != 0 {
			t.Fatalf("expected no errors, got %#v", p.Errors)
		}
		if len(p.Warnings) != 1 || !strings.HasPrefix(p.Warnings[0], "Line: 1 Statement length exceeds max. for Zotero syncing: ::process blah") {
			t.Fatalf("unexpected warnings: %#v", p.Warnings)
		}
		if len(p.Catalog("::process")) != 1 {
			t.Fatalf("expected long statement to parse")
		}
	})

	t.Run("agent fields on non-agent", func(t *testing.T) {
		p := NewDefault()
		p.Parse("::process autophagy :protein :syn self eating", ";")
		want := []string{
			"Line: 0 Agent fields ignored in non-agent statement [::process autophagy :protein :syn self eating]",
			"Line: 0 Agent fields ignored in non-agent statement [::process autophagy :protein :syn self eating]",
		}
		if !reflect.DeepEqual(p.Warnings, want) {
			t.Fatalf("unexpected warnings: %#v", p.Warnings)
		}
		entity, _ := p.Get("::process", "autophagy")
		if len(entity.Labels) != 0 || len(entity.Synonyms) != 0 {
			t.Fatalf("expected agent fields ignored, got %#v", entity)
		}
	})

	t.Run("missing header or name", func(t *testing.T) {
		for _, line := range []string{
			"::agent",
			"::agent :protein",
			"::agent @ b",
			"::process (draft)",
			"::agentx a",
			"category a",
		} {
			p := NewDefault()
			p.Parse(line, ";")
			if len(p.Errors) != 1 {
				t.Fatalf("expected error for %q, got %#v", line, p.Errors)
			}
		}
	})

	t.Run("unreadable clause ends the statement", func(t *testing.T) {
		tests := []struct {
			line   string
			header string
			name   string
			want   *Entity
		}{
			{"::agent ampk :protein :url ftp://example.org", "::agent", "ampk", &Entity{Labels: []string{":protein"}}},
			{"::agent ampk :Protein", "::agent", "ampk", &Entity{}},
			{"::agent a :url https://", "::agent", "a", &Entity{}},
			{"::agent slpi :protein :txt protease inhibitor, serine", "::agent", "slpi", &Entity{Labels: []string{":protein"}, Notes: []string{"protease inhibitor"}}},
			{"::agent a :tag x, :gene", "::agent", "a", &Entity{Tags: []string{"x"}}},
			{"::agent a :tag", "::agent", "a", &Entity{}},
			{"::agent a :gene @", "::agent", "a", &Entity{Labels: []string{":gene"}}},
			{"::agent a :unknown :protein", "::agent", "a", &Entity{}},
			{"::agent a, b", "::agent", "a", &Entity{}},
			{"::process p1 (draft)", "::process", "p1", &Entity{}},
		}
		for _, tt := range tests {
			t.Run(tt.line, func(t *testing.T) {
				p := NewDefault()
				p.Parse(tt.line, ";")
				if len(p.Errors) != 0 {
					t.Fatalf("expected no errors, got %#v", p.Errors)
				}
				if got := p.Catalog(tt.header); !reflect.DeepEqual(got, []string{tt.name}) {
					t.Fatalf("unexpected catalog: %#v", got)
				}
				entity, _ := p.Get(tt.header, tt.name)
				if !reflect.DeepEqual(entity.Labels, tt.want.Labels) && len(entity.Labels)+len(tt.want.Labels) > 0 {
					t.Fatalf("unexpected labels: %#v", entity.Labels)
				}
				if !reflect.DeepEqual(entity.Notes, tt.want.Notes) && len(entity.Notes)+len(tt.want.Notes) > 0 {
					t.Fatalf("unexpected notes: %#v", entity.Notes)
				}
				if !reflect.DeepEqual(entity.Tags, tt.want.Tags) && len(entity.Tags)+len(tt.want.Tags) > 0 {
					t.Fatalf("unexpected tags: %#v", entity.Tags)
				}
				if len(entity.URLs) != 0 || len(entity.Relationships) != 0 {
					t.Fatalf("expected no urls or relationships, got %#v", entity)
				}
			})
		}
	})
}

func TestParseFieldMergeIgnoresOrder(t *testing.T) {
	statements := []string{
		"::agent tau :protein :url https://a.org/tau :tag microtubule :txt binds tubulin",
		"::agent tau :gene :url https://b.org/tau :tag microtubule, neurodegeneration :syn mapt",
		"::agent tau :protein :url https://a.org/tau :txt binds tubulin :syn mapt, mstd",
	}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}}

	var first *Entity
	for _, order := range orders {
		var lines []string
		for _, i := range order {
			lines = append(lines, statements[i])
		}
		p := NewDefault()
		p.Parse(strings.Join(lines, ";"), ";")
		entity, ok := p.Get("::agent", "tau")
		if !ok {
			t.Fatalf("expected tau for order %v", order)
		}

		fields := map[string][]string{
			"urls":     entity.URLs,
			"labels":   entity.Labels,
			"tags":     entity.Tags,
			"notes":    entity.Notes,
			"synonyms": entity.Synonyms,
		}
		for name, values := range fields {
			if len(slices.Compact(slices.Sorted(slices.Values(values)))) != len(values) {
				t.Fatalf("duplicate %s for order %v: %#v", name, order, values)
			}
		}
		if first == nil {
			first = entity
			continue
		}
		for name, pair := range map[string][2][]string{
			"urls":     {first.URLs, entity.URLs},
			"labels":   {first.Labels, entity.Labels},
			"tags":     {first.Tags, entity.Tags},
			"notes":    {first.Notes, entity.Notes},
			"synonyms": {first.Synonyms, entity.Synonyms},
		} {
			if !reflect.DeepEqual(slices.Sorted(slices.Values(pair[0])), slices.Sorted(slices.Values(pair[1]))) {
				t.Fatalf("%s differ for order %v: %#v vs %#v", name, order, pair[0], pair[1])
			}
		}
	}
	if len(first.URLs) != 2 || len(first.Tags) != 2 || len(first.Notes) != 1 || len(first.Synonyms) != 2 {
		t.Fatalf("unexpected merged entity: %#v", first)
	}
}

func TestGrammarParse(t *testing.T) {
	g := NewGrammar(config.DefaultSchema())
	stmt, err := g.Parse("::agent c9orf72 :gene :protein :url https://www.uniprot.org/uniprot/Q96LT7 | c9orf72 complex | smcr8")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stmt.Header != "::agent" || stmt.Name != "c9orf72" {
		t.Fatalf("unexpected statement: %#v", stmt)
	}
	if !reflect.DeepEqual(stmt.Labels, []string{":gene", ":protein"}) {
		t.Fatalf("unexpected labels: %#v", stmt.Labels)
	}
	if len(stmt.Relationships) != 2 || stmt.Relationships[0].Partner != "c9orf72 complex" {
		t.Fatalf("unexpected relationships: %#v", stmt.Relationships)
	}

	if _, err := g.Parse("::categry x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseIdempotent(t *testing.T) {
	text := readFixture(t)
	first := NewDefault()
	first.Parse(text, ";")
	second := NewDefault()
	second.Parse(text, ";")
	if !reflect.DeepEqual(first.entities, second.entities) {
		t.Fatalf("expected identical entities")
	}
	if !reflect.DeepEqual(first.Errors, second.Errors) || !reflect.DeepEqual(first.Warnings, second.Warnings) {
		t.Fatalf("expected identical diagnostics")
	}
}

func TestParserTools(t *testing.T) {
	p := NewDefault()
	p.Parse(readFixture(t), ";")
	if len(p.Errors) != 0 || len(p.Warnings) != 0 {
		t.Fatalf("expected clean parse, got %v %v", p.Errors, p.Warnings)
	}

	entity, ok := p.Get("::agent", "ampk")
	if !ok {
		t.Fatalf("expected ampk")
	}
	want := &Entity{
		URLs:          []string{"https://www.uniprot.org/uniprot/Q9Y478"},
		Labels:        []string{":protein"},
		Tags:          []string{},
		Notes:         []string{},
		Relationships: []Relation{},
		Synonyms:      []string{},
	}
	if !reflect.DeepEqual(entity, want) {
		t.Fatalf("unexpected entity: %#v", entity)
	}

	catalog := p.Catalog("::agent")
	if !reflect.DeepEqual(catalog[:5], []string{"ambra", "ampk", "atg1-atg13 complex", "atg13", "atg14"}) {
		t.Fatalf("unexpected catalog: %#v", catalog[:5])
	}
	if got := p.Catalog("::nothing"); len(got) != 0 {
		t.Fatalf("expected empty catalog, got %#v", got)
	}
	if _, ok := p.Get("::nothing", "ampk"); ok {
		t.Fatalf("expected not found")
	}

	summary := Summary{"::category": 2, "::agent": 35, "::process": 34, "::resource": 0, "errors": 0, "warnings": 0}
	if got := p.Summary(); !reflect.DeepEqual(got, summary) {
		t.Fatalf("unexpected summary: %#v", got)
	}

	p.Reset()
	if got := p.Summary(); got["::agent"] != 0 {
		t.Fatalf("expected reset, got %#v", got)
	}
}

func readFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "autophagy.txt"))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return string(data)
}
