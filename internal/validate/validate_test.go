package validate

import (
	"testing"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/parser"
)

func buildGraph(t *testing.T) *graphdb.DB {
	t.Helper()
	schema := config.DefaultSchema()
	builder := graphdb.NewBuilder(schema, parser.New(schema, parser.NewGrammar(schema)), config.TagDelimiter)
	return builder.Build([]graphdb.Record{
		{
			Key:        "K1",
			Metadata:   []graphdb.MetadataField{{Name: "zotero_key", Value: "K1"}, {Name: "title", Value: "Kinases"}},
			Annotation: "::agent ulk1 :protein :syn atg1; ::agent ulk2 :syn atg1, ulk1; ::process p @ missing",
		},
		{
			Key:      "K2",
			Metadata: []graphdb.MetadataField{{Name: "zotero_key", Value: "K2"}, {Name: "title", Value: "Untagged"}},
		},
	})
}

func TestRun_Diagnostics(t *testing.T) {
	report, err := Run(buildGraph(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	issue, ok := findIssue(report.Issues, codeParseError)
	if !ok {
		t.Fatalf("expected parse error issue, got %+v", report.Issues)
	}
	if issue.Article != "K1" || issue.Severity != SeverityError {
		t.Fatalf("expected error on K1, got %+v", issue)
	}
}

func TestRun_AgentChecks(t *testing.T) {
	report, err := Run(buildGraph(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	shared, ok := findIssue(report.Issues, codeSharedSynonym)
	if !ok || shared.Entity != "atg1" {
		t.Fatalf("expected shared synonym atg1, got %+v", shared)
	}
	asAgent, ok := findIssue(report.Issues, codeSynonymIsAgent)
	if !ok || asAgent.Entity != "ulk1" {
		t.Fatalf("expected synonym ulk1 flagged as agent, got %+v", asAgent)
	}
	unlabelled, ok := findIssue(report.Issues, codeUnlabelledAgent)
	if !ok || unlabelled.Entity != "ulk2" {
		t.Fatalf("expected unlabelled ulk2, got %+v", unlabelled)
	}
}

func TestRun_UnannotatedArticle(t *testing.T) {
	report, err := Run(buildGraph(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	issue, ok := findIssue(report.Issues, codeUnannotatedArticle)
	if !ok || issue.Article != "K2" {
		t.Fatalf("expected K2 unannotated, got %+v", issue)
	}
}

func TestRun_DanglingEndpoint(t *testing.T) {
	db := buildGraph(t)
	if hasIssueCode(mustRun(t, db).Issues, codeDanglingEndpoint) {
		t.Fatalf("expected no dangling endpoints in a built graph")
	}

	db.Relationships.Add("INVOLVES", graphdb.Pair{Source: "p", Target: "ghost"})
	report := mustRun(t, db)
	issue, ok := findIssue(report.Issues, codeDanglingEndpoint)
	if !ok || issue.Entity != "ghost" {
		t.Fatalf("expected dangling ghost, got %+v", issue)
	}

	errors, warnings := report.Counts()
	if errors != 2 {
		t.Fatalf("expected 2 errors, got %d", errors)
	}
	if warnings < 4 {
		t.Fatalf("expected at least 4 warnings, got %d", warnings)
	}
}

func TestRun_NilGraph(t *testing.T) {
	if _, err := Run(nil); err == nil {
		t.Fatalf("expected error")
	}
}

func mustRun(t *testing.T, db *graphdb.DB) *Report {
	t.Helper()
	report, err := Run(db)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return report
}

func findIssue(issues []Issue, code string) (Issue, bool) {
	for _, issue := range issues {
		if issue.Code == code {
			return issue, true
		}
	}
	return Issue{}, false
}

func hasIssueCode(issues []Issue, code string) bool {
	_, ok := findIssue(issues, code)
	return ok
}
