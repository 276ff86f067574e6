// Package validate reports problems in a built document graph.
package validate

import (
	"fmt"
	"strings"

	"scribl/internal/config"
	"scribl/internal/graphdb"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeParseError         = "parse_error"
	codeParseWarning       = "parse_warning"
	codeSharedSynonym      = "shared_synonym"
	codeSynonymIsAgent     = "synonym_is_agent"
	codeUnlabelledAgent    = "unlabelled_agent"
	codeDanglingEndpoint   = "dangling_endpoint"
	codeUnannotatedArticle = "unannotated_article"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	// Article is the record key the issue was found in, if any.
	Article string
	Entity  string
}

type Report struct {
	Issues []Issue
}

// Counts returns the number of errors and warnings.
func (r *Report) Counts() (errors, warnings int) {
	for _, issue := range r.Issues {
		switch issue.Severity {
		case SeverityError:
			errors++
		case SeverityWarn:
			warnings++
		}
	}
	return errors, warnings
}

func Run(db *graphdb.DB) (*Report, error) {
	if db == nil {
		return nil, fmt.Errorf("graph is required")
	}

	issues := make([]Issue, 0)
	issues = append(issues, diagnosticIssues(db.Errors, SeverityError, codeParseError)...)
	issues = append(issues, diagnosticIssues(db.Warnings, SeverityWarn, codeParseWarning)...)

	synonyms := db.CheckSynonyms()
	for _, shared := range synonyms.InDifferentAgents {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeSharedSynonym,
			Message:  fmt.Sprintf("synonym %q declared by agents %s", shared.Synonym, strings.Join(shared.Agents, ", ")),
			Entity:   shared.Synonym,
		})
	}
	for _, synonym := range synonyms.AppearsAsAgent {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeSynonymIsAgent,
			Message:  fmt.Sprintf("synonym %q is also an agent", synonym),
			Entity:   synonym,
		})
	}

	for _, name := range db.CheckAgentLabels() {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeUnlabelledAgent,
			Message:  "agent has no label",
			Entity:   name,
		})
	}

	issues = append(issues, endpointIssues(db)...)
	issues = append(issues, unannotatedArticles(db)...)

	return &Report{Issues: issues}, nil
}

func diagnosticIssues(diagnostics *graphdb.Diagnostics, severity Severity, code string) []Issue {
	var issues []Issue
	for _, key := range diagnostics.Keys() {
		for _, message := range diagnostics.Get(key) {
			issues = append(issues, Issue{
				Severity: severity,
				Code:     code,
				Message:  message,
				Article:  key.RecordKey,
			})
		}
	}
	return issues
}

// endpointIssues finds relationships whose source or target is not in the
// collection its kind requires.
func endpointIssues(db *graphdb.DB) []Issue {
	var issues []Issue
	for _, rel := range db.Schema.RelationshipTypes {
		for _, pair := range db.Relationships.Pairs(rel.Name) {
			if !hasNode(db, rel.Source, pair.Source) {
				issues = append(issues, endpointIssue(rel, pair, rel.Source, pair.Source))
			}
			if !hasNode(db, rel.Target, pair.Target) {
				issues = append(issues, endpointIssue(rel, pair, rel.Target, pair.Target))
			}
		}
	}
	return issues
}

func hasNode(db *graphdb.DB, entityType, name string) bool {
	if entityType == config.Article {
		return db.Articles.Has(name)
	}
	collection, ok := db.Collection(entityType)
	return ok && collection.Has(name)
}

func endpointIssue(rel config.RelationshipType, pair graphdb.Pair, entityType, name string) Issue {
	return Issue{
		Severity: SeverityError,
		Code:     codeDanglingEndpoint,
		Message:  fmt.Sprintf("%s %s -> %s: no %s named %q", rel.Name, pair.Source, pair.Target, entityType, name),
		Entity:   name,
	}
}

// unannotatedArticles lists articles no record relationship starts from.
func unannotatedArticles(db *graphdb.DB) []Issue {
	annotated := make(map[string]bool)
	for _, rel := range db.Schema.RelationshipTypes {
		if !rel.IsRecordKind() {
			continue
		}
		for _, pair := range db.Relationships.Pairs(rel.Name) {
			annotated[pair.Source] = true
		}
	}

	var issues []Issue
	for _, key := range db.Articles.Names() {
		if annotated[key] {
			continue
		}
		article, _ := db.Articles.Get(key)
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeUnannotatedArticle,
			Message:  fmt.Sprintf("article %q has no annotations", article.Title()),
			Article:  key,
		})
	}
	return issues
}
