package main

import (
	"fmt"
	"io"

	"scribl/internal/graphdb"
	"scribl/internal/ingest"
)

func printLoadSummary(w io.Writer, result *ingest.Result) {
	fmt.Fprintf(w, "Loaded %s\n", result.Label)
	fmt.Fprintf(w, "  Articles:      %d\n", result.Articles)
	for _, kind := range graphdb.EntityOrder {
		fmt.Fprintf(w, "  %-14s %d\n", kind+":", result.Entities[kind])
	}
	fmt.Fprintf(w, "  Relationships: %d\n", result.Relationships)
	fmt.Fprintf(w, "warnings: %d errors: %d\n", result.Warnings, result.Errors)
}

// printInspection lists at most limit items of each listed collection; zero
// lists them all.
func printInspection(w io.Writer, in graphdb.Inspection, limit int) {
	printCounts := func(counts []graphdb.Count) {
		for _, c := range counts {
			fmt.Fprintf(w, "%-20s %d\n", c.Name, c.Count)
			items := c.Items
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			for _, item := range items {
				fmt.Fprintf(w, "  - %s\n", item)
			}
			if len(items) < len(c.Items) {
				fmt.Fprintf(w, "  ... %d more\n", len(c.Items)-len(items))
			}
		}
	}
	printCounts(in.Collections)
	fmt.Fprintln(w, "---relationships:")
	printCounts(in.Relationships)
}

func printSynonymReport(w io.Writer, report graphdb.SynonymReport) {
	if len(report.InDifferentAgents) == 0 && len(report.AppearsAsAgent) == 0 {
		fmt.Fprintln(w, "No synonym conflicts found.")
		return
	}
	if len(report.InDifferentAgents) > 0 {
		fmt.Fprintf(w, "Synonyms shared by agents (%d):\n", len(report.InDifferentAgents))
		for _, shared := range report.InDifferentAgents {
			fmt.Fprintf(w, "  - %s: %s\n", shared.Synonym, joinValues(shared.Agents))
		}
	}
	if len(report.AppearsAsAgent) > 0 {
		fmt.Fprintf(w, "Synonyms that are agent names (%d):\n", len(report.AppearsAsAgent))
		for _, name := range report.AppearsAsAgent {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
}

func printAgentLabels(w io.Writer, unlabelled []string) {
	if len(unlabelled) == 0 {
		fmt.Fprintln(w, "Every agent has a label.")
		return
	}
	fmt.Fprintf(w, "Agents without a label (%d):\n", len(unlabelled))
	for _, name := range unlabelled {
		fmt.Fprintf(w, "  - %s\n", name)
	}
}
