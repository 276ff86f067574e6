package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"scribl/internal/validate"
)

func validateCmd() *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, snapshot)
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Validate a stored snapshot instead of the latest export")
	return cmd
}

func runValidate(cmd *cobra.Command, snapshot string) error {
	ctx := context.Background()

	inst, err := openExisting()
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	db, err := loadGraph(ctx, inst, snapshot)
	if err != nil {
		return err
	}

	report, err := validate.Run(db)
	if err != nil {
		return err
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	out := cmd.OutOrStdout()
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Entity
		switch {
		case location == "":
			location = issue.Article
		case issue.Article != "":
			location = fmt.Sprintf("%s [%s]", location, issue.Article)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
