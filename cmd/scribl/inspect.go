package main

import (
	"context"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var list []string
	var snapshot string
	var limit int
	var checkSyn, checkLabels bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Count the collections and relationships of the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			out := cmd.OutOrStdout()
			printInspection(out, db.Inspect(list...), limit)
			if checkSyn {
				printSynonymReport(out, db.CheckSynonyms())
			}
			if checkLabels {
				printAgentLabels(out, db.CheckAgentLabels())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&list, "list", nil, "Collections or relationship kinds whose contents are listed")
	cmd.Flags().IntVar(&limit, "limit", 0, "List at most this many items per collection")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Inspect a stored snapshot instead of the latest export")
	cmd.Flags().BoolVar(&checkSyn, "check-synonyms", false, "Report ambiguous agent synonyms")
	cmd.Flags().BoolVar(&checkLabels, "check-agentlabels", false, "Report agents without a label")
	return cmd
}
