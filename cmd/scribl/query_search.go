package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func querySearchCmd() *cobra.Command {
	var entityType string
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search stored snapshots using the full-text index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(cmd, strings.Join(args, " "), entityType)
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "Entity type to filter")
	return cmd
}

func runQuerySearch(cmd *cobra.Command, query, entityType string) error {
	ctx := context.Background()

	inst, err := openExisting()
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	db, err := inst.Store(ctx)
	if err != nil {
		return err
	}
	results, err := db.Search(ctx, query, querySnapshot, entityType)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No matches found.")
		return nil
	}
	for _, result := range results {
		fmt.Fprintf(out, "%s (%s) [%s] score=%.2f\n", result.Name, result.EntityType, result.Label, result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(out, "    %s\n", result.Snippet)
		}
	}
	return nil
}
