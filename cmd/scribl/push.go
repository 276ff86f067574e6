package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scribl/internal/export"
	"scribl/internal/graph"
)

type pushOptions struct {
	diff     bool
	base     string
	file     string
	keep     bool
	uri      string
	database string
}

func pushCmd() *cobra.Command {
	var opts pushOptions
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Load the graph into Neo4j",
		Long: `Load the graph of the latest export into Neo4j.

A full push clears every scribl node first. With --diff only the changes
against an earlier snapshot are applied to a graph already holding it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Apply only the changes against an earlier snapshot")
	cmd.Flags().StringVar(&opts.base, "base", "", "Snapshot to diff against, defaults to the previous one")
	cmd.Flags().StringVar(&opts.file, "file", "", "Apply a Cypher script file, such as a backup, instead")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "Do not clear existing scribl nodes before a full push")
	cmd.Flags().StringVar(&opts.uri, "uri", "", "Neo4j URI, overrides the project config")
	cmd.Flags().StringVar(&opts.database, "database", "", "Neo4j database, overrides the project config")
	cmd.MarkFlagsMutuallyExclusive("diff", "file")
	return cmd
}

func runPush(cmd *cobra.Command, opts pushOptions) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()
	log := newLogger()

	inst, err := openExisting()
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	var statements []string
	full := !opts.diff
	switch {
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", opts.file, err)
		}
		statements = graph.SplitScript(string(data))
	case opts.diff:
		if _, err := inst.LoadCSV(ctx, ""); err != nil {
			return err
		}
		diff, base, err := inst.Diff(ctx, opts.base)
		if err != nil {
			return err
		}
		if base == nil {
			return fmt.Errorf("no earlier snapshot to diff against, push the full graph instead")
		}
		log.Info("pushing diff", "base", base.Label)
		statements = export.Cypher(diff)
	default:
		result, err := inst.LoadCSV(ctx, "")
		if err != nil {
			return err
		}
		statements = export.Cypher(result.DB)
		metadata, err := inst.MetadataCypher()
		if err != nil {
			return err
		}
		statements = append(statements, metadata...)
	}

	neo := inst.Config.Neo4j
	if opts.uri != "" {
		neo.URI = opts.uri
	}
	if opts.database != "" {
		neo.Database = opts.database
	}
	client, err := graph.NewClient(ctx, neo.URI, neo.Username, neo.Password, neo.Database)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	labels := graph.Labels(inst.Schema)
	if full && !opts.keep {
		removed, err := client.Clear(ctx, labels)
		if err != nil {
			return err
		}
		log.Info("cleared graph", "nodes", removed)
	}
	if err := client.EnsureConstraints(ctx, inst.Schema); err != nil {
		return err
	}

	applied, err := client.ApplyScript(ctx, statements)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Applied %d statements.\n", applied)

	counts, err := client.Counts(ctx, labels)
	if err != nil {
		return err
	}
	for _, label := range labels {
		fmt.Fprintf(out, "  %-10s %d\n", label, counts[label])
	}
	return nil
}
