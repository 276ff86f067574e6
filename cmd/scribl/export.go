package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"scribl/internal/export"
	"scribl/internal/graphdb"
	"scribl/internal/instance"
)

type exportOptions struct {
	output   string
	snapshot string
	diff     bool
	base     string
}

func exportCmd() *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the graph as Cypher, GraphML or metadata statements",
	}
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "Write to this file instead of stdout")
	cmd.PersistentFlags().StringVar(&opts.snapshot, "snapshot", "", "Export a stored snapshot instead of the latest export")
	cmd.PersistentFlags().BoolVar(&opts.diff, "diff", false, "Export only the changes against an earlier snapshot")
	cmd.PersistentFlags().StringVar(&opts.base, "base", "", "Snapshot to diff against, defaults to the previous one")

	cmd.AddCommand(&cobra.Command{
		Use:   "cypher",
		Short: "Export the graph as a Cypher script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, func(inst *instance.Instance, db *graphdb.DB) []string {
				return export.Cypher(db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "graphml",
		Short: "Export the graph as a GraphML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts, func(inst *instance.Instance, db *graphdb.DB) []string {
				return export.GraphML(db, inst.Config.KeyMap.CypherKeys)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "metadata",
		Short: "Export the database metadata as Cypher statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := openExisting()
			if err != nil {
				return err
			}
			statements, err := inst.MetadataCypher()
			if err != nil {
				return err
			}
			return writeOutput(cmd, opts.output, statements)
		},
	})
	return cmd
}

func runExport(cmd *cobra.Command, opts exportOptions, render func(*instance.Instance, *graphdb.DB) []string) error {
	ctx := context.Background()

	inst, err := openExisting()
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	var db *graphdb.DB
	switch {
	case opts.diff:
		if opts.snapshot != "" {
			return fmt.Errorf("--diff compares the latest export and cannot be combined with --snapshot")
		}
		if _, err := inst.LoadCSV(ctx, ""); err != nil {
			return err
		}
		if db, _, err = inst.Diff(ctx, opts.base); err != nil {
			return err
		}
	default:
		if db, err = loadGraph(ctx, inst, opts.snapshot); err != nil {
			return err
		}
	}
	return writeOutput(cmd, opts.output, render(inst, db))
}

func writeOutput(cmd *cobra.Command, path string, parts []string) error {
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), export.Text(parts))
		return nil
	}
	return writeParts(path, parts)
}
