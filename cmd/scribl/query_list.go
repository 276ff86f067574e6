package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func queryListCmd() *cobra.Command {
	var relationship bool
	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List the names of an entity type, or the pairs of a relationship kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryList(cmd, args[0], relationship)
		},
	}
	cmd.Flags().BoolVar(&relationship, "relationship", false, "Treat the type as a relationship kind")
	return cmd
}

func runQueryList(cmd *cobra.Command, kind string, relationship bool) error {
	ctx := context.Background()

	inst, err := openExisting()
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	db, err := loadGraph(ctx, inst, querySnapshot)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if relationship {
		pairs, err := db.CatalogRelationships(kind)
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			fmt.Fprintf(out, "%s -> %s\n", pair.Source, pair.Target)
		}
		return nil
	}

	names, err := db.Catalog(kind)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "No entities found.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
