package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func queryRelationsCmd() *cobra.Command {
	var relType string
	cmd := &cobra.Command{
		Use:   "relations <type> <name>",
		Short: "Display relationships with an entity at either end",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryRelations(cmd, args[0], args[1], relType)
		},
	}
	cmd.Flags().StringVar(&relType, "rel", "", "Relationship type to filter")
	return cmd
}

func runQueryRelations(cmd *cobra.Command, kind, name, relType string) error {
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
	view, err := db.ShowRelationships(kind, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	found := false
	for _, kp := range view.Relationships {
		if relType != "" && kp.Kind != relType {
			continue
		}
		for _, pair := range kp.Pairs {
			fmt.Fprintf(out, "%s -%s-> %s\n", pair.Source, kp.Kind, pair.Target)
			found = true
		}
	}
	if !found {
		fmt.Fprintf(out, "No relationships found for %q.\n", name)
	}
	return nil
}
