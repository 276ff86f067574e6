package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"scribl/internal/config"
)

func queryEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity <type> <name>",
		Short: "Display an entity, or an article by key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEntity(cmd, args[0], args[1])
		},
	}
	return cmd
}

func runQueryEntity(cmd *cobra.Command, kind, name string) error {
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
	if kind == config.Article {
		article, err := db.GetArticle(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Key: %s\n", name)
		for _, field := range article.Metadata {
			fmt.Fprintf(out, "  %s: %s\n", field.Name, field.Value)
		}
		return nil
	}

	entity, err := db.Get(kind, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Name: %s\n", name)
	fmt.Fprintf(out, "Type: %s\n", kind)
	for _, field := range []struct {
		label  string
		values []string
	}{
		{"Labels", entity.Labels},
		{"Synonyms", entity.Synonyms},
		{"Tags", entity.Tags},
		{"URLs", entity.URLs},
	} {
		if len(field.values) > 0 {
			fmt.Fprintf(out, "%s: %s\n", field.label, joinValues(field.values))
		}
	}
	if len(entity.Notes) > 0 {
		fmt.Fprintln(out, "Notes:")
		for _, note := range entity.Notes {
			fmt.Fprintf(out, "  %s\n", note)
		}
	}
	return nil
}
