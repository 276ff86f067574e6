package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"scribl/internal/config"
	"scribl/internal/parser"
)

func parseCmd() *cobra.Command {
	var delimiter string
	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Parse tag-language text from the arguments or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(data)
			}
			return runParse(cmd.OutOrStdout(), text, delimiter)
		},
	}
	cmd.Flags().StringVar(&delimiter, "delimiter", config.TagDelimiter, "Statement delimiter, empty for one statement per line")
	return cmd
}

func runParse(w io.Writer, text, delimiter string) error {
	schema := config.DefaultSchema()
	p := parser.New(schema, parser.NewGrammar(schema))
	if delimiter == "" {
		p.ParseLines(strings.Split(text, "\n"))
	} else {
		p.Parse(text, delimiter)
	}

	for _, entityType := range schema.EntityTypes {
		for _, name := range p.Catalog(entityType.Header) {
			entity, _ := p.Get(entityType.Header, name)
			fmt.Fprintf(w, "%s %s\n", entityType.Header, name)
			printField(w, "labels", entity.Labels)
			printField(w, "synonyms", entity.Synonyms)
			printField(w, "tags", entity.Tags)
			printField(w, "urls", entity.URLs)
			printField(w, "notes", entity.Notes)
			for _, rel := range entity.Relationships {
				relType, _ := schema.RelationshipTypeByMarker(rel.Marker)
				fmt.Fprintf(w, "  %s %s (%s)\n", rel.Marker, rel.Partner, relType.Name)
			}
		}
	}

	for _, warning := range p.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	for _, message := range p.Errors {
		fmt.Fprintf(w, "error: %s\n", message)
	}
	if len(p.Errors) > 0 {
		return fmt.Errorf("parsing found %d errors", len(p.Errors))
	}
	return nil
}

func printField(w io.Writer, name string, values []string) {
	if len(values) > 0 {
		fmt.Fprintf(w, "  %s: %s\n", name, joinValues(values))
	}
}
