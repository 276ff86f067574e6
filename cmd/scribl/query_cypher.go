package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribl/internal/graph"
)

func queryCypherCmd() *cobra.Command {
	var paramPairs []string
	cmd := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Execute a raw Cypher query against Neo4j",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			params, err := parseParams(paramPairs)
			if err != nil {
				return err
			}
			return runCypher(cmd, query, params)
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func runCypher(cmd *cobra.Command, query string, params map[string]any) error {
	ctx := context.Background()

	inst, err := openExisting()
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	neo := inst.Config.Neo4j
	client, err := graph.NewClient(ctx, neo.URI, neo.Username, neo.Password, neo.Database)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	rows, err := client.RunCypher(ctx, query, params)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}
