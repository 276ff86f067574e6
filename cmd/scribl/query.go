package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var querySnapshot string

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the graph from the CLI",
	}
	cmd.PersistentFlags().StringVar(&querySnapshot, "snapshot", "", "Query a stored snapshot instead of the latest export")
	cmd.AddCommand(queryEntityCmd())
	cmd.AddCommand(queryRelationsCmd())
	cmd.AddCommand(queryListCmd())
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(queryCypherCmd())
	return cmd
}

func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		params[key] = strings.TrimSpace(parts[1])
	}
	return params, nil
}
