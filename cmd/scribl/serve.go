package main

import (
	"context"

	"github.com/spf13/cobra"

	"scribl/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	var snapshot string
	var fromExport bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(snapshot, fromExport)
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Serve this snapshot instead of the latest")
	cmd.Flags().BoolVar(&fromExport, "from-export", false, "Serve the graph of the latest export instead of a snapshot")
	return cmd
}

func runServe(snapshot string, fromExport bool) error {
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

	var loader mcp.GraphLoader = &mcp.SnapshotGraph{Store: db, Schema: inst.Schema, Label: snapshot}
	if fromExport {
		result, err := inst.LoadCSV(ctx, "")
		if err != nil {
			return err
		}
		loader = mcp.StaticGraph{DB: result.DB}
	}

	server := mcp.NewServer(inst.Schema, loader, db, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
