package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"scribl/internal/config"
	"scribl/internal/graphdb"
	"scribl/internal/instance"
	"scribl/internal/logger"
)

// Flags shared by every command.
var (
	graphdbPath string
	verbose     bool
	envFile     string
)

func main() {
	root := &cobra.Command{
		Use:           "scribl",
		Short:         "Build a document graph from tag-annotated Zotero libraries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnv(envFile)
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&graphdbPath, "graphdb", "g", "", "Path to the scribl database folder")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with credential overrides")

	root.AddCommand(buildCmd())
	root.AddCommand(initCmd())
	root.AddCommand(annotateCmd())
	root.AddCommand(parseCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(snapshotCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(pushCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	return logger.New(os.Stderr, verbose)
}

// openInstance opens the database named by --graphdb. Commands other than
// build and init refuse to create one.
func openInstance(opts instance.Options) (*instance.Instance, error) {
	if strings.TrimSpace(graphdbPath) == "" {
		return nil, fmt.Errorf("--graphdb is required")
	}
	if opts.Logger == nil {
		opts.Logger = newLogger()
	}
	return instance.Open(graphdbPath, opts)
}

func openExisting() (*instance.Instance, error) {
	if strings.TrimSpace(graphdbPath) != "" {
		if _, err := os.Stat(graphdbPath); err != nil {
			return nil, fmt.Errorf("%w: %s", instance.ErrNotDatabase, graphdbPath)
		}
	}
	return openInstance(instance.Options{})
}

// loadGraph returns a stored snapshot when label is set, otherwise the graph
// of the latest Zotero export.
func loadGraph(ctx context.Context, inst *instance.Instance, label string) (*graphdb.DB, error) {
	if label != "" {
		db, _, err := inst.LoadSnapshot(ctx, label)
		return db, err
	}
	result, err := inst.LoadCSV(ctx, "")
	if err != nil {
		return nil, err
	}
	return result.DB, nil
}

func joinValues(values []string) string {
	return strings.Join(values, ", ")
}
