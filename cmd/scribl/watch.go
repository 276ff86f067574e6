package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"scribl/internal/export"
	"scribl/internal/instance"
	"scribl/internal/watch"
)

func watchCmd() *cobra.Command {
	var file, cypherFile string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild and snapshot the graph whenever a Zotero export changes",
		Long: `Watch the database's export folder, or a single Zotero CSV file kept
up to date by Zotero, and rebuild the graph when it changes. Each rebuild
is stored as a snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, file, cypherFile)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Watch this Zotero CSV file and import it on change")
	cmd.Flags().StringVar(&cypherFile, "cyphertextfile", "", "Rewrite this Cypher file after every rebuild")
	return cmd
}

func runWatch(cmd *cobra.Command, file, cypherFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger()
	inst, err := openExisting()
	if err != nil {
		return err
	}
	defer inst.Close(context.Background())

	target := filepath.Join(inst.Path, instance.ExportsDir)
	if file != "" {
		target = file
	}
	w, err := watch.New(target, inst.Config.Watch.DebounceDuration(), log)
	if err != nil {
		return err
	}
	if file != "" {
		if err := w.Seed(file); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	return w.Run(ctx, func(ctx context.Context, path string) error {
		name := filepath.Base(path)
		if file != "" {
			imported, err := inst.ImportCSV(path)
			if err != nil {
				return err
			}
			name = filepath.Base(imported)
		}
		result, err := inst.LoadCSV(ctx, name)
		if err != nil {
			return err
		}
		printLoadSummary(out, result)
		if _, err := inst.SaveSnapshot(ctx); err != nil {
			return err
		}
		if cypherFile != "" {
			return writeParts(cypherFile, export.Cypher(result.DB))
		}
		return nil
	})
}
