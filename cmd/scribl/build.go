package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribl/internal/export"
	"scribl/internal/instance"
	"scribl/internal/zotero"
)

type buildOptions struct {
	name          string
	curator       string
	description   string
	zoteroFile    string
	zoteroLibrary string
	zoteroAPIKey  string
	cypherFile    string
	graphMLFile   string
	checkSyn      bool
	checkLabels   bool
	overwrite     bool
}

func buildCmd() *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Create or update a database from a Zotero export and write its outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.name, "namedb", "n", "", "Name of your database")
	cmd.Flags().StringVarP(&opts.curator, "curator", "c", "", "Person or group who curated your database")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Description of your database")
	cmd.Flags().StringVarP(&opts.zoteroFile, "zoterofile", "z", "", "Path to a Zotero CSV export")
	cmd.Flags().StringVar(&opts.zoteroLibrary, "zotero-library", "", "Zotero library as LIBRARY_ID:TYPE, TYPE is user or group")
	cmd.Flags().StringVar(&opts.zoteroAPIKey, "zotero-api-key", "", "API key for a private Zotero library")
	cmd.Flags().StringVar(&opts.cypherFile, "cyphertextfile", "", "Write the Cypher script to this file")
	cmd.Flags().StringVar(&opts.graphMLFile, "graphmlfile", "", "Write the GraphML document to this file")
	cmd.Flags().BoolVar(&opts.checkSyn, "check-synonyms", false, "Report ambiguous agent synonyms")
	cmd.Flags().BoolVar(&opts.checkLabels, "check-agentlabels", false, "Report agents without a label")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Overwrite any existing database")
	cmd.MarkFlagsMutuallyExclusive("zoterofile", "zotero-library")
	return cmd
}

// parseLibrary splits LIBRARY_ID:TYPE. The id must be an integer.
func parseLibrary(value string) (string, string, error) {
	id, libraryType, ok := strings.Cut(value, ":")
	if ok {
		if _, err := strconv.Atoi(id); err == nil && (libraryType == "user" || libraryType == "group") {
			return id, libraryType, nil
		}
	}
	return "", "", fmt.Errorf("--zotero-library must contain an integer and either user or group separated by a colon, e.g. 5251557:group")
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	var libraryID, libraryType string
	if opts.zoteroLibrary != "" {
		var err error
		if libraryID, libraryType, err = parseLibrary(opts.zoteroLibrary); err != nil {
			return err
		}
	} else if opts.zoteroAPIKey != "" {
		return fmt.Errorf("--zotero-api-key is only valid with --zotero-library")
	}

	log := newLogger()
	inst, err := openInstance(instance.Options{Overwrite: opts.overwrite, Logger: log})
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	if _, err := inst.SetMetadata(opts.name, opts.curator, opts.description, opts.overwrite); err != nil {
		return err
	}

	switch {
	case opts.zoteroFile != "":
		if _, err := inst.ImportCSV(opts.zoteroFile); err != nil {
			return err
		}
	case libraryID != "":
		apiKey := opts.zoteroAPIKey
		if apiKey == "" {
			apiKey = inst.Config.Zotero.APIKey
		}
		library, err := zotero.NewLibrary(libraryID, libraryType, apiKey)
		if err != nil {
			return err
		}
		if _, err := inst.ImportLibrary(ctx, library); err != nil {
			return err
		}
	default:
		log.Debug("no Zotero input given, reading from existing database")
	}

	result, err := inst.LoadCSV(ctx, "")
	if errors.Is(err, instance.ErrNoExports) {
		fmt.Fprintln(out, "no previously loaded data found")
		return nil
	}
	if err != nil {
		return err
	}
	printLoadSummary(out, result)

	if opts.checkSyn {
		report, err := inst.CheckSynonyms()
		if err != nil {
			return err
		}
		printSynonymReport(out, report)
	}
	if opts.checkLabels {
		unlabelled, err := inst.CheckAgentLabels()
		if err != nil {
			return err
		}
		printAgentLabels(out, unlabelled)
	}

	if verbose {
		in, err := inst.Inspect()
		if err != nil {
			return err
		}
		printInspection(out, in, 5)
	}

	if _, err := inst.SaveSnapshot(ctx); err != nil {
		return err
	}

	if opts.cypherFile != "" {
		if err := writeParts(opts.cypherFile, export.Cypher(result.DB)); err != nil {
			return err
		}
		log.Info("wrote cypher", "path", opts.cypherFile)

		diff, base, err := inst.Diff(ctx, "")
		if err != nil {
			return err
		}
		against := "an empty graph"
		if base != nil {
			against = base.Label
		}
		statements := export.Cypher(diff)
		log.Info("diff against previous snapshot", "base", against, "statements", len(statements))
		if verbose {
			fmt.Fprintln(out, "\nExported DB Diff Cypher Text -----")
			fmt.Fprintln(out, export.Text(statements))
		}
	}

	if _, err := inst.Backup(); err != nil {
		return err
	}

	if opts.graphMLFile != "" {
		if err := writeParts(opts.graphMLFile, export.GraphML(result.DB, inst.Config.KeyMap.CypherKeys)); err != nil {
			return err
		}
		log.Info("wrote graphml", "path", opts.graphMLFile)
	}
	return nil
}

func writeParts(path string, parts []string) error {
	if err := os.WriteFile(path, []byte(export.Text(parts)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
