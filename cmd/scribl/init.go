package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribl/internal/config"
	"scribl/internal/instance"
)

func initCmd() *cobra.Command {
	var name, curator, description string
	var overwrite, writeConfig bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a scribl database and record its metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--namedb is required")
			}
			return runInit(cmd, name, curator, description, overwrite, writeConfig)
		},
	}
	cmd.Flags().StringVarP(&name, "namedb", "n", "", "Name of your database")
	cmd.Flags().StringVarP(&curator, "curator", "c", "", "Person or group who curated your database")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of your database")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite any existing database")
	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "Write the default scribl.yaml into the config folder")
	return cmd
}

func runInit(cmd *cobra.Command, name, curator, description string, overwrite, writeConfig bool) error {
	inst, err := openInstance(instance.Options{Overwrite: overwrite})
	if err != nil {
		return err
	}
	defer inst.Close(context.Background())

	written, err := inst.SetMetadata(name, curator, description, overwrite)
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(cmd.OutOrStdout(), "Metadata already exists in %s, use --overwrite to replace it.\n", inst.Path)
		return nil
	}

	if writeConfig {
		path := filepath.Join(inst.Path, instance.ConfigDir, instance.ConfigFile)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s.\n", inst.Path)
	return nil
}
