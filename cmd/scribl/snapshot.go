package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored graph snapshots",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			inst, err := openExisting()
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			snapshots, err := inst.Snapshots(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snapshots) == 0 {
				fmt.Fprintln(out, "No snapshots found.")
				return nil
			}
			for _, s := range snapshots {
				fmt.Fprintf(out, "%s  articles=%d entities=%d relationships=%d\n", s.Label, s.Articles, s.Entities, s.Relationships)
			}
			return nil
		},
	})

	var full bool
	save := &cobra.Command{
		Use:   "save [export]",
		Short: "Build an export, the latest by default, and store it as a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			inst, err := openExisting()
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			result, err := inst.LoadCSV(ctx, name)
			if err != nil {
				return err
			}
			if !full {
				snapshots, err := inst.Snapshots(ctx)
				if err != nil {
					return err
				}
				for _, s := range snapshots {
					if s.Label == result.Label && s.SourceHash == result.SourceHash {
						fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s is up to date.\n", s.Label)
						return nil
					}
				}
			}
			snapshot, err := inst.SaveSnapshot(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %s.\n", snapshot.Label)
			return nil
		},
	}
	save.Flags().BoolVar(&full, "full", false, "Save even when the stored snapshot has the same content")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <label>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			inst, err := openExisting()
			if err != nil {
				return err
			}
			defer inst.Close(ctx)

			s, err := inst.Store(ctx)
			if err != nil {
				return err
			}
			deleted, err := s.DeleteSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("snapshot %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %s.\n", args[0])
			return nil
		},
	})
	return cmd
}
