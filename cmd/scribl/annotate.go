package main

import (
	"fmt"
	"os/user"
	"strings"

	"github.com/spf13/cobra"
)

func annotateCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "annotate <text>",
		Short: "Append a curator note to the database annotations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if author == "" {
				if u, err := user.Current(); err == nil {
					author = u.Username
				}
			}
			inst, err := openExisting()
			if err != nil {
				return err
			}
			if err := inst.AddAnnotation(author, strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Annotation added.")
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Author of the note, defaults to the current user")
	return cmd
}
