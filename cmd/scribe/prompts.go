package main

import (
	"fmt"

	"github.com/fwojciec/scribe/prompt"
	"github.com/spf13/cobra"
)

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "prompts",
		Short:       "Manage prompt overrides",
		Annotations: map[string]string{skipSetup: "true"},
	}

	var (
		dir   string
		force bool
	)
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the built-in prompts to a directory for editing",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			written, err := prompt.WriteDefaults(dir, force)
			for _, p := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			}
			if err != nil {
				return err
			}
			if len(written) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "all prompts already present in %s (use --force to overwrite)\n", dir)
			}
			return nil
		},
	}
	initCmd.Flags().StringVar(&dir, "dir", "prompts", "target directory")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	cmd.AddCommand(initCmd)
	return cmd
}
