package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPruneCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop records of worktrees whose directories are gone",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPrune(dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be pruned without pruning")
	return cmd
}

func runPrune(dryRun bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	git, err := NewGitCLI(cwd, nil)
	if err != nil {
		return err
	}
	result, err := git.PruneWorktrees(dryRun)
	if err != nil {
		return err
	}
	if len(result.PrunedPaths) == 0 {
		fmt.Fprintln(os.Stdout, dimStyle.Render("nothing to prune"))
		return nil
	}
	verb := "pruned"
	if dryRun {
		verb = "would prune"
	}
	for _, path := range result.PrunedPaths {
		fmt.Fprintln(os.Stdout, successStyle.Render(verb+" ")+pathStyle.Render(path))
	}
	return nil
}
