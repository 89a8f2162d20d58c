package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRemoveCommand() *cobra.Command {
	var force bool
	var deleteBranch bool

	cmd := &cobra.Command{
		Use:   "remove <branch>",
		Short: "Remove the worktree for a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRemove(args[0], RemoveOptions{
				Force:        force,
				DeleteBranch: deleteBranch,
				Confirm:      interactiveRemovalConfirm,
			})
		},
		ValidArgsFunction: completeWorktreeBranches,
	}
	cmd.Flags().BoolVar(&force, "force", false, "Remove even with uncommitted changes")
	cmd.Flags().BoolVar(&deleteBranch, "delete-branch", false, "Also delete the branch if no other worktree has it checked out")
	return cmd
}

func runRemove(branch string, opts RemoveOptions) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	git, err := NewGitCLI(cwd, nil)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(git.Root())
	if err != nil {
		return err
	}

	orch := NewOrchestrator(git.Root(), cfg, git)
	result, err := orch.Remove(branch, opts)
	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+warning))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, successStyle.Render("worktree removed for branch ")+pathStyle.Render(branch))
	return nil
}
