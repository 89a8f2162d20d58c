package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCreateCommand() *cobra.Command {
	var customPath string
	var noDeps bool
	var noEditor bool
	var reuseWorktree bool
	var force bool

	cmd := &cobra.Command{
		Use:   "create <branch>",
		Short: "Create a worktree for a branch and prepare it for work",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCreate(args[0], CreateOptions{
				SkipDeps:      noDeps,
				SkipEditor:    noEditor,
				ReuseExisting: reuseWorktree,
				CustomPath:    customPath,
				Force:         force,
				Approve:       interactiveApproval,
			})
		},
		ValidArgsFunction: completeRecentBranches,
	}
	cmd.Flags().StringVar(&customPath, "path", "", "Create the worktree at this path instead of the resolved default")
	cmd.Flags().BoolVar(&noDeps, "no-deps", false, "Skip dependency installation")
	cmd.Flags().BoolVar(&noEditor, "no-editor", false, "Skip launching the editor")
	cmd.Flags().BoolVar(&reuseWorktree, "reuse-worktree", false, "Reuse an existing directory at the target path")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the branch name approval prompt")
	return cmd
}

func runCreate(branch string, opts CreateOptions) error {
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
	orch.OnProgress = func(line string) {
		fmt.Fprintln(os.Stdout, dimStyle.Render(line))
	}

	result, err := orch.Create(context.Background(), branch, opts)
	for _, warning := range result.NonFatalErrors {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+warning))
	}
	if err != nil {
		return err
	}

	if err := recordRecentBranch(git.Root(), branch); err != nil {
		log.WithError(err).Debug("recent branch cache update failed")
	}
	fmt.Fprintln(os.Stdout, successStyle.Render("worktree ready: ")+pathStyle.Render(result.WorktreePath))
	if result.EditorError != nil {
		// The worktree itself succeeded; the editor exit code signals the
		// launch failure on top of that.
		return result.EditorError
	}
	return nil
}
