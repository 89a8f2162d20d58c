package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// completeRecentBranches suggests branches recently created through arbor in
// this repository.
func completeRecentBranches(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	git, err := NewGitCLI(cwd, nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	recent, err := readRecentBranches(git.Root(), recentBranchCacheLimit)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterByPrefix(recent, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeWorktreeBranches suggests branches that currently have a linked
// worktree.
func completeWorktreeBranches(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	git, err := NewGitCLI(cwd, nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	worktrees, err := git.ListWorktrees()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	branches := make([]string, 0, len(worktrees))
	for _, wt := range worktrees {
		if wt.Path == git.Root() || wt.Branch == "" {
			continue
		}
		branches = append(branches, wt.Branch)
	}
	return filterByPrefix(branches, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func filterByPrefix(candidates []string, prefix string) []string {
	if prefix == "" {
		return candidates
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
