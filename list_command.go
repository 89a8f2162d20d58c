package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	var asJSON bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered worktrees",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runList(asJSON, verbose)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Include commit hashes and prunable markers")
	return cmd
}

type worktreeListEntry struct {
	Path       string `json:"path"`
	Branch     string `json:"branch"`
	CommitHash string `json:"commitHash,omitempty"`
	IsPrunable bool   `json:"isPrunable"`
}

func runList(asJSON bool, verbose bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	git, err := NewGitCLI(cwd, nil)
	if err != nil {
		return err
	}
	worktrees, err := git.ListWorktrees()
	if err != nil {
		return err
	}

	if asJSON {
		entries := make([]worktreeListEntry, 0, len(worktrees))
		for _, wt := range worktrees {
			entries = append(entries, worktreeListEntry{
				Path:       wt.Path,
				Branch:     wt.Branch,
				CommitHash: wt.CommitHash,
				IsPrunable: wt.IsPrunable,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, wt := range worktrees {
		line := pathStyle.Render(wt.Path) + "  " + wt.Branch
		if verbose {
			hash := wt.CommitHash
			if len(hash) > 8 {
				hash = hash[:8]
			}
			line += "  " + dimStyle.Render(hash)
			if wt.IsPrunable {
				line += "  " + warnStyle.Render("(prunable)")
			}
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
