package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective worktree configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigShow()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the config file to the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigMigrate()
		},
	})
	return cmd
}

func runConfigShow() error {
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
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(documentFromConfig(cfg))
}

func runConfigMigrate() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	git, err := NewGitCLI(cwd, nil)
	if err != nil {
		return err
	}
	if err := MigrateConfig(git.Root()); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, successStyle.Render("configuration is at the current schema version"))
	return nil
}
