package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	zshCompletionBlockStart = "# >>> arbor completion >>>"
	zshCompletionBlockEnd   = "# <<< arbor completion <<<"
)

type zshCompletionStatus struct {
	Installed  bool
	Enabled    bool
	ScriptPath string
	ZshrcPath  string
}

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Manage shell completion",
		RunE: func(_ *cobra.Command, _ []string) error {
			status, err := detectZshCompletionStatus()
			if err != nil {
				return err
			}
			fmt.Printf("zsh completion installed: %t\n", status.Installed)
			fmt.Printf("zsh completion enabled: %t\n", status.Enabled)
			if !status.Installed || !status.Enabled {
				fmt.Println("Install with: arbor completion install")
			}
			return nil
		},
	}

	cmd.AddCommand(
		newCompletionZshCommand(),
		newCompletionInstallCommand(),
		newCompletionStatusCommand(),
	)
	return cmd
}

func newCompletionZshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().GenZshCompletion(os.Stdout)
		},
	}
}

func newCompletionInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install zsh completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := installZshCompletion(cmd.Root())
			if err != nil {
				return err
			}
			fmt.Printf("Installed completion script: %s\n", status.ScriptPath)
			fmt.Printf("Updated zsh config: %s\n", status.ZshrcPath)
			fmt.Println("Restart shell or run: exec zsh")
			return nil
		},
	}
}

func newCompletionStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show zsh completion install status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			status, err := detectZshCompletionStatus()
			if err != nil {
				return err
			}
			fmt.Printf("installed: %t\n", status.Installed)
			fmt.Printf("enabled: %t\n", status.Enabled)
			fmt.Printf("script: %s\n", status.ScriptPath)
			fmt.Printf("zshrc: %s\n", status.ZshrcPath)
			if !status.Installed || !status.Enabled {
				fmt.Println("Install with: arbor completion install")
			}
			return nil
		},
	}
}

func detectZshCompletionStatus() (zshCompletionStatus, error) {
	home, err := arborHomeDir()
	if err != nil {
		return zshCompletionStatus{}, err
	}
	status := zshCompletionStatus{
		ScriptPath: filepath.Join(home, "completions", "_arbor"),
		ZshrcPath:  filepath.Join(filepath.Dir(home), ".zshrc"),
	}

	if info, err := os.Stat(status.ScriptPath); err == nil && info.Size() > 0 {
		status.Installed = true
	}
	data, err := os.ReadFile(status.ZshrcPath)
	if err == nil {
		content := string(data)
		status.Enabled = strings.Contains(content, zshCompletionBlockStart) && strings.Contains(content, zshCompletionBlockEnd)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return zshCompletionStatus{}, err
	}
	return status, nil
}

func installZshCompletion(root *cobra.Command) (zshCompletionStatus, error) {
	status, err := detectZshCompletionStatus()
	if err != nil {
		return zshCompletionStatus{}, err
	}

	if err := os.MkdirAll(filepath.Dir(status.ScriptPath), 0o755); err != nil {
		return zshCompletionStatus{}, err
	}

	var buf bytes.Buffer
	if err := root.GenZshCompletion(&buf); err != nil {
		return zshCompletionStatus{}, err
	}
	if err := os.WriteFile(status.ScriptPath, buf.Bytes(), 0o644); err != nil {
		return zshCompletionStatus{}, err
	}

	block := strings.Join([]string{
		zshCompletionBlockStart,
		"fpath+=(\"$HOME/.arbor/completions\")",
		"autoload -Uz compinit",
		"compinit",
		zshCompletionBlockEnd,
		"",
	}, "\n")

	current := ""
	if data, err := os.ReadFile(status.ZshrcPath); err == nil {
		current = string(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return zshCompletionStatus{}, err
	}

	updated := upsertManagedBlock(current, block, zshCompletionBlockStart, zshCompletionBlockEnd)
	if err := os.WriteFile(status.ZshrcPath, []byte(updated), 0o644); err != nil {
		return zshCompletionStatus{}, err
	}

	return detectZshCompletionStatus()
}

// upsertManagedBlock replaces an existing marker-delimited block in place, or
// appends the block when no markers are present.
func upsertManagedBlock(content string, block string, startMarker string, endMarker string) string {
	start := strings.Index(content, startMarker)
	end := strings.Index(content, endMarker)
	if start >= 0 && end >= start {
		end += len(endMarker)
		replaced := content[:start] + block + content[end:]
		return strings.TrimRight(replaced, "\n") + "\n"
	}
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return block
	}
	return content + "\n\n" + block
}
