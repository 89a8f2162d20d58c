package main

import (
	"errors"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newRootCommand() *cobra.Command {
	var showVersion bool
	var verbose bool
	root := &cobra.Command{
		Use:           "arbor",
		Short:         "Per-branch worktree lifecycle manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				enableVerboseLogging()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				return runVersionCommand()
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Print arbor version and exit")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	root.AddCommand(
		newCreateCommand(),
		newRemoveCommand(),
		newListCommand(),
		newPruneCommand(),
		newConfigCommand(),
		newCompletionCommand(),
		newUpdateCommand(),
	)
	return root
}

// Exit codes are part of the CLI contract: callers branch on them.
const (
	exitOK                = 0
	exitPrecondition      = 1
	exitNotFound          = 2
	exitVersionControl    = 3
	exitFileSync          = 4
	exitDependencyInstall = 5
	exitEditorLaunch      = 6
	exitConfigInvalid     = 7
)

func exitCodeForError(err error) int {
	if err == nil {
		return exitOK
	}
	var (
		collisionErr *CollisionError
		diskErr      *DiskSpaceError
		vcErr        *VersionControlError
		gitVerErr    *GitVersionError
		fileErr      *FileOperationError
		depErr       *DependencyInstallError
		editorErr    *EditorLaunchError
		cfgErr       *ConfigValidationError
	)
	switch {
	case errors.Is(err, errWorktreeNotFound):
		return exitNotFound
	case errors.Is(err, errApprovalCancelled),
		errors.Is(err, errRemovalCancelled),
		errors.Is(err, errUncommittedChanges),
		errors.As(err, &collisionErr),
		errors.As(err, &diskErr):
		return exitPrecondition
	case errors.As(err, &cfgErr):
		return exitConfigInvalid
	case errors.As(err, &depErr):
		return exitDependencyInstall
	case errors.As(err, &editorErr):
		return exitEditorLaunch
	case errors.As(err, &fileErr):
		return exitFileSync
	case errors.As(err, &gitVerErr),
		errors.As(err, &vcErr),
		errors.Is(err, errGitNotInstalled),
		errors.Is(err, errNotInGitRepository):
		return exitVersionControl
	default:
		return exitPrecondition
	}
}
