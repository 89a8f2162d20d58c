package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	errGitNotInstalled    = errors.New("git not installed; install git 2.5 or newer")
	errNotInGitRepository = errors.New("not in a git repository")
	errApprovalCancelled  = errors.New("worktree creation cancelled")
	errUnknownEditor      = errors.New("unknown editor")
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

type ConfigValidationError struct {
	Path   string
	Fields []FieldError
}

func (e *ConfigValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("invalid configuration in %s: %s (fix the listed fields and retry)",
		e.Path, strings.Join(parts, "; "))
}

type VersionControlError struct {
	Op     string
	Output string
	Err    error
}

func (e *VersionControlError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("git %s failed: %s", e.Op, out)
}

func (e *VersionControlError) Unwrap() error { return e.Err }

type FileOperationError struct {
	Path string
	Err  error
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("file operation failed for %s: %v", e.Path, e.Err)
}

func (e *FileOperationError) Unwrap() error { return e.Err }

type DependencyInstallError struct {
	PackageManager PackageManager
	Output         string
	Err            error
}

func (e *DependencyInstallError) Error() string {
	return fmt.Sprintf("%s install failed: %s", e.PackageManager,
		interpretInstallError(e.Output, e.PackageManager))
}

func (e *DependencyInstallError) Unwrap() error { return e.Err }

type EditorLaunchError struct {
	Editor Editor
	Err    error
}

func (e *EditorLaunchError) Error() string {
	return fmt.Sprintf("could not launch %s: %v (open the worktree manually or pick another editor with `arbor config`)",
		e.Editor, e.Err)
}

func (e *EditorLaunchError) Unwrap() error { return e.Err }

type DiskSpaceError struct {
	Path      string
	Available uint64
	Required  uint64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("not enough disk space at %s: %s available, %s required (free up space and retry)",
		e.Path, humanize.IBytes(e.Available), humanize.IBytes(e.Required))
}

type CollisionError struct {
	Path string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("worktree path %s already exists (pass --reuse-worktree to use it, or remove it first)", e.Path)
}

// GitVersionError means the installed git predates worktree support. It is
// never retryable.
type GitVersionError struct {
	Found    string
	Required string
}

func (e *GitVersionError) Error() string {
	return fmt.Sprintf("git %s does not support worktrees; upgrade to git %s or newer", e.Found, e.Required)
}
