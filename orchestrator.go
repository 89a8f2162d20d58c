package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	errWorktreeNotFound   = errors.New("no worktree found for branch")
	errRemovalCancelled   = errors.New("worktree removal cancelled")
	errUncommittedChanges = errors.New("worktree has uncommitted changes (pass --force to remove anyway)")
)

type installFunc func(ctx context.Context, worktreePath string, pm PackageManager, onProgress ProgressFunc) (InstallResult, error)

// Orchestrator sequences the naming resolver, version-control adapter, file
// synchronization engine, dependency installer and editor launcher into one
// worktree lifecycle run.
type Orchestrator struct {
	git      VersionControl
	cfg      WorktreeConfig
	sync     *FileSyncEngine
	editor   *EditorLauncher
	install  installFunc
	diskFree func(path string) (uint64, error)
	log      *logrus.Entry
	repoRoot string

	// OnProgress receives dependency-install output lines when set.
	OnProgress ProgressFunc
}

func NewOrchestrator(repoRoot string, cfg WorktreeConfig, git VersionControl) *Orchestrator {
	return &Orchestrator{
		git:      git,
		cfg:      cfg,
		sync:     NewFileSyncEngine(git),
		editor:   NewEditorLauncher(),
		install:  installDependencies,
		diskFree: freeDiskSpace,
		log:      log.WithField("component", "orchestrator"),
		repoRoot: repoRoot,
	}
}

// prefixedBranch applies the configured branch prefix once.
func (o *Orchestrator) prefixedBranch(branch string) string {
	prefix := strings.TrimSpace(o.cfg.BranchPrefix)
	if prefix == "" || strings.HasPrefix(branch, prefix) {
		return branch
	}
	return prefix + branch
}

func (o *Orchestrator) worktreeTarget(branch, customPath string) (string, error) {
	if p := strings.TrimSpace(customPath); p != "" {
		return filepath.Abs(p)
	}
	repoDirName := filepath.Base(o.repoRoot)
	logicalName := repoDirName
	if current, err := o.git.CurrentBranch(o.repoRoot); err == nil && current == repoDirName {
		// The clone directory itself encodes the branch (e.g. "main"); the
		// worktree name carries no project prefix then.
		logicalName = ""
	}
	name := resolveWorktreeName(repoDirName, logicalName, branch)
	if name == "" {
		return "", fmt.Errorf("branch %q contains no characters usable in a worktree name", branch)
	}
	if base := strings.TrimSpace(o.cfg.WorktreeBasePath); base != "" {
		return filepath.Abs(filepath.Join(base, name))
	}
	return resolveWorktreePath(o.repoRoot, name), nil
}

// Create runs the full lifecycle for branch. The returned CreateResult is
// meaningful even when err is non-nil: State reports how far the run got and
// NonFatalErrors carries everything that was reported but not fatal.
func (o *Orchestrator) Create(ctx context.Context, branch string, opts CreateOptions) (CreateResult, error) {
	result := CreateResult{State: StateNone, NonFatalErrors: []string{}}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return result, errors.New("branch name required")
	}
	if opts.SkipWorktree {
		result.Success = true
		return result, nil
	}

	meta := WorktreeMetadata{
		BranchName:     branch,
		CreatedAt:      time.Now(),
		Status:         StateNone,
		ParentRepoPath: o.repoRoot,
	}

	// Preconditions run before any mutation; failing here needs no rollback.
	version, err := o.git.ToolVersion()
	if err != nil {
		return result, err
	}
	if !version.AtLeast(minWorktreeGitVersion) {
		return result, &GitVersionError{Found: version.String(), Required: minWorktreeGitVersion.String()}
	}

	branch = o.prefixedBranch(branch)
	if opts.Approve != nil && !opts.Force {
		edited, ok, err := opts.Approve(branch)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, errApprovalCancelled
		}
		if edited = strings.TrimSpace(edited); edited != "" {
			branch = edited
		}
	}
	meta.BranchName = branch

	target, err := o.worktreeTarget(branch, opts.CustomPath)
	if err != nil {
		return result, err
	}
	meta.WorktreePath = target
	result.WorktreePath = target

	if free, err := o.diskFree(filepath.Dir(target)); err == nil && free < minFreeDiskBytes {
		return result, &DiskSpaceError{Path: filepath.Dir(target), Available: free, Required: minFreeDiskBytes}
	}

	// Stale-reference reconciliation is advisory only.
	if pruned, err := o.git.PruneWorktrees(false); err != nil {
		result.NonFatalErrors = append(result.NonFatalErrors, "prune failed: "+err.Error())
	} else if len(pruned.PrunedPaths) > 0 {
		result.NonFatalErrors = append(result.NonFatalErrors,
			fmt.Sprintf("pruned %d stale worktree reference(s): %s",
				len(pruned.PrunedPaths), strings.Join(pruned.PrunedPaths, ", ")))
	}

	createdByRun := false
	if _, err := os.Stat(target); err == nil {
		if !opts.ReuseExisting {
			return result, &CollisionError{Path: target}
		}
		o.log.WithField("path", target).Debug("reusing existing worktree directory")
	} else {
		meta.Status = StateCreating
		result.State = StateCreating
		exists, err := o.git.LocalBranchExists(branch)
		if err != nil {
			return o.failAndRollback(result, &meta, createdByRun, err)
		}
		addOpts := AddWorktreeOptions{CreateBranch: !exists}
		if err := o.git.AddWorktree(target, branch, addOpts); err != nil {
			return o.failAndRollback(result, &meta, createdByRun, err)
		}
		createdByRun = true
	}

	meta.Status = StateCopyingFiles
	result.State = StateCopyingFiles
	syncResult, err := o.sync.ApplyRules(ctx, o.repoRoot, target, o.cfg.FileRules, o.cfg.IncludeUntracked)
	if err != nil {
		return o.failAndRollback(result, &meta, createdByRun, err)
	}
	for _, se := range syncResult.Errors {
		result.NonFatalErrors = append(result.NonFatalErrors,
			(&FileOperationError{Path: se.Path, Err: se.Err}).Error())
	}
	o.log.WithFields(logrus.Fields{
		"copied":    len(syncResult.Copied),
		"symlinked": len(syncResult.Symlinked),
		"errors":    len(syncResult.Errors),
	}).Debug("file rules applied")

	if o.cfg.DependencyAutoInstall && !opts.SkipDeps {
		meta.Status = StateInstallingDeps
		result.State = StateInstallingDeps
		pm := o.cfg.PackageManager
		if _, err := o.install(ctx, target, pm, o.OnProgress); err != nil {
			// Install failure leaves the worktree usable; only the editor
			// launch is suppressed.
			meta.Status = StateError
			result.State = StateError
			return result, err
		}
	}

	meta.Status = StateReady
	result.State = StateReady
	result.Success = true

	if o.cfg.EditorAutoLaunch && !opts.SkipEditor {
		if err := o.editor.Launch(o.cfg.Editor, target, o.cfg.EditorNewWindow); err != nil {
			result.EditorError = err
			result.NonFatalErrors = append(result.NonFatalErrors, err.Error())
		}
	}
	return result, nil
}

// failAndRollback tears down whatever this run created and reports the
// original error. Rollback problems are swallowed; the first failure is the
// one the caller needs.
func (o *Orchestrator) failAndRollback(result CreateResult, meta *WorktreeMetadata, createdByRun bool, cause error) (CreateResult, error) {
	meta.Status = StateError
	result.State = StateError
	if createdByRun {
		if err := o.git.RemoveWorktree(meta.WorktreePath, true); err != nil {
			o.log.WithError(err).Debug("rollback: worktree remove failed")
		}
		if err := os.RemoveAll(meta.WorktreePath); err != nil {
			o.log.WithError(err).Debug("rollback: directory removal failed")
		}
		if _, err := o.git.PruneWorktrees(false); err != nil {
			o.log.WithError(err).Debug("rollback: prune failed")
		}
	}
	return result, cause
}

type RemoveResult struct {
	State    WorktreeState
	Warnings []string
}

// Remove tears down the worktree for branch. Uncommitted changes block the
// removal unless forced; unpushed commits are reported but do not block.
func (o *Orchestrator) Remove(branch string, opts RemoveOptions) (RemoveResult, error) {
	result := RemoveResult{State: StateReady, Warnings: []string{}}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return result, errors.New("branch name required")
	}

	worktrees, err := o.git.ListWorktrees()
	if err != nil {
		return result, err
	}
	target := findWorktreeForBranch(worktrees, branch, o.repoRoot)
	if target == nil {
		// Create prepends cfg.BranchPrefix, so accept the bare name too.
		if prefixed := o.prefixedBranch(branch); prefixed != branch {
			if target = findWorktreeForBranch(worktrees, prefixed, o.repoRoot); target != nil {
				branch = prefixed
			}
		}
	}
	if target == nil {
		return result, fmt.Errorf("%w %q", errWorktreeNotFound, branch)
	}

	dirty, err := o.git.HasUncommittedChanges(target.Path)
	if err != nil {
		result.Warnings = append(result.Warnings, "could not check for uncommitted changes: "+err.Error())
	} else if dirty {
		if !opts.Force {
			return result, errUncommittedChanges
		}
		result.Warnings = append(result.Warnings, "discarding uncommitted changes")
	}
	if unpushed, err := o.git.UnpushedCommits(target.Path, branch); err == nil && unpushed > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d unpushed commit(s) on %s", unpushed, branch))
	}

	if opts.Confirm != nil {
		ok, err := opts.Confirm(target.Path, result.Warnings)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, errRemovalCancelled
		}
	}

	if err := o.git.RemoveWorktree(target.Path, opts.Force); err != nil {
		return result, err
	}
	result.State = StateDeleted

	if opts.DeleteBranch {
		elsewhere, err := o.git.BranchCheckedOutElsewhere(branch, target.Path)
		if err != nil {
			result.Warnings = append(result.Warnings, "could not verify branch usage: "+err.Error())
		} else if elsewhere {
			result.Warnings = append(result.Warnings, fmt.Sprintf("branch %s is checked out in another worktree; not deleted", branch))
		} else if err := o.git.DeleteBranch(branch, opts.Force); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}
	return result, nil
}

func findWorktreeForBranch(worktrees []GitWorktreeInfo, branch, repoRoot string) *GitWorktreeInfo {
	for i := range worktrees {
		if worktrees[i].Branch == branch && worktrees[i].Path != repoRoot {
			return &worktrees[i]
		}
	}
	return nil
}

func (o *Orchestrator) List() ([]GitWorktreeInfo, error) {
	return o.git.ListWorktrees()
}

func (o *Orchestrator) Prune(dryRun bool) (PruneResult, error) {
	return o.git.PruneWorktrees(dryRun)
}
