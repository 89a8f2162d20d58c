package main

import "time"

type WorktreeState string

const (
	StateNone           WorktreeState = "none"
	StateCreating       WorktreeState = "creating"
	StateCopyingFiles   WorktreeState = "copying_files"
	StateInstallingDeps WorktreeState = "installing_deps"
	StateReady          WorktreeState = "ready"
	StateError          WorktreeState = "error"
	StateDeleted        WorktreeState = "deleted"
)

// WorktreeMetadata tracks a single orchestration run. It is created when the
// run starts and mutated as the run advances; it is not persisted here.
type WorktreeMetadata struct {
	BranchName     string
	WorktreePath   string
	CreatedAt      time.Time
	Status         WorktreeState
	ParentRepoPath string
}

// GitWorktreeInfo is derived from `git worktree list --porcelain` output and
// never constructed by hand outside the adapter.
type GitWorktreeInfo struct {
	Path       string
	Branch     string
	CommitHash string
	IsPrunable bool
}

type ApprovalFunc func(branch string) (string, bool, error)

type CreateOptions struct {
	SkipWorktree  bool
	SkipDeps      bool
	SkipEditor    bool
	ReuseExisting bool
	CustomPath    string
	Force         bool
	// Approve presents the computed branch name before any mutation and may
	// return an edited name. Nil means accept as-is.
	Approve ApprovalFunc
}

type CreateResult struct {
	Success        bool
	WorktreePath   string
	State          WorktreeState
	NonFatalErrors []string
	// EditorError is set when the worktree succeeded but the editor could
	// not be launched; it is also mirrored into NonFatalErrors.
	EditorError error
}

type RemoveOptions struct {
	Force        bool
	DeleteBranch bool
	// Confirm gates the removal. Nil means confirmed.
	Confirm func(path string, warnings []string) (bool, error)
}
