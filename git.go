package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// VersionControl is the closed command surface the orchestrator drives. The
// production implementation shells out to git; tests provide fakes.
type VersionControl interface {
	ToolVersion() (GitVersion, error)
	RepoRoot(dir string) (string, error)
	CurrentBranch(dir string) (string, error)
	LocalBranchExists(branch string) (bool, error)
	AddWorktree(path, branch string, opts AddWorktreeOptions) error
	RemoveWorktree(path string, force bool) error
	ListWorktrees() ([]GitWorktreeInfo, error)
	PruneWorktrees(dryRun bool) (PruneResult, error)
	ListTrackedFiles(dir string) ([]string, error)
	ListUntrackedFiles(dir string) ([]string, error)
	HasUncommittedChanges(path string) (bool, error)
	UnpushedCommits(path, branch string) (int, error)
	BranchCheckedOutElsewhere(branch, excludePath string) (bool, error)
	DeleteBranch(branch string, force bool) error
}

type AddWorktreeOptions struct {
	CreateBranch bool
	BaseBranch   string
}

type PruneResult struct {
	PrunedPaths []string
}

type GitVersion struct {
	Major int
	Minor int
	Patch int
}

func (v GitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v GitVersion) AtLeast(other GitVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch >= other.Patch
}

// minWorktreeGitVersion is the first git release with worktree support.
var minWorktreeGitVersion = GitVersion{Major: 2, Minor: 5}

type GitCLI struct {
	repoRoot string
	runner   commandRunner
}

func NewGitCLI(repoRoot string, runner commandRunner) (*GitCLI, error) {
	if runner == nil {
		runner = execRunner{}
	}
	if _, err := runner.LookPath("git"); err != nil {
		return nil, errGitNotInstalled
	}
	g := &GitCLI{runner: runner}
	root, err := g.RepoRoot(repoRoot)
	if err != nil {
		return nil, err
	}
	g.repoRoot = root
	return g, nil
}

// Root is the top-level directory of the main repository this adapter is
// bound to.
func (g *GitCLI) Root() string { return g.repoRoot }

func (g *GitCLI) RepoRoot(dir string) (string, error) {
	out, _, err := g.runner.Output(dir, "git", "rev-parse", "--show-toplevel")
	if err != nil || strings.TrimSpace(out) == "" {
		return "", errNotInGitRepository
	}
	return strings.TrimSpace(out), nil
}

func (g *GitCLI) ToolVersion() (GitVersion, error) {
	out, stderr, err := g.runner.Output(g.repoRoot, "git", "version")
	if err != nil {
		return GitVersion{}, &VersionControlError{Op: "version", Output: stderr, Err: err}
	}
	return parseGitVersion(out)
}

func parseGitVersion(out string) (GitVersion, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	raw := ""
	for _, f := range fields {
		if f != "" && f[0] >= '0' && f[0] <= '9' {
			raw = f
			break
		}
	}
	if raw == "" {
		return GitVersion{}, fmt.Errorf("unrecognized git version output %q", out)
	}
	parts := strings.SplitN(raw, ".", 4)
	var v GitVersion
	for i, dst := range []*int{&v.Major, &v.Minor, &v.Patch} {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(strings.TrimFunc(parts[i], func(r rune) bool { return r < '0' || r > '9' }))
		if err != nil {
			if i == 0 {
				return GitVersion{}, fmt.Errorf("unrecognized git version output %q", out)
			}
			break
		}
		*dst = n
	}
	return v, nil
}

func (g *GitCLI) CurrentBranch(dir string) (string, error) {
	out, stderr, err := g.runner.Output(dir, "git", "branch", "--show-current")
	if err != nil {
		return "", &VersionControlError{Op: "branch --show-current", Output: stderr, Err: err}
	}
	return strings.TrimSpace(out), nil
}

func (g *GitCLI) LocalBranchExists(branch string) (bool, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return false, errors.New("branch name required")
	}
	_, _, err := g.runner.Output(g.repoRoot, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	if err != nil {
		// show-ref exits 1 when the ref does not exist.
		return false, nil
	}
	return true, nil
}

func (g *GitCLI) AddWorktree(path, branch string, opts AddWorktreeOptions) error {
	path = strings.TrimSpace(path)
	branch = strings.TrimSpace(branch)
	if path == "" {
		return errors.New("worktree path required")
	}
	if branch == "" {
		return errors.New("branch name required")
	}
	args := []string{"worktree", "add"}
	if opts.CreateBranch {
		args = append(args, "-b", branch, path)
		base := strings.TrimSpace(opts.BaseBranch)
		if base == "" {
			base = "HEAD"
		}
		args = append(args, base)
	} else {
		args = append(args, path, branch)
	}
	if _, stderr, err := g.runner.Output(g.repoRoot, "git", args...); err != nil {
		return &VersionControlError{Op: "worktree add", Output: stderr, Err: err}
	}
	return nil
}

func (g *GitCLI) RemoveWorktree(path string, force bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("worktree path required")
	}
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if _, stderr, err := g.runner.Output(g.repoRoot, "git", args...); err != nil {
		return &VersionControlError{Op: "worktree remove", Output: stderr, Err: err}
	}
	return nil
}

func (g *GitCLI) ListWorktrees() ([]GitWorktreeInfo, error) {
	out, stderr, err := g.runner.Output(g.repoRoot, "git", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, &VersionControlError{Op: "worktree list", Output: stderr, Err: err}
	}
	return parseWorktreeList(out), nil
}

func parseWorktreeList(output string) []GitWorktreeInfo {
	var worktrees []GitWorktreeInfo
	var current *GitWorktreeInfo

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			current = nil
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		switch key {
		case "worktree":
			worktrees = append(worktrees, GitWorktreeInfo{Path: rest})
			current = &worktrees[len(worktrees)-1]
		case "HEAD":
			if current != nil {
				current.CommitHash = rest
			}
		case "branch":
			if current != nil {
				current.Branch = shortBranchName(rest)
			}
		case "detached":
			if current != nil && current.Branch == "" {
				current.Branch = "detached"
			}
		case "prunable":
			if current != nil {
				current.IsPrunable = true
			}
		}
	}
	for i := range worktrees {
		if worktrees[i].Branch == "" {
			worktrees[i].Branch = "detached"
		}
	}
	return worktrees
}

func shortBranchName(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "refs/heads/")
	value = strings.TrimPrefix(value, "refs/remotes/")
	if value == "" {
		return "detached"
	}
	return value
}

func (g *GitCLI) PruneWorktrees(dryRun bool) (PruneResult, error) {
	args := []string{"worktree", "prune", "--verbose"}
	if dryRun {
		args = append(args, "--dry-run")
	}
	out, stderr, err := g.runner.Output(g.repoRoot, "git", args...)
	if err != nil {
		return PruneResult{}, &VersionControlError{Op: "worktree prune", Output: stderr, Err: err}
	}
	// prune reports on stderr on some git versions; check both.
	return PruneResult{PrunedPaths: parsePruneOutput(out + "\n" + stderr)}, nil
}

// parsePruneOutput extracts worktree names from verbose prune lines, e.g.
// "Removing worktrees/app-feature-x: gitdir file points to non-existent location".
func parsePruneOutput(output string) []string {
	pruned := make([]string, 0)
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "Removing ") {
			continue
		}
		rest := strings.TrimPrefix(line, "Removing ")
		name, _, _ := strings.Cut(rest, ":")
		name = strings.TrimPrefix(strings.TrimSpace(name), "worktrees/")
		if name != "" {
			pruned = append(pruned, name)
		}
	}
	return pruned
}

func (g *GitCLI) ListTrackedFiles(dir string) ([]string, error) {
	out, stderr, err := g.runner.Output(dir, "git", "ls-files", "-z")
	if err != nil {
		return nil, &VersionControlError{Op: "ls-files", Output: stderr, Err: err}
	}
	return splitNulTerminated(out), nil
}

func (g *GitCLI) ListUntrackedFiles(dir string) ([]string, error) {
	out, stderr, err := g.runner.Output(dir, "git", "ls-files", "-z", "--others", "--exclude-standard", "--directory")
	if err != nil {
		return nil, &VersionControlError{Op: "ls-files --others", Output: stderr, Err: err}
	}
	paths := splitNulTerminated(out)
	for i, p := range paths {
		paths[i] = strings.TrimSuffix(p, "/")
	}
	return paths, nil
}

func splitNulTerminated(out string) []string {
	parts := strings.Split(out, "\x00")
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func (g *GitCLI) DeleteBranch(branch string, force bool) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return errors.New("branch name required")
	}
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, stderr, err := g.runner.Output(g.repoRoot, "git", "branch", flag, branch); err != nil {
		return &VersionControlError{Op: "branch " + flag, Output: stderr, Err: err}
	}
	return nil
}

func (g *GitCLI) BranchCheckedOutElsewhere(branch, excludePath string) (bool, error) {
	worktrees, err := g.ListWorktrees()
	if err != nil {
		return false, err
	}
	for _, wt := range worktrees {
		if wt.Branch == branch && wt.Path != excludePath {
			return true, nil
		}
	}
	return false, nil
}
