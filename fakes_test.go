package main

import (
	"errors"
	"os"
	"strings"
)

// fakeRunner records commands and replays canned responses, keyed by the
// joined argument list.
type fakeRunner struct {
	commands  []string
	responses map[string]fakeResponse
	lookPath  func(file string) (string, error)
}

type fakeResponse struct {
	stdout string
	stderr string
	err    error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

func (r *fakeRunner) LookPath(file string) (string, error) {
	if r.lookPath != nil {
		return r.lookPath(file)
	}
	return "/usr/bin/" + file, nil
}

func (r *fakeRunner) Output(dir string, name string, args ...string) (string, string, error) {
	key := name + " " + strings.Join(args, " ")
	r.commands = append(r.commands, key)
	if resp, ok := r.responses[key]; ok {
		return resp.stdout, resp.stderr, resp.err
	}
	return "", "", nil
}

type addCall struct {
	path   string
	branch string
	opts   AddWorktreeOptions
}

type removeCall struct {
	path  string
	force bool
}

// fakeGit is an in-memory VersionControl for orchestrator and sync tests.
type fakeGit struct {
	version    GitVersion
	versionErr error

	root          string
	currentBranch string
	branches      map[string]bool

	worktrees    []GitWorktreeInfo
	worktreesErr error

	tracked      []string
	trackedErr   error
	untracked    []string
	untrackedErr error

	pruneResults []PruneResult
	pruneErr     error
	pruneCalls   int

	addErr      error
	addCalls    []addCall
	mkdirOnAdd  bool
	removeErr   error
	removeCalls []removeCall

	dirty    map[string]bool
	dirtyErr error
	unpushed map[string]int

	deletedBranches []string
	deleteBranchErr error
}

func newFakeGit(root string) *fakeGit {
	return &fakeGit{
		version:       GitVersion{Major: 2, Minor: 40},
		root:          root,
		currentBranch: "main",
		branches:      map[string]bool{"main": true},
		dirty:         map[string]bool{},
		unpushed:      map[string]int{},
		mkdirOnAdd:    true,
	}
}

func (g *fakeGit) ToolVersion() (GitVersion, error) {
	if g.versionErr != nil {
		return GitVersion{}, g.versionErr
	}
	return g.version, nil
}

func (g *fakeGit) RepoRoot(string) (string, error) {
	if g.root == "" {
		return "", errNotInGitRepository
	}
	return g.root, nil
}

func (g *fakeGit) CurrentBranch(string) (string, error) {
	return g.currentBranch, nil
}

func (g *fakeGit) LocalBranchExists(branch string) (bool, error) {
	return g.branches[branch], nil
}

func (g *fakeGit) AddWorktree(path, branch string, opts AddWorktreeOptions) error {
	g.addCalls = append(g.addCalls, addCall{path: path, branch: branch, opts: opts})
	if g.addErr != nil {
		return g.addErr
	}
	if g.mkdirOnAdd {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}
	}
	g.worktrees = append(g.worktrees, GitWorktreeInfo{Path: path, Branch: branch})
	return nil
}

func (g *fakeGit) RemoveWorktree(path string, force bool) error {
	g.removeCalls = append(g.removeCalls, removeCall{path: path, force: force})
	if g.removeErr != nil {
		return g.removeErr
	}
	kept := g.worktrees[:0]
	for _, wt := range g.worktrees {
		if wt.Path != path {
			kept = append(kept, wt)
		}
	}
	g.worktrees = kept
	return nil
}

func (g *fakeGit) ListWorktrees() ([]GitWorktreeInfo, error) {
	if g.worktreesErr != nil {
		return nil, g.worktreesErr
	}
	return append([]GitWorktreeInfo{}, g.worktrees...), nil
}

func (g *fakeGit) PruneWorktrees(bool) (PruneResult, error) {
	g.pruneCalls++
	if g.pruneErr != nil {
		return PruneResult{}, g.pruneErr
	}
	if len(g.pruneResults) == 0 {
		return PruneResult{PrunedPaths: []string{}}, nil
	}
	result := g.pruneResults[0]
	g.pruneResults = g.pruneResults[1:]
	return result, nil
}

func (g *fakeGit) ListTrackedFiles(string) ([]string, error) {
	if g.trackedErr != nil {
		return nil, g.trackedErr
	}
	return append([]string{}, g.tracked...), nil
}

func (g *fakeGit) ListUntrackedFiles(string) ([]string, error) {
	if g.untrackedErr != nil {
		return nil, g.untrackedErr
	}
	return append([]string{}, g.untracked...), nil
}

func (g *fakeGit) HasUncommittedChanges(path string) (bool, error) {
	if g.dirtyErr != nil {
		return false, g.dirtyErr
	}
	return g.dirty[path], nil
}

func (g *fakeGit) UnpushedCommits(path, branch string) (int, error) {
	return g.unpushed[branch], nil
}

func (g *fakeGit) BranchCheckedOutElsewhere(branch, excludePath string) (bool, error) {
	for _, wt := range g.worktrees {
		if wt.Branch == branch && wt.Path != excludePath {
			return true, nil
		}
	}
	return false, nil
}

func (g *fakeGit) DeleteBranch(branch string, force bool) error {
	if g.deleteBranchErr != nil {
		return g.deleteBranchErr
	}
	g.deletedBranches = append(g.deletedBranches, branch)
	delete(g.branches, branch)
	return nil
}

var errFakeFailure = errors.New("injected failure")
