package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// go-git backs the read-only repository queries. Worktree lifecycle commands
// always go through the git binary: go-git linked-worktree support is
// incomplete, so anything running inside a linked worktree falls back to the
// binary as well.

func isLinkedWorktreeDir(dir string) bool {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return false
	}
	dotGit := filepath.Join(dir, ".git")
	info, err := os.Stat(dotGit)
	if err != nil || info.IsDir() {
		return false
	}
	data, err := os.ReadFile(dotGit)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(data)), "gitdir:")
}

func (g *GitCLI) HasUncommittedChanges(path string) (bool, error) {
	if isLinkedWorktreeDir(path) {
		out, stderr, err := g.runner.Output(path, "git", "status", "--porcelain")
		if err != nil {
			return false, &VersionControlError{Op: "status", Output: stderr, Err: err}
		}
		return strings.TrimSpace(out) != "", nil
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}

const unpushedCountCap = 1000

// UnpushedCommits counts commits on branch that are not on its origin
// counterpart. A branch with no remote counterpart reports every local
// commit, capped.
func (g *GitCLI) UnpushedCommits(path, branch string) (int, error) {
	if isLinkedWorktreeDir(path) {
		out, stderr, err := g.runner.Output(path, "git", "rev-list", "--count", "origin/"+branch+"..HEAD")
		if err != nil {
			// No upstream ref; count the whole branch instead.
			out, stderr, err = g.runner.Output(path, "git", "rev-list", "--count", "HEAD")
			if err != nil {
				return 0, &VersionControlError{Op: "rev-list", Output: stderr, Err: err}
			}
		}
		n := 0
		for _, r := range strings.TrimSpace(out) {
			if r < '0' || r > '9' {
				return 0, nil
			}
			n = n*10 + int(r-'0')
		}
		return n, nil
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return 0, err
	}
	localRef, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return 0, err
	}
	var remoteHash plumbing.Hash
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err == nil {
		remoteHash = remoteRef.Hash()
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return 0, err
	}
	if remoteHash == localRef.Hash() {
		return 0, nil
	}

	iter, err := repo.Log(&git.LogOptions{From: localRef.Hash()})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == remoteHash {
			return storer.ErrStop
		}
		count++
		if count >= unpushedCountCap {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
