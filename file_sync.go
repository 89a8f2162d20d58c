package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// defaultCopyConcurrency caps parallel file copies so large trees cannot
// exhaust file descriptors.
const defaultCopyConcurrency = 10

type SyncError struct {
	Path string
	Err  error
}

type SyncResult struct {
	Copied    []string
	Symlinked []string
	Errors    []SyncError
}

type FileSyncEngine struct {
	git       VersionControl
	copyLimit int
}

func NewFileSyncEngine(git VersionControl) *FileSyncEngine {
	return &FileSyncEngine{git: git, copyLimit: defaultCopyConcurrency}
}

type ruleMatch struct {
	action RuleAction
	paths  []string
}

// ApplyRules evaluates the ordered rule list against the source tree and
// materializes matches into dst. Paths matched by no rule are left alone.
// Per-path failures are collected, not fatal.
func (e *FileSyncEngine) ApplyRules(ctx context.Context, src, dst string, rules []FileRule, includeUntracked bool) (SyncResult, error) {
	candidates, err := e.candidatePaths(src, includeUntracked)
	if err != nil {
		return SyncResult{}, err
	}
	matches := matchRules(rules, candidates)

	// Copies run before symlinks so a linked directory can never shadow a
	// path a later copy needs.
	result := SyncResult{Copied: []string{}, Symlinked: []string{}, Errors: []SyncError{}}
	for _, m := range matches {
		if m.action == ActionCopy {
			e.runCopies(ctx, src, dst, m.paths, &result)
		}
	}
	for _, m := range matches {
		if m.action == ActionSymlink {
			runSymlinks(src, dst, m.paths, &result)
		}
	}
	sort.Strings(result.Copied)
	sort.Strings(result.Symlinked)
	return result, nil
}

func (e *FileSyncEngine) candidatePaths(src string, includeUntracked bool) ([]string, error) {
	tracked, err := e.git.ListTrackedFiles(src)
	if err != nil {
		return nil, err
	}
	paths := append([]string{}, tracked...)
	if includeUntracked {
		// Enumeration failure here is expected outside a proper checkout;
		// fall back to the tracked set alone.
		if untracked, err := e.git.ListUntrackedFiles(src); err == nil {
			paths = append(paths, untracked...)
		}
	}
	return paths, nil
}

// matchRules applies first-match-wins: each rule claims the candidates its
// pattern matches and removes them from consideration by later rules.
func matchRules(rules []FileRule, candidates []string) []ruleMatch {
	remaining := append([]string{}, candidates...)
	matches := make([]ruleMatch, 0, len(rules))
	for _, rule := range rules {
		matcher := compileRulePattern(rule.Pattern)
		claimed := make([]string, 0)
		rest := remaining[:0]
		for _, path := range remaining {
			if matcher(path) {
				claimed = append(claimed, path)
			} else {
				rest = append(rest, path)
			}
		}
		remaining = rest
		if rule.Action == ActionIgnore || len(claimed) == 0 {
			continue
		}
		matches = append(matches, ruleMatch{action: rule.Action, paths: claimed})
	}
	return matches
}

// compileRulePattern builds a predicate for one rule. A pattern matches a
// path when the glob matches it, when it equals the path literally, or when
// the path sits underneath the pattern as a directory.
func compileRulePattern(pattern string) func(string) bool {
	pattern = strings.TrimSuffix(strings.TrimSpace(pattern), "/")
	g, err := glob.Compile(pattern, '/')
	prefix := pattern + "/"
	return func(path string) bool {
		if path == pattern || strings.HasPrefix(path, prefix) {
			return true
		}
		return err == nil && g.Match(path)
	}
}

func (e *FileSyncEngine) runCopies(ctx context.Context, src, dst string, paths []string, result *SyncResult) {
	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.copyLimit)

	for _, rel := range paths {
		group.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err := copyPath(filepath.Join(src, rel), filepath.Join(dst, rel))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Includes missing sources: recorded, never fatal.
				result.Errors = append(result.Errors, SyncError{Path: rel, Err: err})
			} else {
				result.Copied = append(result.Copied, rel)
			}
			return nil
		})
	}
	_ = group.Wait()
}

func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return copyDir(src, dst)
	}
	return copyFile(src, dst, info.Mode())
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func runSymlinks(src, dst string, paths []string, result *SyncResult) {
	for _, rel := range paths {
		srcPath := filepath.Join(src, rel)
		dstPath := filepath.Join(dst, rel)
		if _, err := os.Lstat(srcPath); errors.Is(err, os.ErrNotExist) {
			// Symlink sources that are not there yet (dependency caches and
			// the like) are skipped without comment.
			continue
		}
		if _, err := os.Lstat(dstPath); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
			result.Errors = append(result.Errors, SyncError{Path: rel, Err: err})
			continue
		}
		// Relative targets keep links valid if the repository moves.
		target, err := filepath.Rel(filepath.Dir(dstPath), srcPath)
		if err != nil {
			result.Errors = append(result.Errors, SyncError{Path: rel, Err: err})
			continue
		}
		if err := os.Symlink(target, dstPath); err != nil {
			result.Errors = append(result.Errors, SyncError{Path: rel, Err: err})
			continue
		}
		result.Symlinked = append(result.Symlinked, rel)
	}
}
