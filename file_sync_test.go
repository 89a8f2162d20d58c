package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestApplyRulesCopyAndSymlinkScenario(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		".env":                  "SECRET=1",
		"README.md":             "# app",
		"node_modules/pkg/x.js": "module.exports = 1",
	})

	git := newFakeGit(src)
	git.tracked = []string{".env", "README.md"}
	git.untracked = []string{"node_modules"}

	engine := NewFileSyncEngine(git)
	rules := []FileRule{
		{Pattern: "*.env", Action: ActionCopy},
		{Pattern: "node_modules", Action: ActionSymlink},
	}
	result, err := engine.ApplyRules(context.Background(), src, dst, rules, true)
	require.NoError(t, err)

	assert.Equal(t, []string{".env"}, result.Copied)
	assert.Equal(t, []string{"node_modules"}, result.Symlinked)
	assert.Empty(t, result.Errors)

	copied, err := os.ReadFile(filepath.Join(dst, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "SECRET=1", string(copied))

	// README matched no rule and must be left untouched.
	_, statErr := os.Stat(filepath.Join(dst, "README.md"))
	assert.True(t, os.IsNotExist(statErr))

	// The symlink target is relative so the tree survives a move.
	target, err := os.Readlink(filepath.Join(dst, "node_modules"))
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target))
	through, err := os.ReadFile(filepath.Join(dst, "node_modules", "pkg", "x.js"))
	require.NoError(t, err)
	assert.Equal(t, "module.exports = 1", string(through))
}

func TestApplyRulesFirstMatchWins(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{".env": "A"})

	git := newFakeGit(src)
	git.tracked = []string{".env"}

	engine := NewFileSyncEngine(git)
	rules := []FileRule{
		{Pattern: "*.env", Action: ActionIgnore},
		{Pattern: "*.env", Action: ActionCopy},
	}
	result, err := engine.ApplyRules(context.Background(), src, dst, rules, false)
	require.NoError(t, err)

	assert.Empty(t, result.Copied, "a path claimed by an earlier rule must not reach a later one")
	_, statErr := os.Stat(filepath.Join(dst, ".env"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplyRulesDirectoryPatternClaimsContents(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		"config/dev.json":  "{}",
		"config/prod.json": "{}",
	})

	git := newFakeGit(src)
	git.tracked = []string{"config/dev.json", "config/prod.json"}

	engine := NewFileSyncEngine(git)
	rules := []FileRule{
		{Pattern: "config", Action: ActionCopy},
		{Pattern: "config/prod.json", Action: ActionIgnore},
	}
	result, err := engine.ApplyRules(context.Background(), src, dst, rules, false)
	require.NoError(t, err)

	// Both files sit under config/, so the first rule claims them before the
	// ignore rule is consulted.
	assert.ElementsMatch(t, []string{"config/dev.json", "config/prod.json"}, result.Copied)
}

func TestApplyRulesMissingCopySourceIsNonFatal(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"kept.txt": "x"})

	git := newFakeGit(src)
	git.tracked = []string{"kept.txt", "deleted.txt"}

	engine := NewFileSyncEngine(git)
	rules := []FileRule{{Pattern: "*", Action: ActionCopy}}
	result, err := engine.ApplyRules(context.Background(), src, dst, rules, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"kept.txt"}, result.Copied)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "deleted.txt", result.Errors[0].Path)
}

func TestApplyRulesMissingSymlinkSourceIsSkippedSilently(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	git := newFakeGit(src)
	git.untracked = []string{"cache"}

	engine := NewFileSyncEngine(git)
	rules := []FileRule{{Pattern: "cache", Action: ActionSymlink}}
	result, err := engine.ApplyRules(context.Background(), src, dst, rules, true)
	require.NoError(t, err)

	assert.Empty(t, result.Symlinked)
	assert.Empty(t, result.Errors)
}

func TestApplyRulesUntrackedEnumerationFailureIsNonFatal(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{".env": "A"})

	git := newFakeGit(src)
	git.tracked = []string{".env"}
	git.untrackedErr = errFakeFailure

	engine := NewFileSyncEngine(git)
	rules := []FileRule{{Pattern: "*.env", Action: ActionCopy}}
	result, err := engine.ApplyRules(context.Background(), src, dst, rules, true)
	require.NoError(t, err)
	assert.Equal(t, []string{".env"}, result.Copied)
}

func TestApplyRulesTrackedEnumerationFailureIsFatal(t *testing.T) {
	git := newFakeGit("")
	git.trackedErr = errFakeFailure

	engine := NewFileSyncEngine(git)
	_, err := engine.ApplyRules(context.Background(), t.TempDir(), t.TempDir(), nil, false)
	require.ErrorIs(t, err, errFakeFailure)
}

func TestCopyPreservesPermissions(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	script := filepath.Join(src, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))

	git := newFakeGit(src)
	git.tracked = []string{"run.sh"}

	engine := NewFileSyncEngine(git)
	rules := []FileRule{{Pattern: "*.sh", Action: ActionCopy}}
	result, err := engine.ApplyRules(context.Background(), src, dst, rules, false)
	require.NoError(t, err)
	require.Equal(t, []string{"run.sh"}, result.Copied)

	info, err := os.Stat(filepath.Join(dst, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestApplyRulesManyFilesBoundedCopy(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	tracked := make([]string, 0, 60)
	files := map[string]string{}
	for i := 0; i < 60; i++ {
		name := filepath.Join("a", "b", "f"+string(rune('a'+i%26))+".env")
		name = filepath.ToSlash(name) + string(rune('0'+i%10))
		files[name] = "x"
		tracked = append(tracked, name)
	}
	writeTree(t, src, files)

	git := newFakeGit(src)
	git.tracked = tracked

	engine := NewFileSyncEngine(git)
	result, err := engine.ApplyRules(context.Background(), src, dst, []FileRule{{Pattern: "a/b/*", Action: ActionCopy}}, false)
	require.NoError(t, err)
	assert.Len(t, result.Copied, len(files))
	assert.Empty(t, result.Errors)
}
