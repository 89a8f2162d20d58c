package main

import (
	"path/filepath"
	"strings"
)

// slugify lowers the branch name and collapses every run of characters
// outside [a-z0-9] into a single hyphen.
func slugify(branch string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(branch)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// resolveWorktreeName picks the directory name for a branch's worktree.
// When the repository directory carries the project name, the slug is
// prefixed with it; when the directory itself encodes the checked-out branch
// (e.g. a clone named "main"), the bare slug is used. A branch with no
// slug-safe characters yields the empty string; callers must reject it
// rather than create a name with a dangling separator.
func resolveWorktreeName(repoDirName, repoLogicalName, branchName string) string {
	slug := slugify(branchName)
	if slug == "" {
		return ""
	}
	if repoDirName == repoLogicalName {
		return repoLogicalName + "-" + slug
	}
	return slug
}

// resolveWorktreePath places worktrees as siblings of the main repository
// directory, never inside it.
func resolveWorktreePath(repoRoot, worktreeName string) string {
	return filepath.Join(filepath.Dir(repoRoot), worktreeName)
}
