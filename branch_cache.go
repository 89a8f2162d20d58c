package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const recentBranchCacheLimit = 40

type recentBranchCache struct {
	Branches []string `json:"branches"`
}

func arborHomeDir() (string, error) {
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return "", errors.New("HOME not set")
	}
	return filepath.Join(home, ".arbor"), nil
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func recentBranchCachePath(repoRoot string) (string, error) {
	repoRoot = strings.TrimSpace(repoRoot)
	if repoRoot == "" {
		return "", errors.New("repo root required")
	}
	home, err := arborHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "cache", "recent_branches", hashString(repoRoot)+".json"), nil
}

// readRecentBranches returns up to limit branches, most recent first, with
// blanks and duplicates dropped. A missing cache file is an empty cache.
func readRecentBranches(repoRoot string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	path, err := recentBranchCachePath(repoRoot)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	var cache recentBranchCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	out := make([]string, 0, min(limit, len(cache.Branches)))
	seen := make(map[string]bool, len(cache.Branches))
	for _, raw := range cache.Branches {
		b := strings.TrimSpace(raw)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func writeRecentBranches(repoRoot string, branches []string) error {
	path, err := recentBranchCachePath(repoRoot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := recentBranchCache{Branches: branches}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// recordRecentBranch moves branch to the front of the per-repo cache that
// feeds shell completion.
func recordRecentBranch(repoRoot string, branch string) error {
	repoRoot = strings.TrimSpace(repoRoot)
	branch = strings.TrimSpace(branch)
	if repoRoot == "" || branch == "" || branch == "detached" {
		return nil
	}
	recent, err := readRecentBranches(repoRoot, recentBranchCacheLimit)
	if err != nil {
		return err
	}
	merged := make([]string, 0, len(recent)+1)
	merged = append(merged, branch)
	for _, b := range recent {
		if b == branch {
			continue
		}
		merged = append(merged, b)
		if len(merged) >= recentBranchCacheLimit {
			break
		}
	}
	return writeRecentBranches(repoRoot, merged)
}
