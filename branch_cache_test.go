package main

import (
	"testing"
)

func TestRecordRecentBranch_NewestFirst(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	repoRoot := "/repo/app"

	for _, b := range []string{"one", "two", "three"} {
		if err := recordRecentBranch(repoRoot, b); err != nil {
			t.Fatalf("record %q: %v", b, err)
		}
	}

	got, err := readRecentBranches(repoRoot, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"three", "two", "one"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRecordRecentBranch_MovesExistingToFront(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	repoRoot := "/repo/app"

	for _, b := range []string{"one", "two", "one"} {
		if err := recordRecentBranch(repoRoot, b); err != nil {
			t.Fatalf("record %q: %v", b, err)
		}
	}

	got, err := readRecentBranches(repoRoot, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("expected [one two], got %v", got)
	}
}

func TestRecordRecentBranch_IgnoresDetachedAndBlank(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	repoRoot := "/repo/app"

	if err := recordRecentBranch(repoRoot, "detached"); err != nil {
		t.Fatalf("record detached: %v", err)
	}
	if err := recordRecentBranch(repoRoot, "  "); err != nil {
		t.Fatalf("record blank: %v", err)
	}

	got, err := readRecentBranches(repoRoot, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty cache, got %v", got)
	}
}

func TestReadRecentBranches_MissingCacheIsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	got, err := readRecentBranches("/repo/other", 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestRecordRecentBranch_EnforcesLimit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	repoRoot := "/repo/app"

	for i := 0; i < recentBranchCacheLimit+5; i++ {
		if err := recordRecentBranch(repoRoot, "branch-"+string(rune('a'+i%26))+"-"+string(rune('0'+i/26))); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := readRecentBranches(repoRoot, recentBranchCacheLimit*2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) > recentBranchCacheLimit {
		t.Fatalf("expected at most %d entries, got %d", recentBranchCacheLimit, len(got))
	}
}

func TestFilterByPrefix(t *testing.T) {
	candidates := []string{"feature/login", "feature/logout", "fix/crash"}
	got := filterByPrefix(candidates, "feature/")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %v", got)
	}
	if all := filterByPrefix(candidates, ""); len(all) != 3 {
		t.Fatalf("expected all candidates for empty prefix, got %v", all)
	}
}
