package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"feature/login":        "feature-login",
		"Feature/ABC-123":      "feature-abc-123",
		"fix__double  spaces":  "fix-double-spaces",
		"--already-hyphened--": "already-hyphened",
		"UPPER":                "upper",
		"héllo wörld":          "h-llo-w-rld",
		"///":                  "",
	}
	for input, want := range cases {
		if got := slugify(input); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlugifyProducesOnlySafeRunes(t *testing.T) {
	inputs := []string{"a/B_c", "release:v1.2.3", "  padded  ", "Ünïcode/Brånch"}
	for _, input := range inputs {
		got := slugify(input)
		if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
			t.Fatalf("slugify(%q) = %q has a leading or trailing hyphen", input, got)
		}
		for _, r := range got {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
				t.Fatalf("slugify(%q) = %q contains %q", input, got, r)
			}
		}
	}
}

func TestResolveWorktreeName(t *testing.T) {
	if got := resolveWorktreeName("app", "app", "feature/login"); got != "app-feature-login" {
		t.Fatalf("expected project-prefixed name, got %q", got)
	}
	// The clone directory encodes the branch, so no prefix is applied.
	if got := resolveWorktreeName("main", "", "feature/login"); got != "feature-login" {
		t.Fatalf("expected bare slug, got %q", got)
	}
	// A branch with nothing slug-safe must not yield a dangling separator.
	for _, branch := range []string{"_", "///", "  "} {
		if got := resolveWorktreeName("app", "app", branch); got != "" {
			t.Fatalf("resolveWorktreeName(%q) = %q, want empty", branch, got)
		}
	}
}

func TestResolveWorktreePathIsSibling(t *testing.T) {
	root := filepath.Join("/home", "dev", "app")
	got := resolveWorktreePath(root, "app-feature-login")
	want := filepath.Join("/home", "dev", "app-feature-login")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if strings.HasPrefix(got, root+string(filepath.Separator)) {
		t.Fatalf("worktree path %q must not nest inside the repository", got)
	}
}
