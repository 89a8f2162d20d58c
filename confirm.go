package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func arborHuhTheme() *huh.Theme {
	t := *huh.ThemeCharm()
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(lipgloss.Color("#2E7D32"))
	t.Focused.Next = t.Focused.FocusedButton
	return &t
}

func newApprovalForm(branch *string, accepted *bool) *huh.Form {
	input := huh.NewInput().
		Title("Branch name").
		Description("Edit the branch name or accept it as-is").
		Value(branch)
	confirm := huh.NewConfirm().
		Title("Create worktree for this branch?").
		Affirmative("Create").
		Negative("Cancel").
		Value(accepted)
	return huh.NewForm(huh.NewGroup(input, confirm)).
		WithTheme(arborHuhTheme()).
		WithShowHelp(false)
}

func newConfirmForm(title string, description string, result *bool) *huh.Form {
	confirm := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(result)
	return huh.NewForm(huh.NewGroup(confirm)).
		WithTheme(arborHuhTheme()).
		WithShowHelp(false)
}

// interactiveApproval is the pre-creation gate: the user may accept, edit or
// cancel the proposed branch name. Cancellation must leave no side effects,
// so it runs before any mutation.
func interactiveApproval(branch string) (string, bool, error) {
	if testModeEnabled() {
		return branch, true, nil
	}
	name := branch
	accepted := false
	form := newApprovalForm(&name, &accepted)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(name), accepted, nil
}

func interactiveRemovalConfirm(path string, warnings []string) (bool, error) {
	if testModeEnabled() {
		return true, nil
	}
	description := path
	if len(warnings) > 0 {
		description += "\n" + strings.Join(warnings, "\n")
	}
	confirmed := false
	form := newConfirmForm("Remove this worktree?", description, &confirmed)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}
