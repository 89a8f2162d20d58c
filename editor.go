package main

import (
	"os/exec"
	"sort"
	"strings"
)

type Editor string

const (
	EditorVSCode   Editor = "vscode"
	EditorCursor   Editor = "cursor"
	EditorZed      Editor = "zed"
	EditorWindsurf Editor = "windsurf"
	EditorSublime  Editor = "sublime"
)

type editorCommand struct {
	binary     string
	newWindow  string
	sameWindow string
}

// editorCommands maps each supported editor to its launcher binary and its
// new-window / reuse-window flags.
var editorCommands = map[Editor]editorCommand{
	EditorVSCode:   {binary: "code", newWindow: "--new-window", sameWindow: "--reuse-window"},
	EditorCursor:   {binary: "cursor", newWindow: "--new-window", sameWindow: "--reuse-window"},
	EditorWindsurf: {binary: "windsurf", newWindow: "--new-window", sameWindow: "--reuse-window"},
	EditorZed:      {binary: "zed", newWindow: "--new", sameWindow: ""},
	EditorSublime:  {binary: "subl", newWindow: "--new-window", sameWindow: ""},
}

func isSupportedEditor(e Editor) bool {
	_, ok := editorCommands[e]
	return ok
}

func supportedEditorNames() string {
	names := make([]string, 0, len(editorCommands))
	for e := range editorCommands {
		names = append(names, string(e))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

type EditorInfo struct {
	Editor Editor
	Binary string
	Path   string
}

type lookPathFunc func(file string) (string, error)

type EditorLauncher struct {
	lookPath lookPathFunc
	start    func(name string, args ...string) error
}

func NewEditorLauncher() *EditorLauncher {
	return &EditorLauncher{
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// startDetached spawns the editor and releases the process so the launch
// never blocks or reaps the editor.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func (l *EditorLauncher) DetectAvailable() []EditorInfo {
	available := make([]EditorInfo, 0, len(editorCommands))
	for editor, spec := range editorCommands {
		path, err := l.lookPath(spec.binary)
		if err != nil {
			continue
		}
		available = append(available, EditorInfo{Editor: editor, Binary: spec.binary, Path: path})
	}
	sort.Slice(available, func(i, j int) bool { return available[i].Editor < available[j].Editor })
	return available
}

func editorArgs(spec editorCommand, worktreePath string, newWindow bool) []string {
	args := make([]string, 0, 2)
	if newWindow && spec.newWindow != "" {
		args = append(args, spec.newWindow)
	}
	if !newWindow && spec.sameWindow != "" {
		args = append(args, spec.sameWindow)
	}
	return append(args, worktreePath)
}

// Launch starts the editor pointed at the worktree and returns as soon as
// the process is spawned. Failure here is always non-fatal to the caller.
func (l *EditorLauncher) Launch(editor Editor, worktreePath string, newWindow bool) error {
	spec, ok := editorCommands[editor]
	if !ok {
		return &EditorLaunchError{Editor: editor, Err: errUnknownEditor}
	}
	bin, err := l.lookPath(spec.binary)
	if err != nil {
		return &EditorLaunchError{Editor: editor, Err: err}
	}
	if err := l.start(bin, editorArgs(spec, worktreePath, newWindow)...); err != nil {
		return &EditorLaunchError{Editor: editor, Err: err}
	}
	return nil
}
