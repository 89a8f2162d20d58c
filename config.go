package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

const (
	configSchemaVersion = 2
	configRelPath       = ".arbor/config.json"
)

type RuleAction string

const (
	ActionCopy    RuleAction = "copy"
	ActionSymlink RuleAction = "symlink"
	ActionIgnore  RuleAction = "ignore"
)

// FileRule pairs a glob (or literal relative path) with the action to take
// for paths it matches. Rules are evaluated in order; first match wins.
type FileRule struct {
	Pattern string     `json:"pattern"`
	Action  RuleAction `json:"action"`
}

type WorktreeConfig struct {
	Enabled               bool
	WorktreeBasePath      string
	BranchPrefix          string
	Editor                Editor
	EditorAutoLaunch      bool
	EditorNewWindow       bool
	DependencyAutoInstall bool
	PackageManager        PackageManager
	FileRules             []FileRule
	IncludeUntracked      bool
}

func DefaultWorktreeConfig() WorktreeConfig {
	return WorktreeConfig{
		Enabled:               false,
		Editor:                EditorVSCode,
		EditorAutoLaunch:      true,
		EditorNewWindow:       true,
		DependencyAutoInstall: true,
		PackageManager:        PackageManagerAuto,
		FileRules:             []FileRule{},
		IncludeUntracked:      false,
	}
}

// configDocument is the persisted shape. The runtime WorktreeConfig is kept
// flat; the document nests related settings under a versioned top level.
type configDocument struct {
	Version  int            `json:"version"`
	Worktree worktreeConfig `json:"worktree"`
}

type worktreeConfig struct {
	Enabled      bool         `json:"enabled"`
	WorktreePath string       `json:"worktreePath,omitempty"`
	BranchPrefix string       `json:"branchPrefix,omitempty"`
	Editor       editorConfig `json:"editor"`
	Dependencies depsConfig   `json:"dependencies"`
	Files        filesConfig  `json:"files"`
}

type editorConfig struct {
	Name       string `json:"name"`
	AutoLaunch bool   `json:"autoLaunch"`
	NewWindow  bool   `json:"newWindow"`
}

type depsConfig struct {
	AutoInstall    bool   `json:"autoInstall"`
	PackageManager string `json:"packageManager"`
}

type filesConfig struct {
	Rules            []FileRule `json:"rules"`
	IncludeUntracked bool       `json:"includeUntracked"`
}

func configFilePath(repoPath string) string {
	return filepath.Join(repoPath, filepath.FromSlash(configRelPath))
}

// LoadConfig never fails on a missing file; absence means all defaults with
// the worktree feature disabled.
func LoadConfig(repoPath string) (WorktreeConfig, error) {
	path := configFilePath(repoPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultWorktreeConfig(), nil
	}
	if err != nil {
		return WorktreeConfig{}, err
	}
	doc, err := decodeConfigDocument(path, data)
	if err != nil {
		return WorktreeConfig{}, err
	}
	cfg := configFromDocument(doc)
	if verr := validateConfig(path, cfg); verr != nil {
		return WorktreeConfig{}, verr
	}
	return cfg, nil
}

func SaveConfig(repoPath string, cfg WorktreeConfig) error {
	path := configFilePath(repoPath)
	if verr := validateConfig(path, cfg); verr != nil {
		return verr
	}
	doc := documentFromConfig(cfg)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data, 0o644)
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place, so a crash mid-write cannot corrupt an existing file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func decodeConfigDocument(path string, data []byte) (configDocument, error) {
	// Decode over a default-populated document so settings the file omits
	// keep their documented defaults rather than Go zero values.
	doc := documentFromConfig(DefaultWorktreeConfig())
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return configDocument{}, &ConfigValidationError{
			Path:   path,
			Fields: []FieldError{{Field: "(document)", Message: err.Error()}},
		}
	}
	return doc, nil
}

func configFromDocument(doc configDocument) WorktreeConfig {
	cfg := DefaultWorktreeConfig()
	cfg.Enabled = doc.Worktree.Enabled
	cfg.WorktreeBasePath = strings.TrimSpace(doc.Worktree.WorktreePath)
	cfg.BranchPrefix = strings.TrimSpace(doc.Worktree.BranchPrefix)
	if name := strings.TrimSpace(doc.Worktree.Editor.Name); name != "" {
		cfg.Editor = Editor(name)
	}
	cfg.EditorAutoLaunch = doc.Worktree.Editor.AutoLaunch
	cfg.EditorNewWindow = doc.Worktree.Editor.NewWindow
	cfg.DependencyAutoInstall = doc.Worktree.Dependencies.AutoInstall
	if pm := strings.TrimSpace(doc.Worktree.Dependencies.PackageManager); pm != "" {
		cfg.PackageManager = PackageManager(pm)
	}
	if doc.Worktree.Files.Rules != nil {
		cfg.FileRules = doc.Worktree.Files.Rules
	}
	cfg.IncludeUntracked = doc.Worktree.Files.IncludeUntracked
	return cfg
}

func documentFromConfig(cfg WorktreeConfig) configDocument {
	return configDocument{
		Version: configSchemaVersion,
		Worktree: worktreeConfig{
			Enabled:      cfg.Enabled,
			WorktreePath: cfg.WorktreeBasePath,
			BranchPrefix: cfg.BranchPrefix,
			Editor: editorConfig{
				Name:       string(cfg.Editor),
				AutoLaunch: cfg.EditorAutoLaunch,
				NewWindow:  cfg.EditorNewWindow,
			},
			Dependencies: depsConfig{
				AutoInstall:    cfg.DependencyAutoInstall,
				PackageManager: string(cfg.PackageManager),
			},
			Files: filesConfig{
				Rules:            cfg.FileRules,
				IncludeUntracked: cfg.IncludeUntracked,
			},
		},
	}
}

func validateConfig(path string, cfg WorktreeConfig) error {
	var fields []FieldError
	if !isSupportedEditor(cfg.Editor) {
		fields = append(fields, FieldError{
			Field:   "worktree.editor.name",
			Message: fmt.Sprintf("unsupported editor %q (supported: %s)", cfg.Editor, supportedEditorNames()),
		})
	}
	if !isSupportedPackageManager(cfg.PackageManager) {
		fields = append(fields, FieldError{
			Field:   "worktree.dependencies.packageManager",
			Message: fmt.Sprintf("unsupported package manager %q", cfg.PackageManager),
		})
	}
	if strings.ContainsRune(cfg.WorktreeBasePath, 0) {
		fields = append(fields, FieldError{
			Field:   "worktree.worktreePath",
			Message: "contains invalid characters",
		})
	}
	for i, rule := range cfg.FileRules {
		field := fmt.Sprintf("worktree.files.rules[%d]", i)
		if strings.TrimSpace(rule.Pattern) == "" {
			fields = append(fields, FieldError{Field: field + ".pattern", Message: "pattern must not be empty"})
		} else if _, err := glob.Compile(rule.Pattern, '/'); err != nil {
			fields = append(fields, FieldError{Field: field + ".pattern", Message: "invalid glob: " + err.Error()})
		}
		switch rule.Action {
		case ActionCopy, ActionSymlink, ActionIgnore:
		default:
			fields = append(fields, FieldError{
				Field:   field + ".action",
				Message: fmt.Sprintf("unknown action %q (want copy, symlink or ignore)", rule.Action),
			})
		}
	}
	if len(fields) > 0 {
		return &ConfigValidationError{Path: path, Fields: fields}
	}
	return nil
}

// MigrateConfig upgrades a persisted document to the current schema version,
// one step at a time, and re-saves. Missing file and current version are
// both no-ops.
func MigrateConfig(repoPath string) error {
	path := configFilePath(repoPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ConfigValidationError{
			Path:   path,
			Fields: []FieldError{{Field: "(document)", Message: err.Error()}},
		}
	}
	version := 1
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return &ConfigValidationError{
				Path:   path,
				Fields: []FieldError{{Field: "version", Message: "must be a number"}},
			}
		}
	}
	if version == configSchemaVersion {
		return nil
	}
	if version > configSchemaVersion {
		return fmt.Errorf("config schema version %d is newer than supported version %d; upgrade arbor", version, configSchemaVersion)
	}

	for ; version < configSchemaVersion; version++ {
		step, ok := configMigrations[version]
		if !ok {
			return fmt.Errorf("no migration from config schema version %d", version)
		}
		if raw, err = step(raw); err != nil {
			return fmt.Errorf("migrating config from version %d: %w", version, err)
		}
	}
	raw["version"] = json.RawMessage(fmt.Sprintf("%d", configSchemaVersion))

	migrated, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	migrated = append(migrated, '\n')
	return writeFileAtomic(path, migrated, 0o644)
}

var configMigrations = map[int]func(map[string]json.RawMessage) (map[string]json.RawMessage, error){
	1: migrateConfigV1,
}

// migrateConfigV1 converts the flat v1 worktree section, where `editor` was a
// bare string and `autoInstall` a top-level bool, into the nested v2 shape.
func migrateConfigV1(raw map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	wtRaw, ok := raw["worktree"]
	if !ok {
		return raw, nil
	}
	var wt map[string]json.RawMessage
	if err := json.Unmarshal(wtRaw, &wt); err != nil {
		return nil, err
	}

	editorName := string(EditorVSCode)
	if v, ok := wt["editor"]; ok {
		// v1 stored a bare string; leave a v2-shaped object alone.
		var name string
		if err := json.Unmarshal(v, &name); err == nil {
			editorName = name
		} else {
			return raw, nil
		}
	}
	autoInstall := true
	if v, ok := wt["autoInstall"]; ok {
		if err := json.Unmarshal(v, &autoInstall); err != nil {
			return nil, err
		}
		delete(wt, "autoInstall")
	}
	pm := string(PackageManagerAuto)
	if v, ok := wt["packageManager"]; ok {
		if err := json.Unmarshal(v, &pm); err != nil {
			return nil, err
		}
		delete(wt, "packageManager")
	}

	editorObj, err := json.Marshal(editorConfig{Name: editorName, AutoLaunch: true, NewWindow: true})
	if err != nil {
		return nil, err
	}
	depsObj, err := json.Marshal(depsConfig{AutoInstall: autoInstall, PackageManager: pm})
	if err != nil {
		return nil, err
	}
	wt["editor"] = editorObj
	wt["dependencies"] = depsObj
	if _, ok := wt["files"]; !ok {
		filesObj, err := json.Marshal(filesConfig{Rules: []FileRule{}})
		if err != nil {
			return nil, err
		}
		wt["files"] = filesObj
	}

	merged, err := json.Marshal(wt)
	if err != nil {
		return nil, err
	}
	raw["worktree"] = merged
	return raw, nil
}
