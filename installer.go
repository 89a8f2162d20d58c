package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

type PackageManager string

const (
	PackageManagerAuto PackageManager = "auto"
	PackageManagerNpm  PackageManager = "npm"
	PackageManagerYarn PackageManager = "yarn"
	PackageManagerPnpm PackageManager = "pnpm"
	PackageManagerBun  PackageManager = "bun"
)

func isSupportedPackageManager(pm PackageManager) bool {
	switch pm {
	case PackageManagerAuto, PackageManagerNpm, PackageManagerYarn, PackageManagerPnpm, PackageManagerBun:
		return true
	}
	return false
}

// lockfileMarkers is the detection priority order. The first lockfile found
// decides the manager.
var lockfileMarkers = []struct {
	file string
	pm   PackageManager
}{
	{"bun.lockb", PackageManagerBun},
	{"bun.lock", PackageManagerBun},
	{"pnpm-lock.yaml", PackageManagerPnpm},
	{"yarn.lock", PackageManagerYarn},
	{"package-lock.json", PackageManagerNpm},
}

func detectPackageManager(projectPath string) PackageManager {
	for _, marker := range lockfileMarkers {
		if _, err := os.Stat(filepath.Join(projectPath, marker.file)); err == nil {
			return marker.pm
		}
	}
	if pm := manifestPackageManager(projectPath); pm != "" {
		return pm
	}
	// npm is the lowest common denominator.
	return PackageManagerNpm
}

// manifestPackageManager reads the `packageManager` field of package.json,
// e.g. "pnpm@9.1.0".
func manifestPackageManager(projectPath string) PackageManager {
	data, err := os.ReadFile(filepath.Join(projectPath, "package.json"))
	if err != nil {
		return ""
	}
	var manifest struct {
		PackageManager string `json:"packageManager"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimSpace(manifest.PackageManager), "@")
	switch pm := PackageManager(name); pm {
	case PackageManagerNpm, PackageManagerYarn, PackageManagerPnpm, PackageManagerBun:
		return pm
	}
	return ""
}

type InstallResult struct {
	Success  bool
	Duration time.Duration
	Output   string
}

type ProgressFunc func(line string)

// installDependencies runs the manager's install command in the worktree and
// streams each output line to onProgress as it arrives. It blocks until the
// process exits.
func installDependencies(ctx context.Context, worktreePath string, pm PackageManager, onProgress ProgressFunc) (InstallResult, error) {
	if pm == PackageManagerAuto {
		pm = detectPackageManager(worktreePath)
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, string(pm), "install")
	cmd.Dir = worktreePath
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return InstallResult{}, err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return InstallResult{}, &DependencyInstallError{PackageManager: pm, Err: err}
	}

	var captured strings.Builder
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		captured.WriteString(line)
		captured.WriteByte('\n')
		if onProgress != nil {
			onProgress(line)
		}
	}

	waitErr := cmd.Wait()
	result := InstallResult{
		Success:  waitErr == nil,
		Duration: time.Since(start),
		Output:   captured.String(),
	}
	if waitErr != nil {
		return result, &DependencyInstallError{PackageManager: pm, Output: result.Output, Err: waitErr}
	}
	return result, nil
}

// installErrorSignatures maps known failure fingerprints in raw installer
// output to actionable messages.
var installErrorSignatures = []struct {
	needles []string
	message string
}{
	{[]string{"enospc", "no space left on device"}, "the disk is full; free up space and rerun the install"},
	{[]string{"eacces", "eperm", "permission denied"}, "permission denied; check ownership of the project and the package cache"},
	{[]string{"etimedout", "enotfound", "econnrefused", "econnreset", "network"}, "a network error occurred; check your connection or registry configuration"},
	{[]string{"frozen-lockfile", "frozen lockfile", "eresolve", "lockfile"}, "the lockfile does not match package.json; update the lockfile and retry"},
}

func interpretInstallError(rawOutput string, pm PackageManager) string {
	lowered := strings.ToLower(rawOutput)
	for _, sig := range installErrorSignatures {
		for _, needle := range sig.needles {
			if strings.Contains(lowered, needle) {
				return sig.message
			}
		}
	}
	trimmed := strings.TrimSpace(rawOutput)
	if trimmed == "" {
		return string(pm) + " install failed with no output"
	}
	return "install failed: " + trimmed
}
