package main

import (
	"bytes"
	"os/exec"
	"strings"
)

// commandRunner is the seam between the version-control adapter and the real
// git binary. Tests substitute a recording fake.
type commandRunner interface {
	LookPath(file string) (string, error)
	// Output runs name with args in dir and returns trimmed stdout and raw
	// stderr. A non-zero exit is returned as the error with stderr captured.
	Output(dir string, name string, args ...string) (string, string, error)
}

type execRunner struct{}

func (execRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (execRunner) Output(dir string, name string, args ...string) (string, string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return strings.TrimSpace(stdout.String()), stderr.String(), err
}
