package main

import (
	"os"
	"strings"
)

func envFlagEnabled(name string) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// testModeEnabled suppresses interactive prompts so the CLI can run under
// test harnesses.
func testModeEnabled() bool {
	return envFlagEnabled("ARBOR_TEST_MODE")
}

func debugEnabled() bool {
	return envFlagEnabled("ARBOR_DEBUG")
}
