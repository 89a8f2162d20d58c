package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

// version is stamped by the release build; source builds report the module
// version when available.
var version = "dev"

var readBuildInfo = debug.ReadBuildInfo

func installVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

func runVersionCommand() error {
	fmt.Fprintln(os.Stdout, "arbor "+installVersion())
	return nil
}
