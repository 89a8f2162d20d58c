package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "arbor error:", err)
		os.Exit(exitCodeForError(err))
	}
}

func run(args []string) error {
	maybeStartInvocationUpdateCheck(args)
	cmd := newRootCommand()
	if len(args) > 1 {
		cmd.SetArgs(args[1:])
	}
	return cmd.Execute()
}
