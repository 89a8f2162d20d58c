package main

import "golang.org/x/sys/unix"

// minFreeDiskBytes is the floor checked before any worktree is created.
const minFreeDiskBytes uint64 = 500 * 1024 * 1024

func freeDiskSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
