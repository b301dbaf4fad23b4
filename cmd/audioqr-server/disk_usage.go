//go:build unix

package main

import (
	"fmt"
	"syscall"
)

// getDiskUsage — handlers.DiskUsageFunc на основе statfs(2).
// Свободное место считается по блокам, доступным непривилегированному процессу.
func getDiskUsage(path string) (total, used, available int64, err error) {
	var st syscall.Statfs_t
	if err = syscall.Statfs(path, &st); err != nil {
		return 0, 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	bsize := uint64(st.Bsize)
	total = int64(st.Blocks * bsize)
	available = int64(st.Bavail * bsize)
	used = int64((st.Blocks - st.Bfree) * bsize)
	return total, used, available, nil
}
