//go:build linux || darwin

package tree

import (
	"io/fs"
	"os"
	"syscall"
	"time"
)

func lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// extraTimes pulls access and change time out of the platform stat
// structure. Change time stands in for creation time, which most unix
// filesystems do not record.
func extraTimes(info fs.FileInfo) (atime, ctime time.Time) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, time.Time{}
	}
	return statTimes(st)
}
