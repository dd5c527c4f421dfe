//go:build !linux && !darwin

package tree

import (
	"io/fs"
	"os"
	"time"
)

func lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

func extraTimes(fs.FileInfo) (atime, ctime time.Time) {
	return time.Time{}, time.Time{}
}
