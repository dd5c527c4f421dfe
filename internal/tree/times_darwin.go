//go:build darwin

package tree

import (
	"syscall"
	"time"
)

func statTimes(st *syscall.Stat_t) (atime, ctime time.Time) {
	return time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec),
		time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec)
}
