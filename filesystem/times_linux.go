//go:build linux

package filesystem

import (
	"os"
	"syscall"
	"time"
)

// statTimes extracts creation and access times from the platform stat. Linux
// does not expose birth time through syscall.Stat_t, so the status-change
// time stands in for creation.
func statTimes(info os.FileInfo) (created, accessed time.Time) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime(), info.ModTime()
	}
	created = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	accessed = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	return created, accessed
}
