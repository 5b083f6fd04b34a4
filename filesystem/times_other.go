//go:build !linux && !darwin

package filesystem

import (
	"os"
	"time"
)

// statTimes falls back to the modification time on platforms without a
// portable stat extension.
func statTimes(info os.FileInfo) (created, accessed time.Time) {
	return info.ModTime(), info.ModTime()
}
