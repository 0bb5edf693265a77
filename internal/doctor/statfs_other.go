//go:build !linux && !darwin

package doctor

import "fmt"

// statfs has no portable implementation outside unix.Statfs; doctor's disk
// check degrades to a warn status on these platforms.
func statfs(path string) (free, total int64, err error) {
	return 0, 0, fmt.Errorf("disk usage probing is not implemented on this platform")
}
