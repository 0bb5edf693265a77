//go:build linux || darwin

package doctor

import "golang.org/x/sys/unix"

// statfs returns free and total bytes on the filesystem containing path.
func statfs(path string) (free, total int64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	free = int64(stat.Bfree) * int64(stat.Bsize)
	total = int64(stat.Blocks) * int64(stat.Bsize)
	return free, total, nil
}
