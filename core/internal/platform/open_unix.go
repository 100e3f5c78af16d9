//go:build unix

package platform

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// OpenRegular opens name below root for reading and returns the file with
// its stat taken after the open. A final symbolic link fails with ErrSymlink
// and anything other than a regular file fails with ErrNotRegular. FIFOs are
// opened non-blocking so they are rejected instead of waiting for a writer.
func OpenRegular(root *os.Root, name string) (*os.File, fs.FileInfo, error) {
	f, err := root.OpenFile(name, os.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, syscall.ELOOP) {
			return nil, nil, ErrSymlink
		}
		return nil, nil, err
	}
	return regular(f, name)
}
