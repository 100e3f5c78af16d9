//go:build !unix

package platform

import (
	"io/fs"
	"os"
)

// OpenRegular opens name below root for reading and returns the file with
// its stat taken after the open. A symbolic link fails with ErrSymlink and
// anything other than a regular file fails with ErrNotRegular.
func OpenRegular(root *os.Root, name string) (*os.File, fs.FileInfo, error) {
	linfo, err := root.Lstat(name)
	if err != nil {
		return nil, nil, err
	}
	if linfo.Mode()&fs.ModeSymlink != 0 {
		return nil, nil, ErrSymlink
	}
	f, err := root.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return regular(f, name)
}
