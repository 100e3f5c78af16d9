// Package platform opens source files for ingestion without following
// symbolic links.
package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrSymlink is returned when the named file is a symbolic link.
	ErrSymlink = errors.New("symbolic links not supported")

	// ErrNotRegular is returned when the opened file is not a regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// regular stats an opened file and closes it unless it is a regular file.
func regular(f *os.File, name string) (*os.File, fs.FileInfo, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotRegular, name)
	}
	return f, info, nil
}
