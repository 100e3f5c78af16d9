package write

import (
	"fmt"
	"io/fs"
	"os"
)

// CheckFileUnchanged verifies a file wasn't modified while it was streamed
// into the archive by comparing size, mtime, and permissions before/after.
func CheckFileUnchanged(f *os.File, path string, before fs.FileInfo) error {
	after, err := f.Stat()
	if err != nil {
		return err
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) || after.Mode().Perm() != before.Mode().Perm() {
		return fmt.Errorf("file changed while adding to container: %s", path)
	}
	return nil
}

// IsRegularEntry reports whether a DirEntry names a regular file. Symlinks
// and other non-regular files report false and should be skipped. Entries
// whose type is unknown are resolved with Lstat.
func IsRegularEntry(root *os.Root, fsPath string, d fs.DirEntry) (bool, error) {
	// Type holds only type bits: any set bit is a symlink, directory or
	// special file.
	if d.Type() != 0 {
		return false, nil
	}
	linfo, err := root.Lstat(fsPath)
	if err != nil {
		return false, err
	}
	return linfo.Mode().IsRegular(), nil
}
