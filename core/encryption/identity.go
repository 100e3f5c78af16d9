package encryption

import (
	"io"

	asic "github.com/meigma/asic/core"
)

// Identity passes bytes through unchanged. Entries still count as
// encrypted in the container model, and are renamed with Extension when it
// is set.
type Identity struct {
	Extension string
}

var _ asic.EncryptionFilter = Identity{}

// Filename implements asic.EncryptionFilter.
func (i Identity) Filename(original string) string {
	return original + i.Extension
}

// NewFilter implements asic.EncryptionFilter.
func (Identity) NewFilter(w io.WriteCloser, _ asic.Config) (io.WriteCloser, error) {
	return newChain(nopCloser{w}, w), nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
