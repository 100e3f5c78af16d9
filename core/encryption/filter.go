// Package encryption provides filters that encrypt individual container
// entries.
package encryption

import (
	"errors"
	"io"
)

// ErrClosed is returned when writing to a filter stream after Close.
var ErrClosed = errors.New("encryption: stream is closed")

// chain closes the cipher stream and then the entry stream it feeds, so the
// entry only commits after the final ciphertext is written.
type chain struct {
	cipher io.WriteCloser
	dst    io.WriteCloser
	closed bool
}

func newChain(cipher, dst io.WriteCloser) *chain {
	return &chain{cipher: cipher, dst: dst}
}

// Write implements io.Writer.
func (c *chain) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	return c.cipher.Write(p)
}

// Close implements io.Closer. It is safe to call more than once.
func (c *chain) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.cipher.Close(), c.dst.Close())
}
