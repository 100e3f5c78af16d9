package file

import (
	"context"
	"io"
)

// contextReader fails reads once its context is done.
type contextReader struct {
	ctx context.Context //nolint:containedctx // scoped to one copy
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// CopyWithContext copies src to dst through buf, checking ctx before every
// read. It returns the number of bytes written, failing with ErrOverflow if
// the count no longer fits a uint64.
func CopyWithContext(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) (uint64, error) {
	cw := &CountingWriter{W: dst}
	_, err := io.CopyBuffer(cw, contextReader{ctx: ctx, r: src}, buf)
	return cw.N, err
}
