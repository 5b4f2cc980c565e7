package downloader

import (
	"context"
	"errors"
	"io"
	"os"
)

const copyChunk = 32 * 1024

// WriteStream copies src into a newly created file at dst. The file must not
// already exist. Any failure on either side comes back as *TransportError;
// a partially written file is left in place for the caller to remove.
func WriteStream(ctx context.Context, src io.Reader, dst string) (int64, error) {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, &TransportError{Op: "create", Err: err}
	}
	n, copyErr := copyWithContext(ctx, f, src)
	closeErr := f.Close()
	if copyErr != nil {
		return n, copyErr
	}
	if closeErr != nil {
		return n, &TransportError{Op: "close", Err: closeErr}
	}
	return n, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyChunk)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, &TransportError{Op: "read", Err: err}
		}
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, &TransportError{Op: "write", Err: werr}
			}
			if nw != nr {
				return written, &TransportError{Op: "write", Err: io.ErrShortWrite}
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, &TransportError{Op: "read", Err: rerr}
		}
	}
}
