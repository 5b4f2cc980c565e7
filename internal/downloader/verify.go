package downloader

import (
	"fmt"
	"os"
	"time"
)

// DefaultMinBytes is the size floor below which a download is treated as an
// error page or empty stream.
const DefaultMinBytes = 1000

// FileMeta describes a verified output file.
type FileMeta struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Verify checks that path is a regular file of at least minBytes.
// minBytes <= 0 uses DefaultMinBytes.
func Verify(path string, minBytes int64) (FileMeta, error) {
	if minBytes <= 0 {
		minBytes = DefaultMinBytes
	}
	st, err := os.Stat(path)
	if err != nil {
		return FileMeta{}, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if !st.Mode().IsRegular() {
		return FileMeta{}, fmt.Errorf("%w: %s is not a regular file", ErrInvalidOutput, path)
	}
	if st.Size() < minBytes {
		return FileMeta{}, fmt.Errorf("%w: downloaded file is too small (%d bytes, want at least %d)", ErrInvalidOutput, st.Size(), minBytes)
	}
	return FileMeta{Path: path, Size: st.Size(), ModTime: st.ModTime()}, nil
}
