package downloader

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionFailed means the source could not be resolved into a VideoInfo.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrNoMatchingFormat means no candidate satisfies the requested kind.
	ErrNoMatchingFormat = errors.New("no matching format")
	// ErrInvalidOutput means the written file failed verification.
	ErrInvalidOutput = errors.New("invalid output")
)

// TransportError reports a failure while moving bytes from the source to
// disk. It is returned as *TransportError.
type TransportError struct {
	Op  string // create | open | read | write | close | stream
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PlaylistItemError wraps the failure of one playlist entry. It never aborts
// the batch.
type PlaylistItemError struct {
	Index int // 1-based position in the batch
	ID    string
	Title string
	Err   error
}

func (e *PlaylistItemError) Error() string {
	name := e.Title
	if name == "" {
		name = e.ID
	}
	return fmt.Sprintf("playlist item %d (%s): %v", e.Index, name, e.Err)
}

func (e *PlaylistItemError) Unwrap() error { return e.Err }
