package downloader

import (
	"context"
	"errors"
	"fmt"

	"tubebridge/internal/model"
	"tubebridge/internal/progress"
)

// Options controls how Fetch reports and verifies.
type Options struct {
	Reporter progress.Reporter
	JobID    string
	MinBytes int64 // verifier floor; <= 0 uses DefaultMinBytes
}

// Fetch streams candidate c of videoID into dst and verifies the result.
// Verification only runs after a clean transfer. On error dst may hold a
// partial file; removing it is the caller's job.
func Fetch(ctx context.Context, ex Extractor, videoID string, c model.MediaCandidate, dst string, opts Options) (FileMeta, error) {
	rep := opts.Reporter
	if rep == nil {
		rep = progress.Nop{}
	}

	rc, size, err := ex.Open(ctx, videoID, c)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Op: "open", Err: err}
		}
		return FileMeta{}, err
	}
	defer rc.Close()
	if size <= 0 {
		size = c.Size
	}

	meter := NewMeter(rc, size, opts.JobID, rep)
	n, err := WriteStream(ctx, meter, dst)
	if err != nil {
		return FileMeta{}, err
	}

	rep.Update(progress.Update{JobID: opts.JobID, Stage: progress.StageVerifying, Percent: -1, Bytes: &n, Message: "Verifying"})
	meta, err := Verify(dst, opts.MinBytes)
	if err != nil {
		return FileMeta{}, fmt.Errorf("verify %s: %w", dst, err)
	}
	return meta, nil
}

// CreatedFile reports whether a failed Fetch got as far as creating dst.
// Open failures and create conflicts leave dst untouched.
func CreatedFile(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		switch te.Op {
		case "create", "open", "stream":
			return false
		}
	}
	return true
}
