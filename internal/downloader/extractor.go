package downloader

import (
	"context"
	"io"

	"tubebridge/internal/model"
)

// Extractor resolves a source into a VideoInfo and opens candidate streams.
type Extractor interface {
	Extract(ctx context.Context, videoID string) (model.VideoInfo, error)
	Open(ctx context.Context, videoID string, c model.MediaCandidate) (io.ReadCloser, int64, error)
}
