package downloader

import (
	"context"
	"fmt"
	"time"

	"github.com/ytget/ytdlp/v2"

	"tubebridge/internal/model"
)

// Lister enumerates the entries of a playlist.
type Lister interface {
	List(ctx context.Context, playlistID string) (model.PlaylistBatch, error)
}

// YTDLPLister lists playlists through ytget/ytdlp.
type YTDLPLister struct {
	Timeout time.Duration
}

func (l YTDLPLister) List(ctx context.Context, playlistID string) (model.PlaylistBatch, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return model.PlaylistBatch{}, fmt.Errorf("%w: list playlist %s: %w", ErrExtractionFailed, playlistID, err)
	}
	batch := model.PlaylistBatch{ID: playlistID, Items: make([]model.PlaylistItem, 0, len(items))}
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		batch.Items = append(batch.Items, model.PlaylistItem{ID: it.VideoID, Title: it.Title})
	}
	return batch, nil
}
