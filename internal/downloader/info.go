package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tubebridge/internal/model"
	"tubebridge/internal/util"
)

// InfoFetcher resolves a link into a VideoInfo, falling back once to oEmbed
// when the extractor fails and the fallback is enabled.
type InfoFetcher struct {
	Extractor Extractor
	HTTP      HTTPClient // optional; nil disables the thumbnail probe and oEmbed
	Fallback  bool
}

// FetchInfo parses rawURL and extracts info for the video it names.
// A degraded result has zero duration and views and no candidates.
func (f *InfoFetcher) FetchInfo(ctx context.Context, rawURL string) (model.VideoInfo, error) {
	ref, err := util.ParseYouTubeURL(rawURL)
	if err != nil {
		return model.VideoInfo{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if ref.Kind != util.RefVideo {
		return model.VideoInfo{}, fmt.Errorf("%w: %s is a playlist link", ErrExtractionFailed, rawURL)
	}
	return f.FetchByID(ctx, ref.VideoID)
}

// FetchByID is FetchInfo for an already-parsed video id.
func (f *InfoFetcher) FetchByID(ctx context.Context, videoID string) (model.VideoInfo, error) {
	info, err := f.Extractor.Extract(ctx, videoID)
	if err == nil {
		if info.ID == "" {
			info.ID = videoID
		}
		info.ThumbnailURL = ThumbnailURL(ctx, f.HTTP, info.ID)
		return info, nil
	}
	if !errors.Is(err, ErrExtractionFailed) {
		err = fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if !f.Fallback || f.HTTP == nil {
		return model.VideoInfo{}, err
	}

	slog.Debug("extractor failed, trying oembed", "id", videoID, "err", err)
	oe, oerr := FetchOEmbed(ctx, f.HTTP, videoID)
	if oerr != nil {
		return model.VideoInfo{}, fmt.Errorf("%w (oembed: %v)", err, oerr)
	}
	return model.VideoInfo{
		ID:           videoID,
		Title:        oe.Title,
		Channel:      oe.AuthorName,
		ThumbnailURL: HQThumbnail(videoID),
		Degraded:     true,
	}, nil
}
