package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kkdai/youtube/v2"

	"tubebridge/internal/model"
)

const videoCacheSize = 64

// YouTube is the Extractor backed by kkdai/youtube.
type YouTube struct {
	client *youtube.Client

	mu     sync.Mutex
	videos map[string]*youtube.Video
}

// NewYouTube returns an extractor whose requests time out after timeout.
func NewYouTube(timeout time.Duration) *YouTube {
	return &YouTube{
		client: &youtube.Client{HTTPClient: &http.Client{Timeout: timeout}},
		videos: make(map[string]*youtube.Video),
	}
}

func (y *YouTube) Extract(ctx context.Context, videoID string) (model.VideoInfo, error) {
	v, err := y.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return model.VideoInfo{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	y.remember(v)
	return toVideoInfo(v), nil
}

func (y *YouTube) Open(ctx context.Context, videoID string, c model.MediaCandidate) (io.ReadCloser, int64, error) {
	v, err := y.video(ctx, videoID)
	if err != nil {
		return nil, 0, &TransportError{Op: "open", Err: err}
	}
	f, ok := formatByItag(v.Formats, c.Itag)
	if !ok {
		return nil, 0, &TransportError{Op: "open", Err: fmt.Errorf("format %d no longer offered", c.Itag)}
	}
	rc, size, err := y.client.GetStreamContext(ctx, v, f)
	if err != nil {
		return nil, 0, &TransportError{Op: "stream", Err: err}
	}
	return rc, size, nil
}

func formatByItag(formats youtube.FormatList, itag int) (*youtube.Format, bool) {
	fl := formats.Itag(itag)
	if len(fl) == 0 {
		return nil, false
	}
	return &fl[0], true
}

func (y *YouTube) video(ctx context.Context, id string) (*youtube.Video, error) {
	y.mu.Lock()
	v, ok := y.videos[id]
	y.mu.Unlock()
	if ok {
		return v, nil
	}
	v, err := y.client.GetVideoContext(ctx, id)
	if err != nil {
		return nil, err
	}
	y.remember(v)
	return v, nil
}

func (y *YouTube) remember(v *youtube.Video) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if len(y.videos) >= videoCacheSize {
		clear(y.videos)
	}
	y.videos[v.ID] = v
}

func toVideoInfo(v *youtube.Video) model.VideoInfo {
	info := model.VideoInfo{
		ID:          v.ID,
		Title:       v.Title,
		DurationSec: int(v.Duration.Seconds()),
		Channel:     v.Author,
		Views:       int64(v.Views),
	}
	if n := len(v.Thumbnails); n > 0 {
		info.ThumbnailURL = v.Thumbnails[n-1].URL
	}
	info.Candidates = make([]model.MediaCandidate, 0, len(v.Formats))
	for _, f := range v.Formats {
		info.Candidates = append(info.Candidates, toCandidate(f))
	}
	return info
}

func toCandidate(f youtube.Format) model.MediaCandidate {
	bitrate := f.Bitrate
	if bitrate == 0 {
		bitrate = f.AverageBitrate
	}
	return model.MediaCandidate{
		Itag:         f.ItagNo,
		QualityLabel: f.QualityLabel,
		MimeType:     f.MimeType,
		Height:       f.Height,
		HasVideo:     strings.HasPrefix(f.MimeType, "video/"),
		HasAudio:     f.AudioChannels > 0,
		Bitrate:      bitrate,
		Size:         f.ContentLength,
	}
}
