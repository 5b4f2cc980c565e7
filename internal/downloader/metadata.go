package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const thumbnailProbeTimeout = 3 * time.Second

const oembedEndpoint = "https://www.youtube.com/oembed"

// OEmbed is the subset of the oEmbed response used for degraded info.
type OEmbed struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// FetchOEmbed asks the public oEmbed endpoint for a video's title and channel.
func FetchOEmbed(ctx context.Context, client HTTPClient, videoID string) (OEmbed, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+videoID)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return OEmbed{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return OEmbed{}, err
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return OEmbed{}, fmt.Errorf("oembed status %d", resp.StatusCode)
	}
	var out OEmbed
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return OEmbed{}, fmt.Errorf("decode oembed: %w", err)
	}
	if out.Title == "" {
		return OEmbed{}, fmt.Errorf("oembed returned no title")
	}
	return out, nil
}

// HQThumbnail is the thumbnail every public video has.
func HQThumbnail(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/hqdefault.jpg"
}

// MaxResThumbnail is the full-resolution thumbnail, absent on older uploads.
func MaxResThumbnail(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg"
}

// ThumbnailURL returns the max-resolution thumbnail when a HEAD probe finds it
// within three seconds, else the hq one.
func ThumbnailURL(ctx context.Context, client HTTPClient, videoID string) string {
	if client == nil {
		return HQThumbnail(videoID)
	}
	ctx, cancel := context.WithTimeout(ctx, thumbnailProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, MaxResThumbnail(videoID), nil)
	if err != nil {
		return HQThumbnail(videoID)
	}
	resp, err := client.Do(req)
	if err != nil {
		slog.Debug("thumbnail probe failed", "id", videoID, "err", err)
		return HQThumbnail(videoID)
	}
	defer closeBody(resp.Body)
	if resp.StatusCode == http.StatusOK {
		return MaxResThumbnail(videoID)
	}
	return HQThumbnail(videoID)
}

func closeBody(b io.ReadCloser) {
	if b == nil {
		return
	}
	if err := b.Close(); err != nil {
		slog.Warn("failed to close response body", "err", err)
	}
}
