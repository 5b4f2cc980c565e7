package model

import (
	"fmt"
	"strings"
)

// Kind is the requested media kind for a download.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ParseKind accepts "video"/"audio" (case-insensitive) plus the short forms
// "v"/"a" and "mp4"/"mp3" used by chat buttons.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "v", "mp4":
		return KindVideo, nil
	case "audio", "a", "mp3":
		return KindAudio, nil
	default:
		return "", fmt.Errorf("invalid kind %q (valid: video|audio)", s)
	}
}

// MediaCandidate is one stream offered by the extractor for a video.
// Height is 0 for audio-only streams; Bitrate is 0 when unknown.
type MediaCandidate struct {
	Itag         int
	QualityLabel string
	MimeType     string
	Height       int
	HasVideo     bool
	HasAudio     bool
	Bitrate      int
	Size         int64 // 0 if unknown
}

// Container returns the container part of the mime type, e.g. "mp4" for
// `video/mp4; codecs="avc1.42001E, mp4a.40.2"`.
func (c MediaCandidate) Container() string {
	mt := c.MimeType
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	if i := strings.Index(mt, "/"); i >= 0 {
		mt = mt[i+1:]
	}
	return strings.TrimSpace(strings.ToLower(mt))
}

// VideoInfo is the extractor boundary output for one source item.
type VideoInfo struct {
	ID           string
	Title        string
	DurationSec  int
	Channel      string
	Views        int64
	ThumbnailURL string
	Candidates   []MediaCandidate

	// Degraded is set when the info came from the metadata fallback:
	// duration and views are zero and there are no candidates.
	Degraded bool
}

// PlaylistItem references one entry of a playlist.
type PlaylistItem struct {
	ID    string
	Title string
}

// URL returns the canonical watch URL for the item.
func (p PlaylistItem) URL() string {
	return "https://www.youtube.com/watch?v=" + p.ID
}

// PlaylistBatch is an ordered list of items to process sequentially.
type PlaylistBatch struct {
	ID    string
	Title string
	Items []PlaylistItem
}

// Capped returns the batch truncated to at most limit items. limit <= 0
// leaves the batch unchanged.
func (b PlaylistBatch) Capped(limit int) PlaylistBatch {
	if limit <= 0 || len(b.Items) <= limit {
		return b
	}
	out := b
	out.Items = append([]PlaylistItem(nil), b.Items[:limit]...)
	return out
}
