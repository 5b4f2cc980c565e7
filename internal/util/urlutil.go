package util

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// RefKind tells whether a parsed link points at a single video or a playlist.
type RefKind string

const (
	RefVideo    RefKind = "video"
	RefPlaylist RefKind = "playlist"
)

// Ref is the structured result of parsing a YouTube link.
// A watch link that also carries a list id is a RefVideo with PlaylistID set.
type Ref struct {
	VideoID    string
	PlaylistID string
	Kind       RefKind
}

// URL returns the canonical URL for the ref.
func (r Ref) URL() string {
	if r.Kind == RefPlaylist {
		return "https://www.youtube.com/playlist?list=" + r.PlaylistID
	}
	return "https://www.youtube.com/watch?v=" + r.VideoID
}

var (
	ErrUnsupportedURL = errors.New("unsupported URL")
	ErrMissingID      = errors.New("no video or playlist id in URL")

	videoIDRe    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)
)

// ParseYouTubeURL parses a raw link (or a bare 11-character video id) into a Ref.
// Supported forms: watch?v=, youtu.be/, shorts/, live/, embed/, v/, playlist?list=,
// on youtube.com, m.youtube.com, music.youtube.com and youtube-nocookie.com.
func ParseYouTubeURL(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if videoIDRe.MatchString(raw) {
		return Ref{VideoID: raw, Kind: RefVideo}, nil
	}

	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u = u2
		}
	}
	if err != nil || u == nil || u.Host == "" {
		return Ref{}, fmt.Errorf("invalid URL %q", raw)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	var videoID string
	q := u.Query()
	listID := q.Get("list")

	switch host {
	case "youtu.be":
		videoID = firstSegment(u.Path)
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		p := strings.TrimSuffix(u.Path, "/")
		switch {
		case p == "/watch":
			videoID = q.Get("v")
		case p == "/playlist":
			// list only
		default:
			for _, prefix := range []string{"/shorts/", "/live/", "/embed/", "/v/"} {
				if strings.HasPrefix(p, prefix) {
					videoID = firstSegment(strings.TrimPrefix(p, prefix))
					break
				}
			}
		}
	default:
		return Ref{}, fmt.Errorf("%w %q: only YouTube links are supported (youtube.com, youtu.be)", ErrUnsupportedURL, raw)
	}

	if listID != "" && !playlistIDRe.MatchString(listID) {
		return Ref{}, fmt.Errorf("invalid playlist id %q", listID)
	}
	if videoID != "" {
		if !videoIDRe.MatchString(videoID) {
			return Ref{}, fmt.Errorf("invalid video id %q", videoID)
		}
		return Ref{VideoID: videoID, PlaylistID: listID, Kind: RefVideo}, nil
	}
	if listID != "" {
		return Ref{PlaylistID: listID, Kind: RefPlaylist}, nil
	}
	return Ref{}, fmt.Errorf("%w: %q", ErrMissingID, raw)
}

// FindYouTubeURL returns the first token in text that parses as a YouTube link.
func FindYouTubeURL(text string) (Ref, bool) {
	for _, tok := range strings.Fields(text) {
		if !strings.Contains(tok, "youtu") {
			continue
		}
		if ref, err := ParseYouTubeURL(tok); err == nil {
			return ref, true
		}
	}
	return Ref{}, false
}

func firstSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexAny(p, "/?#"); i >= 0 {
		p = p[:i]
	}
	return p
}
