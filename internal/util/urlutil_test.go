package util

import (
	"errors"
	"testing"
)

func TestParseYouTubeURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantID   string
		wantList string
		wantKind RefKind
		wantErr  bool
	}{
		{name: "watch", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "watch extra params", raw: "https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "short link", raw: "https://youtu.be/dQw4w9WgXcQ?si=abc", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "shorts", raw: "https://www.youtube.com/shorts/dQw4w9WgXcQ", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "live", raw: "https://www.youtube.com/live/dQw4w9WgXcQ?feature=share", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "embed nocookie", raw: "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "mobile", raw: "https://m.youtube.com/watch?v=dQw4w9WgXcQ", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "no scheme", raw: "youtube.com/watch?v=dQw4w9WgXcQ", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "bare id", raw: "dQw4w9WgXcQ", wantID: "dQw4w9WgXcQ", wantKind: RefVideo},
		{name: "playlist", raw: "https://www.youtube.com/playlist?list=PLFgquLnL59alCl_2TQvOiD5Vgm1hCaGSI", wantList: "PLFgquLnL59alCl_2TQvOiD5Vgm1hCaGSI", wantKind: RefPlaylist},
		{name: "music playlist", raw: "https://music.youtube.com/playlist?list=OLAK5uy_abcdefghijk", wantList: "OLAK5uy_abcdefghijk", wantKind: RefPlaylist},
		{name: "video in playlist", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLFgquLnL59alCl_2TQvOiD5Vgm1hCaGSI", wantID: "dQw4w9WgXcQ", wantList: "PLFgquLnL59alCl_2TQvOiD5Vgm1hCaGSI", wantKind: RefVideo},
		{name: "other host", raw: "https://vimeo.com/12345", wantErr: true},
		{name: "channel page", raw: "https://www.youtube.com/@somechannel", wantErr: true},
		{name: "bad id", raw: "https://youtu.be/short", wantErr: true},
		{name: "garbage", raw: "::::", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYouTubeURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseYouTubeURL(%q) expected error, got %+v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseYouTubeURL(%q) unexpected error: %v", tt.raw, err)
			}
			if got.VideoID != tt.wantID || got.PlaylistID != tt.wantList || got.Kind != tt.wantKind {
				t.Errorf("ParseYouTubeURL(%q) = %+v, want id=%q list=%q kind=%q", tt.raw, got, tt.wantID, tt.wantList, tt.wantKind)
			}
		})
	}
}

func TestParseYouTubeURL_ErrorKinds(t *testing.T) {
	if _, err := ParseYouTubeURL("https://example.com/watch?v=dQw4w9WgXcQ"); !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("expected ErrUnsupportedURL, got %v", err)
	}
	if _, err := ParseYouTubeURL("https://www.youtube.com/feed/trending"); !errors.Is(err, ErrMissingID) {
		t.Errorf("expected ErrMissingID, got %v", err)
	}
}

func TestRefURL(t *testing.T) {
	v := Ref{VideoID: "dQw4w9WgXcQ", Kind: RefVideo}
	if got := v.URL(); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("video URL = %q", got)
	}
	p := Ref{PlaylistID: "PL123456789", Kind: RefPlaylist}
	if got := p.URL(); got != "https://www.youtube.com/playlist?list=PL123456789" {
		t.Errorf("playlist URL = %q", got)
	}
}

func TestFindYouTubeURL(t *testing.T) {
	ref, ok := FindYouTubeURL("check this out https://youtu.be/dQw4w9WgXcQ lol")
	if !ok || ref.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("FindYouTubeURL = %+v, %v", ref, ok)
	}
	if _, ok := FindYouTubeURL("no links here"); ok {
		t.Errorf("expected no match")
	}
}
