package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Hello World", want: "Hello_World"},
		{name: "punctuation dropped", in: "Never Gonna Give You Up (Official Video)", want: "Never_Gonna_Give_You_Up_Official_Video"},
		{name: "whitespace collapsed", in: "  a \t b  ", want: "a_b"},
		{name: "unicode letters kept", in: "Café déjà vu", want: "Café_déjà_vu"},
		{name: "only symbols", in: "!!!???", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "truncated to 50 runes", in: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", want: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.in); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := OutputFilename("My Song!", ".mp3", now); got != "My_Song_1700000000123.mp3" {
		t.Errorf("OutputFilename = %q", got)
	}
	if got := OutputFilename("???", "mp4", now); got != "video_1700000000123.mp4" {
		t.Errorf("OutputFilename fallback = %q", got)
	}
}

func TestEmptyDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "job-1", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := EmptyDir(dir); err != nil {
		t.Fatalf("EmptyDir: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir, found %d entries", len(entries))
	}
	if err := EmptyDir(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("EmptyDir on missing dir: %v", err)
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	if err := RemoveIfExists(p); err != nil {
		t.Errorf("missing file: %v", err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(p); err != nil {
		t.Errorf("existing file: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("file still present")
	}
}

func TestMoveFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	dstDir := filepath.Join(t.TempDir(), "out", "nested")
	got, err := MoveFile(src, dstDir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dstDir, "clip.mp4") {
		t.Fatalf("MoveFile = %q", got)
	}
	if b, err := os.ReadFile(got); err != nil || string(b) != "data" {
		t.Fatalf("moved content = %q, %v", b, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source still present")
	}
}
