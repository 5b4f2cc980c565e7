package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, size int) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name     string
		path     string
		minBytes int64
		wantErr  bool
	}{
		{name: "too small", path: write("small.mp4", 500), wantErr: true},
		{name: "large enough", path: write("ok.mp4", 1500)},
		{name: "exactly the floor", path: write("edge.mp4", DefaultMinBytes)},
		{name: "custom floor", path: write("custom.mp4", 1500), minBytes: 2000, wantErr: true},
		{name: "missing", path: filepath.Join(dir, "nope.mp4"), wantErr: true},
		{name: "directory", path: dir, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := Verify(tt.path, tt.minBytes)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOutput) {
					t.Fatalf("expected ErrInvalidOutput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if meta.Path != tt.path || meta.Size <= 0 {
				t.Errorf("unexpected meta %+v", meta)
			}
		})
	}
}
