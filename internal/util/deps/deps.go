package deps

import (
	"fmt"
	"os"
	"os/exec"
)

// FindFFmpeg returns the ffmpeg binary to use. A non-empty customPath is
// checked as a file first, then looked up in PATH.
func FindFFmpeg(customPath string) (string, error) {
	if customPath != "" {
		if st, err := os.Stat(customPath); err == nil && !st.IsDir() {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find ffmpeg at %q", customPath)
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find ffmpeg in PATH; install ffmpeg or set audio_format: native")
}
