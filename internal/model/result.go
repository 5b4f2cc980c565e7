package model

import "time"

// DownloadResult is the outcome of processing one item.
// FilePath is set iff Success; Error is set iff !Success.
type DownloadResult struct {
	Success  bool
	FilePath string
	Title    string
	Error    string
	Bytes    int64
	Kind     Kind
}

// Failed builds a failure result.
func Failed(title string, err error) DownloadResult {
	msg := "download failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return DownloadResult{Success: false, Title: title, Error: msg}
}

// Options holds user-configurable runtime options resolved from flags,
// environment and config file.
type Options struct {
	TempDir        string
	Kind           Kind
	PlaylistLimit  int           // max items processed per playlist
	PlaylistDelay  time.Duration // pause between playlist items
	MinBytes       int64         // verifier floor
	AudioFormat    string        // native | mp3
	OEmbedFallback bool
	KeepTemp       bool
	Verbose        bool
}

// AudioFormat values.
const (
	AudioNative = "native"
	AudioMP3    = "mp3"
)
