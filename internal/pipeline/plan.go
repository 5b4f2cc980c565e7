package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"tubebridge/internal/downloader"
	"tubebridge/internal/model"
	"tubebridge/internal/util"
)

// Plan is the resolved selection for one video, computed before any bytes
// are written. The info command prints it; Download executes it.
type Plan struct {
	VideoID    string
	Title      string
	Kind       model.Kind
	Candidate  model.MediaCandidate
	OutputPath string // where the stream is written
	FinalPath  string // differs from OutputPath when transcoding to mp3
	Transcode  bool
}

// PlanDownload selects a candidate and names the output file under dir.
func PlanDownload(info model.VideoInfo, kind model.Kind, opts model.Options, now time.Time) (Plan, error) {
	c, err := downloader.Select(info.Candidates, kind)
	if err != nil {
		return Plan{}, err
	}
	ext := downloader.Ext(c, kind)
	out := filepath.Join(opts.TempDir, util.OutputFilename(info.Title, ext, now))
	p := Plan{
		VideoID:    info.ID,
		Title:      info.Title,
		Kind:       kind,
		Candidate:  c,
		OutputPath: out,
		FinalPath:  out,
	}
	if kind == model.KindAudio && opts.AudioFormat == model.AudioMP3 && ext != "mp3" {
		p.Transcode = true
		p.FinalPath = strings.TrimSuffix(out, filepath.Ext(out)) + ".mp3"
	}
	return p, nil
}
