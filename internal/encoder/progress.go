package encoder

import (
	"strconv"
	"strings"

	"tubebridge/internal/progress"
)

// ProgressState accumulates ffmpeg -progress key=value lines. An update is
// produced on each "progress=" marker.
type ProgressState struct {
	OutTimeUs int64
	SpeedStr  string
	TotalSize int64
}

// UpdateFromLine folds one line into the state. durationSec <= 0 leaves the
// percentage unknown.
func (ps *ProgressState) UpdateFromLine(line, jobID string, durationSec int) (progress.Update, bool) {
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return progress.Update{}, false
	}
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)

	switch key {
	case "out_time_us", "out_time_ms":
		// ffmpeg reports both in microseconds.
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.OutTimeUs = v
		}
	case "speed":
		ps.SpeedStr = val
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		u := progress.Update{
			JobID:   jobID,
			Stage:   progress.StageTranscoding,
			Percent: -1,
			Message: "Converting to mp3",
		}
		if durationSec > 0 {
			u.Percent = float64(ps.OutTimeUs) / (float64(durationSec) * 1_000_000) * 100
			if u.Percent > 100 || val == "end" {
				u.Percent = 100
			}
		}
		if ps.SpeedStr != "" && ps.SpeedStr != "N/A" {
			s := ps.SpeedStr
			u.Speed = &s
		}
		if ps.TotalSize > 0 {
			b := ps.TotalSize
			u.Bytes = &b
		}
		return u, true
	}
	return progress.Update{}, false
}
