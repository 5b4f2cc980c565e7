package downloader

import (
	"strings"

	"tubebridge/internal/model"
)

const (
	preferredHeight = 360
	itag360Muxed    = 18
)

// Select picks the stream to download for kind.
//
// Video: the first 360p candidate wins regardless of codec. Otherwise the
// lowest-height candidate carrying both audio and video, ties going to the
// earlier one.
//
// Audio: the first audio-only candidate wins. Otherwise the audio-capable
// candidate with the highest bitrate, ties going to the earlier one.
func Select(candidates []model.MediaCandidate, kind model.Kind) (model.MediaCandidate, error) {
	if len(candidates) == 0 {
		return model.MediaCandidate{}, ErrNoMatchingFormat
	}
	switch kind {
	case model.KindAudio:
		return selectAudio(candidates)
	default:
		return selectVideo(candidates)
	}
}

func selectVideo(cands []model.MediaCandidate) (model.MediaCandidate, error) {
	for _, c := range cands {
		if is360(c) {
			return c, nil
		}
	}
	best := -1
	for i, c := range cands {
		if !c.HasVideo || !c.HasAudio {
			continue
		}
		if best < 0 || lowerHeight(c.Height, cands[best].Height) {
			best = i
		}
	}
	if best < 0 {
		return model.MediaCandidate{}, ErrNoMatchingFormat
	}
	return cands[best], nil
}

func selectAudio(cands []model.MediaCandidate) (model.MediaCandidate, error) {
	for _, c := range cands {
		if c.HasAudio && !c.HasVideo {
			return c, nil
		}
	}
	best := -1
	for i, c := range cands {
		if !c.HasAudio {
			continue
		}
		if best < 0 || c.Bitrate > cands[best].Bitrate {
			best = i
		}
	}
	if best < 0 {
		return model.MediaCandidate{}, ErrNoMatchingFormat
	}
	return cands[best], nil
}

// lowerHeight reports whether a is strictly lower than b. Unknown (0) sorts last.
func lowerHeight(a, b int) bool {
	switch {
	case a <= 0:
		return false
	case b <= 0:
		return true
	default:
		return a < b
	}
}

func is360(c model.MediaCandidate) bool {
	if c.Height == preferredHeight || c.Itag == itag360Muxed {
		return true
	}
	label := strings.ToLower(strings.TrimSpace(c.QualityLabel))
	return strings.HasPrefix(label, "360p")
}

// Ext returns the file extension (without dot) for a selected candidate.
func Ext(c model.MediaCandidate, kind model.Kind) string {
	container := c.Container()
	switch {
	case container == "3gpp":
		return "3gp"
	case container == "mp4" && kind == model.KindAudio && !c.HasVideo:
		return "m4a"
	case container != "":
		return container
	case kind == model.KindAudio:
		return "m4a"
	default:
		return "mp4"
	}
}
