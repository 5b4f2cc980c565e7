package media

import (
	"fmt"
	"strings"

	"tubebridge/internal/model"
	"tubebridge/internal/util/format"
)

// InfoCard renders the summary shown before the user picks a kind.
func InfoCard(info model.VideoInfo) string {
	var b strings.Builder
	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "🎬 %s\n", title)
	if ch := strings.TrimSpace(info.Channel); ch != "" {
		fmt.Fprintf(&b, "👤 %s\n", ch)
	}
	if info.Degraded {
		b.WriteString("⏱ unknown · 👁 unknown\n")
	} else {
		fmt.Fprintf(&b, "⏱ %s · 👁 %s\n", format.Duration(info.DurationSec), format.Count(info.Views))
	}
	b.WriteString("\nChoose a format:")
	return b.String()
}

// Caption renders the caption attached to an uploaded file.
func Caption(res model.DownloadResult) string {
	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = "Download"
	}
	icon := "🎥"
	if res.Kind == model.KindAudio {
		icon = "🎵"
	}
	if res.Bytes > 0 {
		return fmt.Sprintf("%s %s (%s)", icon, title, format.HumanizeBytes(res.Bytes))
	}
	return icon + " " + title
}

// PlaylistSummary renders the closing message of a playlist run.
func PlaylistSummary(title string, results []model.DownloadResult) string {
	ok := 0
	var failed []string
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		name := r.Title
		if name == "" {
			name = "item"
		}
		failed = append(failed, fmt.Sprintf("• %s: %s", name, r.Error))
	}
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "📃 %s\n", title)
	}
	fmt.Fprintf(&b, "✅ %d/%d downloaded", ok, len(results))
	if len(failed) > 0 {
		b.WriteString("\n❌ Failed:\n")
		b.WriteString(strings.Join(failed, "\n"))
	}
	return b.String()
}
