package ui

import (
	"fmt"
	"strings"

	"tubebridge/internal/progress"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.jobOrder)
	for _, id := range m.jobOrder {
		if m.jobs[id].done {
			done++
		}
	}
	heading := "tubebridge"
	if m.job.Title != "" {
		heading += " · " + m.job.Title
	}
	title := m.styles.Title.Render(heading)
	hint := "q: quit"
	if m.stopping {
		hint = "stopping…"
	}
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Items: %d/%d done • %s", done, total, hint))
	return title + "\n" + sub
}

func (m Model) viewJobs() string {
	var b strings.Builder
	for _, id := range m.jobOrder {
		b.WriteString(m.viewJob(m.jobs[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJob(js *jobState) string {
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageMetadata, progress.StageSelecting:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading, progress.StageVerifying:
		stageStyle = m.styles.StageFetch
	case progress.StageTranscoding:
		stageStyle = m.styles.StageAudio
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.JobTitle.Render(truncate(js.label, 48))
	stage := "queued"
	if js.stage != "" {
		stage = string(js.stage)
	}

	var right string
	switch {
	case js.percent >= 0 && js.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
	case js.done && js.err == nil:
		right = m.styles.Success.Render("✓ done")
	case js.err != nil:
		right = m.styles.Error.Render("✗ error")
	default:
		right = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("waiting")
	}

	line1 := fmt.Sprintf("%s  %s", left, stageStyle.Render(stage))
	line2 := m.styles.JobInfo.Render(js.status)
	return m.styles.Box.Render(line1 + "\n" + right + "\n" + line2)
}

func (m Model) viewSummary() string {
	var completed []string
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js.done && js.err == nil && js.outputPath != "" {
			completed = append(completed, js.outputPath)
		}
	}
	if len(completed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("✓ Completed Files:"))
	b.WriteString("\n")
	for _, path := range completed {
		b.WriteString(m.styles.Success.Render("  • " + path))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
