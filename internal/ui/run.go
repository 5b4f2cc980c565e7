package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"tubebridge/internal/model"
)

// Run shows job in a full-screen TUI until it finishes or the user quits,
// and returns the pipeline results. It does not return before job.Run has,
// so the pipeline's own cleanup always completes.
func Run(ctx context.Context, job Job) ([]model.DownloadResult, error) {
	m := NewModel(ctx, job)
	done := m.start()
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := prog.Run()

	m.cancel()
	close(m.stop)
	results := <-done
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return results, err
	}
	return results, nil
}
