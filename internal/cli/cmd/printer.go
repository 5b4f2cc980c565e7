package cmd

import (
	"fmt"
	"io"
	"sync"

	"tubebridge/internal/progress"
)

// lineReporter prints one line per stage change for non-TTY runs.
type lineReporter struct {
	w       io.Writer
	verbose bool

	mu   sync.Mutex
	last map[string]progress.Stage
}

func newLineReporter(w io.Writer, verbose bool) *lineReporter {
	return &lineReporter{w: w, verbose: verbose, last: make(map[string]progress.Stage)}
}

func (r *lineReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last[u.JobID] == u.Stage {
		return
	}
	r.last[u.JobID] = u.Stage
	if u.Message != "" {
		fmt.Fprintf(r.w, "[%s] %s: %s\n", u.JobID, u.Stage, u.Message)
		return
	}
	fmt.Fprintf(r.w, "[%s] %s\n", u.JobID, u.Stage)
}

func (r *lineReporter) Log(l progress.Log) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "[%s] %s\n", l.JobID, l.Line)
}

func (r *lineReporter) Result(progress.Result) {}
