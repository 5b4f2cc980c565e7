package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"tubebridge/internal/model"
	"tubebridge/internal/progress"
	"tubebridge/internal/util/format"
)

// Row is one line of the job list. ID must match the progress job id the
// pipeline reports for it.
type Row struct {
	ID    string
	Label string
}

// Job is the work shown by the TUI. Run receives a context carrying the
// TUI's reporter and returns one result per row it processed.
type Job struct {
	Title string
	Rows  []Row
	Run   func(ctx context.Context) []model.DownloadResult
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	job      Job
	jobOrder []string
	jobs     map[string]*jobState
	results  []model.DownloadResult
	finished bool
	stopping bool

	width, height int
	styles        Styles

	// fed by teaReporter from the pipeline goroutine
	eventCh chan tea.Msg
	// closed once the program has exited
	stop chan struct{}
}

func NewModel(ctx context.Context, job Job) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	jobs := make(map[string]*jobState, len(job.Rows))
	order := make([]string, 0, len(job.Rows))
	for _, r := range job.Rows {
		js := newJobState(r.ID, r.Label, sty)
		jobs[r.ID] = &js
		order = append(order, r.ID)
	}
	return Model{
		ctx:      c,
		cancel:   cancel,
		job:      job,
		jobs:     jobs,
		jobOrder: order,
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
		stop:     make(chan struct{}),
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		cmds = append(cmds, m.jobs[id].spinner.Tick)
	}
	cmds = append(cmds, m.listenEventsCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.finished {
				return m, tea.Quit
			}
			// runDoneMsg quits once the pipeline has unwound
			m.cancel()
			m.stopping = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.jobs[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			if u.Message != "" {
				js.status = u.Message
			}
			if u.Bytes != nil {
				js.bytes = *u.Bytes
			}
		}
		return m, m.listenEventsCmd()
	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			line := strings.TrimRight(l.Line, "\r\n")
			if len(js.logsRing) > 200 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, line)
		}
		return m, m.listenEventsCmd()
	case jobResultMsg:
		m.applyResult(msg.R)
		return m, m.listenEventsCmd()
	case runDoneMsg:
		m.results = msg.Results
		m.finished = true
		for i, res := range msg.Results {
			if i >= len(m.jobOrder) {
				break
			}
			// rows the pipeline never reached (cancelled playlist tail)
			if js := m.jobs[m.jobOrder[i]]; !js.done && !res.Success {
				js.done = true
				js.stage = progress.StageError
				js.status = res.Error
				js.err = fmt.Errorf("%s", res.Error)
			}
		}
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) applyResult(r progress.Result) {
	js, ok := m.jobs[r.JobID]
	if !ok {
		return
	}
	js.done = true
	js.err = r.Err
	if r.Title != "" {
		js.label = r.Title
	}
	if r.Err != nil {
		js.stage = progress.StageError
		js.status = r.Err.Error()
		js.percent = -1
		return
	}
	js.stage = progress.StageCompleted
	js.percent = 100
	js.outputPath = r.OutputPath
	js.bytes = r.Bytes
	if r.OutputPath != "" {
		js.status = fmt.Sprintf("Saved: %s (%s)", filepath.Base(r.OutputPath), format.HumanizeBytes(r.Bytes))
	} else {
		js.status = "Completed"
	}
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.stop:
			return nil
		case msg := <-m.eventCh:
			return msg
		}
	}
}

// start runs the job outside the program's command loop, so it always runs
// to completion even when the program exits first. The channel yields the
// job's results once Run has returned.
func (m Model) start() <-chan []model.DownloadResult {
	done := make(chan []model.DownloadResult, 1)
	go func() {
		ctx := progress.ContextWithReporter(m.ctx, teaReporter{ch: m.eventCh, stop: m.stop})
		results := m.job.Run(ctx)
		done <- results
		// flush through the event channel so results land after the last update
		select {
		case m.eventCh <- runDoneMsg{Results: results}:
		case <-m.stop:
		}
	}()
	return done
}

type teaReporter struct {
	ch   chan tea.Msg
	stop <-chan struct{}
}

func (r teaReporter) Update(u progress.Update) {
	// completion and error updates must not be dropped
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}

func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.stop:
	}
}
