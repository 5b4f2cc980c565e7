package progress

import (
	"context"
	"time"
)

// Stage identifies a high-level step in the pipeline.
type Stage string

const (
	StageMetadata    Stage = "metadata"
	StageSelecting   Stage = "selecting"
	StageDownloading Stage = "downloading"
	StageVerifying   Stage = "verifying"
	StageTranscoding Stage = "transcoding"
	StageCompleted   Stage = "completed"
	StageError       Stage = "error"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job.
// Percent is 0..100 when known; set to a negative value (e.g., -1) to mean unknown.
type Update struct {
	JobID   string
	Stage   Stage
	Percent float64 // 0..100, or <0 if unknown

	ETA     *time.Duration // optional
	Bytes   *int64         // optional cumulative bytes
	Speed   *string        // optional, e.g., "2.5MiB/s" or "1.2x"
	Message string         // short human-friendly status line
}

// Log is a structured log line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it completes or fails.
type Result struct {
	JobID      string
	Title      string
	OutputPath string
	Bytes      int64
	Err        error // nil on success
}

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}

type ctxKey struct{}

// ContextWithReporter attaches a per-call reporter that pipeline stages
// notify in addition to their configured one.
func ContextWithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the reporter attached by ContextWithReporter, or nil.
func FromContext(ctx context.Context) Reporter {
	r, _ := ctx.Value(ctxKey{}).(Reporter)
	return r
}

// Tee fans events out to every non-nil reporter.
func Tee(rs ...Reporter) Reporter {
	var out tee
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}

type tee []Reporter

func (t tee) Update(u Update) {
	for _, r := range t {
		r.Update(u)
	}
}

func (t tee) Log(l Log) {
	for _, r := range t {
		r.Log(l)
	}
}

func (t tee) Result(res Result) {
	for _, r := range t {
		r.Result(res)
	}
}
