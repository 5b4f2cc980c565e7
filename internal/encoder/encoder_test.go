package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tubebridge/internal/progress"
	"tubebridge/internal/util"
)

// fakeRunner writes the last argument as the output file and replays lines.
type fakeRunner struct {
	stdout []string
	stderr []string
	err    error
	spec   util.CmdSpec
}

func (f *fakeRunner) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.spec = spec
	for _, l := range f.stdout {
		spec.OnStdout(l)
	}
	for _, l := range f.stderr {
		spec.OnStderr(l)
	}
	out := spec.Args[len(spec.Args)-1]
	if err := os.WriteFile(out, []byte("ID3 partial"), 0o644); err != nil {
		return util.CmdResult{Code: -1}, err
	}
	if f.err != nil {
		return util.CmdResult{Code: 1}, f.err
	}
	return util.CmdResult{}, nil
}

type captureReporter struct {
	updates []progress.Update
	logs    []progress.Log
}

func (c *captureReporter) Update(u progress.Update) { c.updates = append(c.updates, u) }
func (c *captureReporter) Log(l progress.Log)       { c.logs = append(c.logs, l) }
func (c *captureReporter) Result(progress.Result)   {}

func TestToMP3(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "song.mp3")
	runner := &fakeRunner{
		stdout: []string{"out_time_us=5000000", "progress=continue", "progress=end"},
		stderr: []string{"Input #0, matroska,webm"},
	}
	rep := &captureReporter{}

	got, err := ToMP3(context.Background(), filepath.Join(dir, "song.webm"), out, Options{
		FFmpegPath:  "ffmpeg",
		Runner:      runner,
		Reporter:    rep,
		JobID:       "j1",
		DurationSec: 10,
	})
	if err != nil {
		t.Fatalf("ToMP3: %v", err)
	}
	if got.Path != out || got.Bytes == 0 {
		t.Errorf("unexpected output %+v", got)
	}
	if len(rep.updates) != 2 || rep.updates[0].Percent != 50 || rep.updates[1].Percent != 100 {
		t.Errorf("unexpected updates %+v", rep.updates)
	}
	if len(rep.logs) != 1 {
		t.Errorf("expected stderr relayed as log, got %+v", rep.logs)
	}
}

func TestToMP3_FailureRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "song.mp3")
	runner := &fakeRunner{err: errors.New("exit status 1")}

	_, err := ToMP3(context.Background(), filepath.Join(dir, "song.webm"), out, Options{FFmpegPath: "ffmpeg", Runner: runner})
	if !errors.Is(err, ErrTranscodeFailed) {
		t.Fatalf("expected ErrTranscodeFailed, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("partial output should be removed, stat err = %v", statErr)
	}
}

func TestToMP3_MissingFFmpeg(t *testing.T) {
	if _, err := ToMP3(context.Background(), "in", "out", Options{}); !errors.Is(err, ErrTranscodeFailed) {
		t.Fatalf("expected ErrTranscodeFailed, got %v", err)
	}
}
