package util

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// CmdSpec describes a subprocess to run.
type CmdSpec struct {
	Path string
	Args []string
	Env  []string // extra KEY=VALUE pairs appended to the parent environment
	Dir  string

	// OnStdout/OnStderr receive each output line as it arrives.
	OnStdout func(string)
	OnStderr func(string)
	// KeepStdout buffers stdout into CmdResult even when OnStdout is set.
	KeepStdout bool
}

// CmdResult contains captured output and exit status.
type CmdResult struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

// CmdRunner runs subprocesses. The encoder takes one so tests can fake ffmpeg.
type CmdRunner interface {
	Run(ctx context.Context, spec CmdSpec) (CmdResult, error)
}

type defaultRunner struct{}

func (defaultRunner) Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	return Run(ctx, spec)
}

// NewDefaultRunner returns a CmdRunner backed by os/exec.
func NewDefaultRunner() CmdRunner { return defaultRunner{} }

const maxLine = 1024 * 1024

// Run executes the command and waits for it. Stderr is always captured.
// A non-zero exit returns an error carrying the exit code and the last
// stderr line; CmdResult is populated either way.
func Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return CmdResult{Code: -1}, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return CmdResult{Code: -1}, err
	}

	slog.Debug("exec", "cmd", shellQuote(spec.Path, spec.Args))

	if err := cmd.Start(); err != nil {
		return CmdResult{Code: -1}, err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		capture := spec.KeepStdout || spec.OnStdout == nil
		scanLines(stdoutPipe, spec.OnStdout, &stdoutBuf, capture)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderrPipe, spec.OnStderr, &stderrBuf, true)
	}()

	waitErr := cmd.Wait()
	wg.Wait()

	res := CmdResult{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	if waitErr == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.Code = exitErr.ExitCode()
	} else {
		res.Code = -1
	}
	if last := lastLine(res.Stderr); last != "" {
		return res, fmt.Errorf("%s exited %d: %s: %w", spec.Path, res.Code, last, waitErr)
	}
	return res, fmt.Errorf("%s exited %d: %w", spec.Path, res.Code, waitErr)
}

func scanLines(r io.Reader, fn func(string), buf *bytes.Buffer, capture bool) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := sc.Text()
		if fn != nil {
			fn(line)
		}
		if capture {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		slog.Debug("scan subprocess output", "err", err)
	}
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// shellQuote returns a printable shell-like command string for logging.
func shellQuote(path string, args []string) string {
	b := &strings.Builder{}
	b.WriteString(quote(path))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(quote(a))
	}
	return b.String()
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n\"'\\$`(){}[]*&;|<>?!") {
		return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
	}
	return s
}
