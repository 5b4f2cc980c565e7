package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tubebridge/internal/progress"
	"tubebridge/internal/util"
)

// ErrTranscodeFailed wraps every ffmpeg failure.
var ErrTranscodeFailed = errors.New("transcode failed")

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath  string
	Runner      util.CmdRunner // nil uses util.NewDefaultRunner
	Reporter    progress.Reporter
	JobID       string
	DurationSec int // used for percentages; 0 if unknown
}

// Output describes the transcoded file.
type Output struct {
	Path  string
	Bytes int64
}

// ToMP3 transcodes inputPath into outputPath. The input is left untouched;
// on failure any partial output is removed.
func ToMP3(ctx context.Context, inputPath, outputPath string, opts Options) (Output, error) {
	if opts.FFmpegPath == "" {
		return Output{}, fmt.Errorf("%w: ffmpeg path is required", ErrTranscodeFailed)
	}
	if inputPath == "" || outputPath == "" {
		return Output{}, fmt.Errorf("%w: input and output paths are required", ErrTranscodeFailed)
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	rep := opts.Reporter
	if rep == nil {
		rep = progress.Nop{}
	}
	if err := util.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return Output{}, fmt.Errorf("%w: ensure output dir: %v", ErrTranscodeFailed, err)
	}

	var ps ProgressState
	_, runErr := runner.Run(ctx, util.CmdSpec{
		Path: opts.FFmpegPath,
		Args: BuildMP3Args(inputPath, outputPath, true),
		OnStdout: func(line string) {
			if u, ok := ps.UpdateFromLine(line, opts.JobID, opts.DurationSec); ok {
				rep.Update(u)
			}
		},
		OnStderr: func(line string) {
			rep.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
		},
	})
	if runErr != nil {
		_ = util.RemoveIfExists(outputPath)
		return Output{}, fmt.Errorf("%w: %v", ErrTranscodeFailed, runErr)
	}

	fi, err := os.Stat(outputPath)
	if err != nil {
		return Output{}, fmt.Errorf("%w: stat output: %v", ErrTranscodeFailed, err)
	}
	return Output{Path: outputPath, Bytes: fi.Size()}, nil
}
