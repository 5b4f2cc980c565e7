package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"tubebridge/internal/config"
	"tubebridge/internal/model"
	"tubebridge/internal/pipeline"
	"tubebridge/internal/ui"
	"tubebridge/internal/util"
	"tubebridge/internal/util/format"
	"tubebridge/internal/util/media"
)

const singleJobID = "video"

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "get <url>",
		Short:         "Download a video or playlist as video or audio",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE:          runGet,
	}
	cmd.Flags().BoolP("audio", "a", false, "Download audio instead of video")
	cmd.Flags().StringP("out-dir", "o", ".", "Where finished files are moved")
	cmd.Flags().String("audio-format", "", "Audio output: native or mp3 (overrides audio_format)")
	cmd.Flags().Int("limit", 0, "Max playlist items (overrides playlist.limit)")
	cmd.Flags().Bool("keep-temp", false, "Leave files in the temp dir instead of moving them")
	cmd.Flags().Bool("no-ui", false, "Disable TUI; use plain textual output")
	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	ref, err := util.ParseYouTubeURL(args[0])
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	bindGetFlags(viper.GetViper(), cmd.Flags())
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kind := model.KindVideo
	if audio, _ := cmd.Flags().GetBool("audio"); audio {
		kind = model.KindAudio
	}
	outDir, _ := cmd.Flags().GetString("out-dir")
	noUI, _ := cmd.Flags().GetBool("no-ui")
	if err := util.EnsureDir(cfg.TempDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("create temp dir: %w", err)}
	}

	useTUI := !noUI && isTerminal()
	var extra []pipeline.Option
	if !useTUI {
		extra = append(extra, pipeline.WithReporter(newLineReporter(cmd.ErrOrStderr(), cfg.Verbose)))
	}
	if ref.Kind == util.RefVideo {
		extra = append(extra, pipeline.WithJobID(singleJobID))
	}
	svc, err := newService(cfg, kind, extra...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ref.Kind == util.RefPlaylist {
		return getPlaylist(cmd.Context(), out, svc, cfg, ref, kind, outDir, useTUI)
	}
	return getSingle(cmd.Context(), out, svc, cfg, ref, kind, outDir, useTUI)
}

// getFlagKeys maps get flags onto their config keys.
var getFlagKeys = map[string]string{
	"audio-format": "audio_format",
	"limit":        "playlist.limit",
	"keep-temp":    "keep_temp",
}

// bindGetFlags lets explicitly set flags override config and env.
func bindGetFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := getFlagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})
}

func getSingle(ctx context.Context, out io.Writer, svc *pipeline.Service, cfg config.Config, ref util.Ref, kind model.Kind, outDir string, useTUI bool) error {
	var (
		res    model.DownloadResult
		runErr error
	)
	if useTUI {
		job := ui.Job{
			Title: string(kind),
			Rows:  []ui.Row{{ID: singleJobID, Label: ref.URL()}},
			Run: func(ctx context.Context) []model.DownloadResult {
				res, runErr = svc.DownloadErr(ctx, ref.URL(), kind)
				return []model.DownloadResult{res}
			},
		}
		if _, err := ui.Run(ctx, job); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		if runErr == nil && !res.Success {
			runErr = errors.New("cancelled")
		}
	} else {
		res, runErr = svc.DownloadErr(ctx, ref.URL(), kind)
	}
	if runErr != nil {
		return &ExitError{Code: exitCodeFor(runErr), Err: runErr}
	}

	path, err := deliver(res.FilePath, outDir, cfg.KeepTemp)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	fmt.Fprintf(out, "Saved: %s (%s)\n", path, format.HumanizeBytes(res.Bytes))
	return nil
}

func getPlaylist(ctx context.Context, out io.Writer, svc *pipeline.Service, cfg config.Config, ref util.Ref, kind model.Kind, outDir string, useTUI bool) error {
	batch, err := svc.ListPlaylist(ctx, ref.PlaylistID)
	if err != nil {
		return &ExitError{Code: ExitDownloadError, Err: err}
	}

	var results []model.DownloadResult
	if useTUI {
		job := ui.Job{Title: "playlist " + batch.ID, Run: func(ctx context.Context) []model.DownloadResult {
			return svc.ProcessPlaylist(ctx, batch, kind)
		}}
		for i, it := range batch.Items {
			label := it.Title
			if label == "" {
				label = it.URL()
			}
			job.Rows = append(job.Rows, ui.Row{ID: pipeline.ItemJobID(batch.ID, i), Label: label})
		}
		if results, err = ui.Run(ctx, job); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	} else {
		results = svc.ProcessPlaylist(ctx, batch, kind)
	}

	failed := 0
	for i, r := range results {
		if !r.Success {
			failed++
			continue
		}
		path, err := deliver(r.FilePath, outDir, cfg.KeepTemp)
		if err != nil {
			results[i] = model.Failed(r.Title, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Saved: %s (%s)\n", path, format.HumanizeBytes(r.Bytes))
	}
	fmt.Fprintln(out, media.PlaylistSummary(batch.Title, results))
	if len(results) == 0 {
		return &ExitError{Code: ExitDownloadError, Err: errors.New("no playlist items were processed")}
	}
	if failed > 0 {
		return &ExitError{Code: ExitDownloadError, Err: fmt.Errorf("%d of %d playlist items failed", failed, len(results))}
	}
	return nil
}

// deliver moves a finished file to outDir unless keepTemp is set.
func deliver(path, outDir string, keepTemp bool) (string, error) {
	if keepTemp {
		return path, nil
	}
	dst, err := util.MoveFile(path, filepath.Clean(outDir))
	if err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(path), err)
	}
	return dst, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
