package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tubebridge/internal/model"
	"tubebridge/internal/util"
	"tubebridge/internal/util/format"
	"tubebridge/internal/util/media"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "info <url>",
		Short:         "Show video details and the formats that would be downloaded",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := util.ParseYouTubeURL(args[0])
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// planning never transcodes, so ffmpeg is not required here
			svcCfg := cfg
			svcCfg.AudioFormat = model.AudioNative
			svc, err := newService(svcCfg, model.KindVideo)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if ref.Kind == util.RefPlaylist {
				batch, err := svc.ListPlaylist(cmd.Context(), ref.PlaylistID)
				if err != nil {
					return &ExitError{Code: ExitDownloadError, Err: err}
				}
				printBatch(out, batch, cfg.PlaylistLimit)
				return nil
			}

			info, err := svc.FetchInfo(cmd.Context(), ref.URL())
			if err != nil {
				return &ExitError{Code: ExitDownloadError, Err: err}
			}
			fmt.Fprintln(out, media.InfoCard(info))
			if info.Degraded {
				fmt.Fprintln(out, "\n(formats unavailable: details came from the oEmbed fallback)")
				return nil
			}
			fmt.Fprintln(out)
			for _, kind := range []model.Kind{model.KindVideo, model.KindAudio} {
				plan, err := svc.Plan(info, kind)
				if err != nil {
					fmt.Fprintf(out, "%-6s no matching format (%v)\n", kind, err)
					continue
				}
				c := plan.Candidate
				note := ""
				if kind == model.KindAudio && cfg.AudioFormat == model.AudioMP3 {
					note = " (then mp3)"
				}
				fmt.Fprintf(out, "%-6s itag %d %s %s -> %s%s\n", kind, c.Itag, c.QualityLabel, c.MimeType, plan.FinalPath, note)
			}
			if cfg.Verbose {
				fmt.Fprintln(out)
				printCandidates(out, info.Candidates)
			}
			return nil
		},
	}
}

func printBatch(w io.Writer, b model.PlaylistBatch, limit int) {
	title := b.Title
	if title == "" {
		title = b.ID
	}
	fmt.Fprintf(w, "📃 %s\n", title)
	if limit > 0 {
		fmt.Fprintf(w, "First %d items will be downloaded:\n", limit)
	}
	for i, it := range b.Items {
		fmt.Fprintf(w, "%3d. %s  %s\n", i+1, it.ID, it.Title)
	}
}

func printCandidates(w io.Writer, cs []model.MediaCandidate) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ITAG\tQUALITY\tHEIGHT\tAV\tBITRATE\tSIZE\tMIME")
	for _, c := range cs {
		av := ""
		if c.HasVideo {
			av += "v"
		}
		if c.HasAudio {
			av += "a"
		}
		size := "-"
		if c.Size > 0 {
			size = format.HumanizeBytes(c.Size)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%s\t%s\n", c.Itag, c.QualityLabel, c.Height, av, c.Bitrate, size, c.MimeType)
	}
	tw.Flush()
}
