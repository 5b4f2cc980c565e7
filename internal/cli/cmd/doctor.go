package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tubebridge/internal/bridge"
	"tubebridge/internal/config"
	"tubebridge/internal/history"
	"tubebridge/internal/model"
	"tubebridge/internal/session"
	"tubebridge/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check ffmpeg, credentials and configured backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			cfgFile := viper.ConfigFileUsed()
			if cfgFile == "" {
				cfgFile = "(none)"
			}
			fmt.Fprintf(out, "Config:    %s\n", cfgFile)
			fmt.Fprintf(out, "Temp dir:  %s\n", cfg.TempDir)

			ff, ferr := deps.FindFFmpeg(cfg.FFmpegPath)
			switch {
			case ferr == nil:
				fmt.Fprintf(out, "FFmpeg:    %s\n", ff)
			case cfg.AudioFormat == model.AudioMP3:
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			default:
				fmt.Fprintln(out, "FFmpeg:    not found (only needed for audio_format: mp3)")
			}

			fmt.Fprintf(out, "Telegram:  %s\n", present(cfg.TelegramToken))
			fmt.Fprintf(out, "Target:    %s\n", present(cfg.TargetJID))

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return checkBackends(ctx, out, cfg)
		},
	}
}

func checkBackends(ctx context.Context, out io.Writer, cfg config.Config) error {
	var failed int
	check := func(name, url string, ping func() error) {
		if url == "" {
			fmt.Fprintf(out, "%-10s not configured\n", name+":")
			return
		}
		if err := ping(); err != nil {
			failed++
			fmt.Fprintf(out, "%-10s %v\n", name+":", err)
			return
		}
		fmt.Fprintf(out, "%-10s ok\n", name+":")
	}

	check("Redis", cfg.RedisURL, func() error {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return err
		}
		return rs.Close()
	})
	check("MongoDB", cfg.MongoURL, func() error {
		m, err := history.NewMongo(ctx, cfg.MongoURL)
		if err != nil {
			return err
		}
		return m.Close(ctx)
	})
	check("Postgres", cfg.DatabaseURL, func() error {
		return bridge.PingDatabase(ctx, cfg.DatabaseURL)
	})

	if failed > 0 {
		return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("%d backend(s) unreachable", failed)}
	}
	return nil
}

func present(s string) string {
	if s == "" {
		return "not set"
	}
	return "set"
}
