package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tubebridge/internal/model"
	"tubebridge/internal/telegram"
	"tubebridge/internal/util"
	"tubebridge/internal/web"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bot",
		Short:         "Run the Telegram download bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runBot,
	}
	cmd.Flags().Bool("health", false, "Serve /health on http.port")
	return cmd
}

func runBot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	if err := util.EnsureDir(cfg.TempDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("create temp dir: %w", err)}
	}

	svc, err := newService(cfg, model.KindVideo)
	if err != nil {
		return err
	}
	if err := svc.CleanTemp(); err != nil {
		slog.Warn("clean temp dir", "dir", cfg.TempDir, "err", err)
	}
	defer func() {
		if err := svc.CleanTemp(); err != nil {
			slog.Warn("clean temp dir", "dir", cfg.TempDir, "err", err)
		}
	}()

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("session store: %w", err)}
	}
	defer closeSessions()
	hist := newHistory(ctx, cfg)
	defer closeWithTimeout(hist.Close)

	api, err := telegram.Connect(cfg.TelegramToken, cfg.Debug)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("telegram: %w", err)}
	}
	slog.Info("telegram bot started", "user", api.Self.UserName, "temp_dir", cfg.TempDir)

	host, _ := os.Hostname()
	router := telegram.NewRouter(api, svc, sessions, hist, telegram.Config{
		Hostname:      host,
		TempDir:       cfg.TempDir,
		PlaylistLimit: cfg.PlaylistLimit,
	})

	if health, _ := cmd.Flags().GetBool("health"); health {
		h := web.HealthHandler(func() web.Snapshot { return web.Snapshot{State: "running"} })
		go func() {
			if err := web.Serve(ctx, fmt.Sprintf(":%d", cfg.HTTPPort), h); err != nil {
				slog.Error("health server", "err", err)
			}
		}()
	}

	telegram.Poll(ctx, api, cfg.Workers, router.Handle)
	slog.Info("telegram bot stopped")
	return nil
}

func closeWithTimeout(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		slog.Warn("close", "err", err)
	}
}
