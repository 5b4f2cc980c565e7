package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"tubebridge/internal/bridge"
	"tubebridge/internal/downloader"
	"tubebridge/internal/telegram"
	"tubebridge/internal/web"
)

func newBridgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "bridge",
		Short:         "Forward Telegram messages to a WhatsApp chat",
		Long:          "Runs a Telegram bot whose messages, photos, videos and documents are forwarded to one WhatsApp chat. Pair WhatsApp by scanning the QR code served on http.port.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runBridge,
	}
}

func runBridge(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireBridge(); err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	target, err := bridge.ParseTarget(cfg.TargetJID)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("bridge.target_jid: %w", err)}
	}

	wa, err := bridge.OpenWhatsApp(ctx, cfg.DatabaseURL)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	defer wa.Close()

	sup := bridge.NewSupervisor(wa,
		bridge.WithPolicy(bridge.Policy{
			BackoffBase: cfg.BackoffBase,
			BackoffMax:  cfg.BackoffMax,
			MaxAttempts: cfg.MaxAttempts,
		}),
		bridge.WithStateHook(func(s bridge.State) { slog.Info("whatsapp state", "state", s) }),
	)
	wa.Bind(sup)

	api, err := telegram.Connect(cfg.TelegramToken, cfg.Debug)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("telegram: %w", err)}
	}
	hc, err := downloader.NewHTTPClient(int(cfg.HTTPTimeout.Seconds()))
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	hist := newHistory(ctx, cfg)
	defer closeWithTimeout(hist.Close)

	relay := bridge.NewRelay(api, wa, &telegram.FileFetcher{API: api, HTTP: hc}, sup, target, hist)
	snapshot := func() web.Snapshot {
		return web.Snapshot{
			State:  string(sup.State()),
			QR:     wa.QR(),
			Paired: wa.Paired() && sup.State() == bridge.StatePaired,
			Target: relay.Target().String(),
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = sup.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := web.Serve(ctx, fmt.Sprintf(":%d", cfg.HTTPPort), web.NewHandler(snapshot)); err != nil {
			errCh <- err
			cancel()
		}
	}()

	slog.Info("bridge started", "telegram", api.Self.UserName, "target", target.String(), "port", cfg.HTTPPort)
	// one worker keeps forwarded messages in the order they were sent
	telegram.Poll(ctx, api, 1, relay.Handle)
	wg.Wait()

	select {
	case err := <-errCh:
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("web server: %w", err)}
	default:
	}
	slog.Info("bridge stopped")
	return nil
}
