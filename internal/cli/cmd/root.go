package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tubebridge/internal/config"
	"tubebridge/internal/encoder"
	"tubebridge/internal/logger"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitMissingDep     = 2
	ExitDownloadError  = 3
	ExitTranscodeError = 4
	ExitConfigError    = 5
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tubebridge",
		Short: "YouTube downloads for chats, and a Telegram to WhatsApp bridge",
		Long: "tubebridge picks a sensible format for a YouTube video or playlist, downloads and verifies it, " +
			"and can serve that as a Telegram bot. It can also forward everything sent to a Telegram bot into a WhatsApp chat.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cmd.Root()); err != nil {
				return &ExitError{Code: ExitConfigError, Err: err}
			}
			debug := viper.GetBool("debug")
			logger.SetupGlobal(debug, debug)
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "Config file (default: <config dir>/config.yaml)")
	root.PersistentFlags().String("temp-dir", "", "Download directory (default: <cache dir>/temp)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show subprocess commands and output")
	root.PersistentFlags().Bool("debug", false, "Debug logging")

	root.AddCommand(newGetCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newBotCmd())
	root.AddCommand(newBridgeCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, &ExitError{Code: ExitConfigError, Err: err}
	}
	return cfg, nil
}

// exitCodeFor classifies a pipeline error. Anything that is not a
// transcode or config failure counts as a download error.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, encoder.ErrTranscodeFailed):
		return ExitTranscodeError
	case errors.Is(err, config.ErrMissing):
		return ExitConfigError
	}
	return ExitDownloadError
}
