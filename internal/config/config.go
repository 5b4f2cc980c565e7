package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tubebridge/internal/dirs"
	"tubebridge/internal/downloader"
	"tubebridge/internal/model"
	"tubebridge/internal/session"
)

// Config is the resolved runtime configuration.
type Config struct {
	TempDir        string
	Verbose        bool
	Debug          bool
	KeepTemp       bool
	PlaylistLimit  int
	PlaylistDelay  time.Duration
	MinBytes       int64
	AudioFormat    string
	FFmpegPath     string
	OEmbedFallback bool
	HTTPTimeout    time.Duration

	SessionTTL time.Duration
	RedisURL   string

	TelegramToken string
	Workers       int

	TargetJID   string
	DatabaseURL string
	MongoURL    string
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	HTTPPort    int
}

// ErrMissing is wrapped by Require* when a credential is absent.
var ErrMissing = errors.New("missing required setting")

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	tmp, err := dirs.TempBaseDir()
	if err != nil {
		tmp = "temp"
	}
	v.SetDefault("temp_dir", tmp)
	v.SetDefault("verbose", false)
	v.SetDefault("debug", false)
	v.SetDefault("keep_temp", false)
	v.SetDefault("playlist.limit", 3)
	v.SetDefault("playlist.delay", 3*time.Second)
	v.SetDefault("min_bytes", downloader.DefaultMinBytes)
	v.SetDefault("audio_format", model.AudioNative)
	v.SetDefault("ffmpeg_path", "")
	v.SetDefault("oembed_fallback", true)
	v.SetDefault("http.timeout", 60*time.Second)
	v.SetDefault("session.ttl", session.DefaultTTL)
	v.SetDefault("session.redis_url", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.workers", 4)
	v.SetDefault("bridge.target_jid", "")
	v.SetDefault("bridge.database_url", "")
	v.SetDefault("bridge.mongo_url", "")
	v.SetDefault("bridge.max_attempts", 5)
	v.SetDefault("bridge.backoff_base", 2*time.Second)
	v.SetDefault("bridge.backoff_max", time.Minute)
	v.SetDefault("http.port", 3000)
}

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: a missing config file is ignored, a broken one is returned.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()
	v := viper.GetViper()
	SetDefaults(v)

	if f := root.PersistentFlags().Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
	} else {
		if cfgDir, err := dirs.ConfigDir(); err == nil {
			v.AddConfigPath(cfgDir)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config") // config.{yaml|yml|json|toml}
	}

	// TUBEBRIDGE_PLAYLIST_LIMIT, TUBEBRIDGE_TEMP_DIR, ...
	v.SetEnvPrefix("TUBEBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	_ = v.BindPFlag("temp_dir", root.PersistentFlags().Lookup("temp-dir"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = v.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && v.ConfigFileUsed() != "" {
			return fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return nil
}

// bindLegacyEnv accepts the unprefixed variable names deployments already use.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("telegram.token", "TUBEBRIDGE_TELEGRAM_TOKEN", "TELEGRAM_TOKEN", "BOT_TOKEN")
	_ = v.BindEnv("bridge.target_jid", "TUBEBRIDGE_BRIDGE_TARGET_JID", "TARGET_JID")
	_ = v.BindEnv("bridge.database_url", "TUBEBRIDGE_BRIDGE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("bridge.mongo_url", "TUBEBRIDGE_BRIDGE_MONGO_URL", "MONGO_URL")
	_ = v.BindEnv("session.redis_url", "TUBEBRIDGE_SESSION_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("http.port", "TUBEBRIDGE_HTTP_PORT", "PORT")
}

// Load resolves and validates the configuration.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		TempDir:        v.GetString("temp_dir"),
		Verbose:        v.GetBool("verbose"),
		Debug:          v.GetBool("debug"),
		KeepTemp:       v.GetBool("keep_temp"),
		PlaylistLimit:  v.GetInt("playlist.limit"),
		PlaylistDelay:  v.GetDuration("playlist.delay"),
		MinBytes:       v.GetInt64("min_bytes"),
		AudioFormat:    strings.ToLower(strings.TrimSpace(v.GetString("audio_format"))),
		FFmpegPath:     v.GetString("ffmpeg_path"),
		OEmbedFallback: v.GetBool("oembed_fallback"),
		HTTPTimeout:    v.GetDuration("http.timeout"),
		SessionTTL:     v.GetDuration("session.ttl"),
		RedisURL:       v.GetString("session.redis_url"),
		TelegramToken:  strings.TrimSpace(v.GetString("telegram.token")),
		Workers:        v.GetInt("telegram.workers"),
		TargetJID:      strings.TrimSpace(v.GetString("bridge.target_jid")),
		DatabaseURL:    v.GetString("bridge.database_url"),
		MongoURL:       v.GetString("bridge.mongo_url"),
		MaxAttempts:    v.GetInt("bridge.max_attempts"),
		BackoffBase:    v.GetDuration("bridge.backoff_base"),
		BackoffMax:     v.GetDuration("bridge.backoff_max"),
		HTTPPort:       v.GetInt("http.port"),
	}

	switch c.AudioFormat {
	case model.AudioNative, model.AudioMP3:
	default:
		return Config{}, fmt.Errorf("invalid audio_format %q (valid: native|mp3)", c.AudioFormat)
	}
	if c.TempDir == "" {
		return Config{}, errors.New("temp_dir must not be empty")
	}
	if c.PlaylistLimit < 0 {
		return Config{}, fmt.Errorf("playlist.limit must be >= 0, got %d", c.PlaylistLimit)
	}
	if c.PlaylistDelay < 0 {
		return Config{}, fmt.Errorf("playlist.delay must be >= 0, got %s", c.PlaylistDelay)
	}
	if c.MinBytes <= 0 {
		c.MinBytes = downloader.DefaultMinBytes
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return Config{}, fmt.Errorf("http.port out of range: %d", c.HTTPPort)
	}
	return c, nil
}

// Options maps the configuration onto pipeline options.
func (c Config) Options(kind model.Kind) model.Options {
	return model.Options{
		TempDir:        c.TempDir,
		Kind:           kind,
		PlaylistLimit:  c.PlaylistLimit,
		PlaylistDelay:  c.PlaylistDelay,
		MinBytes:       c.MinBytes,
		AudioFormat:    c.AudioFormat,
		OEmbedFallback: c.OEmbedFallback,
		KeepTemp:       c.KeepTemp,
		Verbose:        c.Verbose,
	}
}

// RequireTelegram fails when no bot token is configured.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("%w: telegram.token (or TELEGRAM_TOKEN)", ErrMissing)
	}
	return nil
}

// RequireBridge fails when any bridge credential is absent.
func (c Config) RequireBridge() error {
	if err := c.RequireTelegram(); err != nil {
		return err
	}
	if c.TargetJID == "" {
		return fmt.Errorf("%w: bridge.target_jid (or TARGET_JID)", ErrMissing)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: bridge.database_url (or DATABASE_URL)", ErrMissing)
	}
	return nil
}
