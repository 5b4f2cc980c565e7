package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"tubebridge/internal/model"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(newViper(t))
	if err != nil {
		t.Fatal(err)
	}
	if c.PlaylistLimit != 3 || c.PlaylistDelay != 3*time.Second {
		t.Errorf("playlist = %d/%s", c.PlaylistLimit, c.PlaylistDelay)
	}
	if c.MinBytes != 1000 || c.AudioFormat != model.AudioNative || !c.OEmbedFallback {
		t.Errorf("download defaults = %+v", c)
	}
	if c.SessionTTL != 10*time.Minute || c.MaxAttempts != 5 || c.BackoffBase != 2*time.Second || c.BackoffMax != time.Minute {
		t.Errorf("bridge/session defaults = %+v", c)
	}
	if c.HTTPPort != 3000 || c.TempDir == "" {
		t.Errorf("port=%d temp=%q", c.HTTPPort, c.TempDir)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "temp_dir: /tmp/tb\naudio_format: MP3\nplaylist:\n  limit: 5\n  delay: 1s\nbridge:\n  target_jid: 1555@s.whatsapp.net\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	v := newViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	c, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.TempDir != "/tmp/tb" || c.AudioFormat != model.AudioMP3 || c.PlaylistLimit != 5 || c.PlaylistDelay != time.Second {
		t.Fatalf("config = %+v", c)
	}
	if c.TargetJID != "1555@s.whatsapp.net" {
		t.Fatalf("target = %q", c.TargetJID)
	}
	opts := c.Options(model.KindAudio)
	if opts.Kind != model.KindAudio || opts.TempDir != "/tmp/tb" || opts.PlaylistLimit != 5 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestLegacyEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TARGET_JID", "1555@s.whatsapp.net")
	v := newViper(t)
	bindLegacyEnv(v)
	c, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.TelegramToken != "123:abc" || c.TargetJID != "1555@s.whatsapp.net" {
		t.Fatalf("config = %+v", c)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		key string
		val any
	}{
		{"audio_format", "flac"},
		{"playlist.limit", -1},
		{"playlist.delay", "-1s"},
		{"http.port", 70000},
		{"temp_dir", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.val)
			if _, err := Load(v); err == nil {
				t.Fatalf("Load accepted %s=%v", tt.key, tt.val)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	var c Config
	if err := c.RequireTelegram(); !errors.Is(err, ErrMissing) {
		t.Fatalf("RequireTelegram = %v", err)
	}
	c.TelegramToken = "t"
	if err := c.RequireTelegram(); err != nil {
		t.Fatal(err)
	}
	if err := c.RequireBridge(); !errors.Is(err, ErrMissing) {
		t.Fatalf("RequireBridge without jid = %v", err)
	}
	c.TargetJID = "1@s.whatsapp.net"
	if err := c.RequireBridge(); !errors.Is(err, ErrMissing) {
		t.Fatalf("RequireBridge without database = %v", err)
	}
	c.DatabaseURL = "postgres://x"
	if err := c.RequireBridge(); err != nil {
		t.Fatal(err)
	}
}
