package cmd

import (
	"context"
	"log/slog"

	"tubebridge/internal/config"
	"tubebridge/internal/downloader"
	"tubebridge/internal/history"
	"tubebridge/internal/model"
	"tubebridge/internal/pipeline"
	"tubebridge/internal/session"
	"tubebridge/internal/util/deps"
)

// newService wires the download pipeline from configuration.
func newService(cfg config.Config, kind model.Kind, extra ...pipeline.Option) (*pipeline.Service, error) {
	opts := cfg.Options(kind)
	var ffmpeg string
	if opts.AudioFormat == model.AudioMP3 {
		p, err := deps.FindFFmpeg(cfg.FFmpegPath)
		if err != nil {
			return nil, &ExitError{Code: ExitMissingDep, Err: err}
		}
		ffmpeg = p
	}

	yt := downloader.NewYouTube(cfg.HTTPTimeout)
	info := &downloader.InfoFetcher{Extractor: yt, Fallback: opts.OEmbedFallback}
	if hc, err := downloader.NewHTTPClient(int(cfg.HTTPTimeout.Seconds())); err == nil {
		info.HTTP = hc
	} else {
		slog.Warn("http client unavailable, thumbnail probe and oEmbed fallback disabled", "err", err)
	}

	all := []pipeline.Option{
		pipeline.WithExtractor(yt),
		pipeline.WithInfoSource(info),
		pipeline.WithLister(downloader.YTDLPLister{Timeout: cfg.HTTPTimeout}),
		pipeline.WithOptions(opts),
		pipeline.WithFFmpegPath(ffmpeg),
	}
	return pipeline.NewService(append(all, extra...)...), nil
}

// newSessionStore uses Redis when configured, memory otherwise.
func newSessionStore(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
	rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("sessions stored in redis")
	return rs, func() { _ = rs.Close() }, nil
}

// newHistory uses MongoDB when configured and records nothing otherwise.
func newHistory(ctx context.Context, cfg config.Config) history.Recorder {
	if cfg.MongoURL == "" {
		return history.Nop{}
	}
	m, err := history.NewMongo(ctx, cfg.MongoURL)
	if err != nil {
		slog.Warn("history disabled", "err", err)
		return history.Nop{}
	}
	slog.Info("history recorded in mongodb")
	return m
}
