// Package pipeline turns a link into verified files on disk: fetch info,
// select a stream, write it, verify it and optionally transcode it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tubebridge/internal/downloader"
	"tubebridge/internal/encoder"
	"tubebridge/internal/model"
	"tubebridge/internal/progress"
	"tubebridge/internal/util"
	"tubebridge/internal/util/format"
)

// InfoSource produces the info card for a video, possibly degraded.
type InfoSource interface {
	FetchByID(ctx context.Context, videoID string) (model.VideoInfo, error)
}

// Service orchestrates single downloads and playlist batches.
type Service struct {
	extractor  downloader.Extractor
	info       InfoSource
	lister     downloader.Lister
	opts       model.Options
	ffmpegPath string
	runner     util.CmdRunner
	reporter   progress.Reporter
	jobID      string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithExtractor sets the stream extractor. Required.
func WithExtractor(e downloader.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithInfoSource overrides how info cards are fetched. Defaults to an
// InfoFetcher over the extractor without fallback.
func WithInfoSource(i InfoSource) Option {
	return func(s *Service) { s.info = i }
}

// WithLister sets the playlist lister.
func WithLister(l downloader.Lister) Option {
	return func(s *Service) { s.lister = l }
}

// WithOptions sets runtime options.
func WithOptions(o model.Options) Option {
	return func(s *Service) { s.opts = o }
}

// WithFFmpegPath sets the ffmpeg binary used for mp3 output.
func WithFFmpegPath(p string) Option {
	return func(s *Service) { s.ffmpegPath = p }
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) { s.runner = r }
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) { s.reporter = rp }
}

// WithJobID fixes the job id of single downloads. Playlist items are
// identified by ItemJobID.
func WithJobID(id string) Option {
	return func(s *Service) { s.jobID = id }
}

// WithClock replaces time.Now for file naming.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSleep replaces the pause between playlist items.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) { s.sleep = fn }
}

// NewService constructs a Service and fills defaults.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.info == nil && s.extractor != nil {
		s.info = &downloader.InfoFetcher{Extractor: s.extractor}
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sleep == nil {
		s.sleep = sleepCtx
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.opts.MinBytes <= 0 {
		s.opts.MinBytes = downloader.DefaultMinBytes
	}
	return s
}

// FetchInfo returns the info card for a video link.
func (s *Service) FetchInfo(ctx context.Context, rawURL string) (model.VideoInfo, error) {
	ref, err := util.ParseYouTubeURL(rawURL)
	if err != nil {
		return model.VideoInfo{}, fmt.Errorf("%w: %w", downloader.ErrExtractionFailed, err)
	}
	if ref.Kind != util.RefVideo {
		return model.VideoInfo{}, fmt.Errorf("%w: not a video link", downloader.ErrExtractionFailed)
	}
	return s.info.FetchByID(ctx, ref.VideoID)
}

// Plan resolves what Download would fetch for info without writing
// anything. Degraded info has no candidates and fails with
// ErrNoMatchingFormat.
func (s *Service) Plan(info model.VideoInfo, kind model.Kind) (Plan, error) {
	return PlanDownload(info, kind, s.opts, s.now())
}

// Download runs the single-item pipeline for a video link. A failed result
// never points at a file left on disk.
func (s *Service) Download(ctx context.Context, rawURL string, kind model.Kind) model.DownloadResult {
	res, _ := s.DownloadErr(ctx, rawURL, kind)
	return res
}

// DownloadErr is Download with the failure also returned as an error value,
// for callers that branch on error kinds.
func (s *Service) DownloadErr(ctx context.Context, rawURL string, kind model.Kind) (model.DownloadResult, error) {
	ref, err := util.ParseYouTubeURL(rawURL)
	if err == nil && ref.Kind != util.RefVideo {
		err = errors.New("playlist link passed to single download")
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", downloader.ErrExtractionFailed, err)
		return model.Failed("", err), err
	}
	jobID := s.jobID
	if jobID == "" {
		jobID = s.newID()
	}
	res, err := s.run(ctx, ref.VideoID, "", kind, jobID)
	if err != nil {
		return model.Failed(res.Title, err), err
	}
	return res, nil
}

func (s *Service) run(ctx context.Context, videoID, title string, kind model.Kind, jobID string) (res model.DownloadResult, err error) {
	res = model.DownloadResult{Title: title, Kind: kind}
	if s.extractor == nil {
		return res, errors.New("no extractor configured")
	}
	rep := progress.Tee(s.reporter, progress.FromContext(ctx))
	defer func() {
		if err != nil {
			rep.Update(progress.Update{JobID: jobID, Stage: progress.StageError, Percent: -1, Message: err.Error()})
			rep.Result(progress.Result{JobID: jobID, Title: res.Title, Err: err})
		}
	}()

	rep.Update(progress.Update{JobID: jobID, Stage: progress.StageMetadata, Percent: -1, Message: "Fetching info"})
	info, err := s.extractor.Extract(ctx, videoID)
	if err != nil {
		if !errors.Is(err, downloader.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %w", downloader.ErrExtractionFailed, err)
		}
		return res, err
	}
	if info.Title != "" {
		res.Title = info.Title
	}

	rep.Update(progress.Update{JobID: jobID, Stage: progress.StageSelecting, Percent: -1, Message: "Selecting format"})
	if err := util.EnsureDir(s.opts.TempDir); err != nil {
		return res, fmt.Errorf("temp dir: %w", err)
	}
	plan, err := PlanDownload(info, kind, s.opts, s.now())
	if err != nil {
		return res, err
	}
	slog.Debug("selected format", "id", videoID, "itag", plan.Candidate.Itag, "label", plan.Candidate.QualityLabel, "path", plan.OutputPath)

	// From here on a failure must not leave files behind. Only paths this
	// run created are removed; an existing file belongs to someone else.
	var owned []string
	defer func() {
		if err != nil {
			for _, p := range owned {
				_ = util.RemoveIfExists(p)
			}
		}
	}()

	meta, err := downloader.Fetch(ctx, s.extractor, videoID, plan.Candidate, plan.OutputPath, downloader.Options{
		Reporter: rep,
		JobID:    jobID,
		MinBytes: s.opts.MinBytes,
	})
	if err != nil {
		if downloader.CreatedFile(err) {
			owned = append(owned, plan.OutputPath)
		}
		return res, err
	}
	owned = append(owned, plan.OutputPath)

	final, size := meta.Path, meta.Size
	if plan.Transcode {
		if _, serr := os.Stat(plan.FinalPath); serr == nil {
			return res, fmt.Errorf("%w: %s already exists", encoder.ErrTranscodeFailed, plan.FinalPath)
		}
		owned = append(owned, plan.FinalPath)
		out, terr := encoder.ToMP3(ctx, plan.OutputPath, plan.FinalPath, encoder.Options{
			FFmpegPath:  s.ffmpegPath,
			Runner:      s.runner,
			Reporter:    rep,
			JobID:       jobID,
			DurationSec: info.DurationSec,
		})
		if terr != nil {
			return res, terr
		}
		_ = util.RemoveIfExists(plan.OutputPath)
		if _, verr := downloader.Verify(out.Path, s.opts.MinBytes); verr != nil {
			return res, verr
		}
		final, size = out.Path, out.Bytes
	}

	res.Success = true
	res.FilePath = final
	res.Bytes = size
	emitSaved(rep, jobID, res)
	return res, nil
}

// ProcessPlaylist downloads the batch one item at a time, pausing between
// items. A failed item is recorded and the next one proceeds. The result has
// one entry per processed item, in order.
func (s *Service) ProcessPlaylist(ctx context.Context, batch model.PlaylistBatch, kind model.Kind) []model.DownloadResult {
	items := batch.Capped(s.opts.PlaylistLimit).Items
	results := make([]model.DownloadResult, 0, len(items))

	for i, item := range items {
		if i > 0 && s.opts.PlaylistDelay > 0 {
			if err := s.sleep(ctx, s.opts.PlaylistDelay); err != nil {
				for _, rest := range items[i:] {
					results = append(results, model.Failed(rest.Title, err))
				}
				break
			}
		}
		res, err := s.run(ctx, item.ID, item.Title, kind, ItemJobID(batch.ID, i))
		if err != nil {
			perr := &downloader.PlaylistItemError{Index: i + 1, ID: item.ID, Title: item.Title, Err: err}
			slog.Warn("playlist item failed", "playlist", batch.ID, "index", i+1, "id", item.ID, "err", err)
			results = append(results, model.Failed(res.Title, perr))
			continue
		}
		results = append(results, res)
	}
	return results
}

// ItemJobID is the progress job id of the index-th (0-based) playlist item.
func ItemJobID(playlistID string, index int) string {
	return fmt.Sprintf("%s#%d", playlistID, index+1)
}

// ProcessPlaylistURL lists the playlist behind rawURL and processes it.
func (s *Service) ProcessPlaylistURL(ctx context.Context, rawURL string, kind model.Kind) (model.PlaylistBatch, []model.DownloadResult, error) {
	ref, err := util.ParseYouTubeURL(rawURL)
	if err != nil {
		return model.PlaylistBatch{}, nil, fmt.Errorf("%w: %w", downloader.ErrExtractionFailed, err)
	}
	batch, err := s.ListPlaylist(ctx, ref.PlaylistID)
	if err != nil {
		return model.PlaylistBatch{}, nil, err
	}
	return batch, s.ProcessPlaylist(ctx, batch, kind), nil
}

// ListPlaylist enumerates a playlist and caps it to the configured limit.
func (s *Service) ListPlaylist(ctx context.Context, playlistID string) (model.PlaylistBatch, error) {
	if playlistID == "" {
		return model.PlaylistBatch{}, fmt.Errorf("%w: link has no playlist id", downloader.ErrExtractionFailed)
	}
	if s.lister == nil {
		return model.PlaylistBatch{}, errors.New("no playlist lister configured")
	}
	batch, err := s.lister.List(ctx, playlistID)
	if err != nil {
		return model.PlaylistBatch{}, err
	}
	if len(batch.Items) == 0 {
		return model.PlaylistBatch{}, fmt.Errorf("%w: playlist %s is empty", downloader.ErrExtractionFailed, playlistID)
	}
	return batch.Capped(s.opts.PlaylistLimit), nil
}

// CleanTemp empties the temp directory. Called on start and shutdown.
func (s *Service) CleanTemp() error {
	if s.opts.TempDir == "" {
		return nil
	}
	return util.EmptyDir(s.opts.TempDir)
}

func emitSaved(rep progress.Reporter, jobID string, res model.DownloadResult) {
	rep.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", filepath.Base(res.FilePath), format.HumanizeBytes(res.Bytes)),
	})
	rep.Result(progress.Result{
		JobID:      jobID,
		Title:      res.Title,
		OutputPath: res.FilePath,
		Bytes:      res.Bytes,
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
