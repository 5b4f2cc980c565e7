package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tubebridge/internal/history"
	"tubebridge/internal/model"
	"tubebridge/internal/progress"
	"tubebridge/internal/session"
	"tubebridge/internal/util"
	"tubebridge/internal/util/format"
	"tubebridge/internal/util/media"
)

// MaxUpload is the Bot API limit for files sent by a bot.
const MaxUpload int64 = 50 << 20

// Callback data carried by the format buttons.
const (
	dataVideo = "dl:video"
	dataAudio = "dl:audio"
)

const usage = "👋 Send me a YouTube link (video or playlist) and pick 🎬 Video or 🎵 Audio.\n\n" +
	"Commands:\n/help show this message\n/status bot status"

// Downloader is what the router needs from the pipeline.
type Downloader interface {
	FetchInfo(ctx context.Context, rawURL string) (model.VideoInfo, error)
	Download(ctx context.Context, rawURL string, kind model.Kind) model.DownloadResult
	ListPlaylist(ctx context.Context, playlistID string) (model.PlaylistBatch, error)
	ProcessPlaylist(ctx context.Context, batch model.PlaylistBatch, kind model.Kind) []model.DownloadResult
}

// Config tunes the router.
type Config struct {
	Hostname      string
	TempDir       string
	PlaylistLimit int
	MaxUpload     int64         // defaults to MaxUpload
	StatusEvery   time.Duration // minimum gap between progress edits
}

// Router turns Telegram updates into downloads.
type Router struct {
	api      BotAPI
	dl       Downloader
	sessions session.Store
	history  history.Recorder
	cfg      Config
	now      func() time.Time
}

// NewRouter wires a router. A nil recorder disables history.
func NewRouter(api BotAPI, dl Downloader, sessions session.Store, rec history.Recorder, cfg Config) *Router {
	if rec == nil {
		rec = history.Nop{}
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = MaxUpload
	}
	return &Router{api: api, dl: dl, sessions: sessions, history: rec, cfg: cfg, now: time.Now}
}

// Handle processes one update. It never returns an error: failures are
// reported to the chat and logged.
func (r *Router) Handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		r.onCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		r.onMessage(ctx, upd.Message)
	}
}

func (r *Router) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			r.reply(chatID, usage)
		case "status":
			r.reply(chatID, r.statusText(ctx))
		default:
			r.reply(chatID, "Unknown command. Try /help")
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	ref, ok := util.FindYouTubeURL(text)
	if !ok {
		r.reply(chatID, "❌ Please send a valid YouTube link.")
		return
	}
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	if ref.Kind == util.RefPlaylist {
		r.offerPlaylist(ctx, chatID, userID, ref)
		return
	}
	r.offerVideo(ctx, chatID, userID, ref)
}

func (r *Router) offerVideo(ctx context.Context, chatID, userID int64, ref util.Ref) {
	wait := r.reply(chatID, "🔍 Fetching video info...")
	info, err := r.dl.FetchInfo(ctx, ref.URL())
	r.deleteMessage(chatID, wait)
	if err != nil {
		slog.Warn("fetch info", "video", ref.VideoID, "err", err)
		r.reply(chatID, "❌ Could not read that video: "+err.Error())
		return
	}

	caption := media.InfoCard(info)
	var sent tgbotapi.Message
	if info.ThumbnailURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(info.ThumbnailURL))
		photo.Caption = caption
		photo.ReplyMarkup = formatKeyboard()
		sent, err = r.api.Send(photo)
	}
	if info.ThumbnailURL == "" || err != nil {
		m := tgbotapi.NewMessage(chatID, caption)
		m.ReplyMarkup = formatKeyboard()
		if sent, err = r.api.Send(m); err != nil {
			slog.Error("send info card", "chat", chatID, "err", err)
			return
		}
	}

	entry := session.Entry{
		VideoID:   info.ID,
		Title:     info.Title,
		ChatID:    chatID,
		MessageID: sent.MessageID,
		CreatedAt: r.now(),
	}
	if entry.VideoID == "" {
		entry.VideoID = ref.VideoID
	}
	if err := r.sessions.Put(ctx, userID, entry); err != nil {
		slog.Error("store session", "user", userID, "err", err)
		r.reply(chatID, "❌ Could not remember your link, please try again.")
	}
}

func (r *Router) offerPlaylist(ctx context.Context, chatID, userID int64, ref util.Ref) {
	text := "📃 Playlist detected"
	if r.cfg.PlaylistLimit > 0 {
		text += fmt.Sprintf("\nUp to %d videos will be downloaded, one after another.", r.cfg.PlaylistLimit)
	}
	text += "\n\nChoose a format:"
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = formatKeyboard()
	sent, err := r.api.Send(m)
	if err != nil {
		slog.Error("send playlist card", "chat", chatID, "err", err)
		return
	}
	entry := session.Entry{
		PlaylistID: ref.PlaylistID,
		Title:      "Playlist",
		ChatID:     chatID,
		MessageID:  sent.MessageID,
		CreatedAt:  r.now(),
	}
	if err := r.sessions.Put(ctx, userID, entry); err != nil {
		slog.Error("store session", "user", userID, "err", err)
		r.reply(chatID, "❌ Could not remember your link, please try again.")
	}
}

func (r *Router) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := r.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		slog.Debug("answer callback", "err", err)
	}
	var kind model.Kind
	switch cb.Data {
	case dataVideo:
		kind = model.KindVideo
	case dataAudio:
		kind = model.KindAudio
	default:
		return
	}
	if cb.From == nil {
		return
	}
	userID := cb.From.ID
	var chatID int64
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	entry, err := r.sessions.Take(ctx, userID)
	if err != nil {
		if chatID != 0 {
			if errors.Is(err, session.ErrExpired) || errors.Is(err, session.ErrNotFound) {
				r.reply(chatID, "⌛ That link expired. Send it again.")
			} else {
				r.reply(chatID, "❌ "+err.Error())
			}
		}
		return
	}
	if entry.ChatID != 0 {
		chatID = entry.ChatID
	}
	from := cb.From.UserName

	if entry.PlaylistID != "" {
		r.runPlaylist(ctx, chatID, from, entry, kind)
		return
	}
	r.runSingle(ctx, chatID, from, entry, kind)
}

func (r *Router) runSingle(ctx context.Context, chatID int64, from string, entry session.Entry, kind model.Kind) {
	statusID := r.reply(chatID, "⏳ Starting download...")
	ctx = progress.ContextWithReporter(ctx, newStatusReporter(r.api, chatID, statusID, r.cfg.StatusEvery))

	ref := util.Ref{VideoID: entry.VideoID, Kind: util.RefVideo}
	res := r.dl.Download(ctx, ref.URL(), kind)
	if res.Title == "" {
		res.Title = entry.Title
	}
	path := res.FilePath
	if res.Success {
		if err := r.upload(chatID, res); err != nil {
			res = model.Failed(res.Title, err)
		}
	}
	r.removeFile(path)
	r.record(ctx, chatID, from, kind, res)

	if !res.Success {
		r.edit(chatID, statusID, "❌ "+res.Error)
		return
	}
	r.deleteMessage(chatID, statusID)
}

func (r *Router) runPlaylist(ctx context.Context, chatID int64, from string, entry session.Entry, kind model.Kind) {
	statusID := r.reply(chatID, "📃 Listing playlist...")
	batch, err := r.dl.ListPlaylist(ctx, entry.PlaylistID)
	if err != nil {
		r.edit(chatID, statusID, "❌ "+err.Error())
		return
	}
	r.edit(chatID, statusID, fmt.Sprintf("⏳ Downloading %d items...", len(batch.Items)))

	pctx := progress.ContextWithReporter(ctx, newStatusReporter(r.api, chatID, statusID, r.cfg.StatusEvery))
	results := r.dl.ProcessPlaylist(pctx, batch, kind)
	for i, res := range results {
		if res.Success {
			if err := r.upload(chatID, res); err != nil {
				results[i] = model.Failed(res.Title, err)
			}
		}
		r.removeFile(res.FilePath)
		r.record(ctx, chatID, from, kind, results[i])
	}

	title := batch.Title
	if title == "" {
		title = entry.Title
	}
	r.deleteMessage(chatID, statusID)
	r.reply(chatID, media.PlaylistSummary(title, results))
}

// upload sends a downloaded file, falling back to a document when the
// typed send is rejected.
func (r *Router) upload(chatID int64, res model.DownloadResult) error {
	if res.Bytes > r.cfg.MaxUpload {
		return fmt.Errorf("file is %s, over the %s upload limit",
			format.HumanizeBytes(res.Bytes), format.HumanizeBytes(r.cfg.MaxUpload))
	}
	file := tgbotapi.FilePath(res.FilePath)
	caption := media.Caption(res)

	var c tgbotapi.Chattable
	if res.Kind == model.KindAudio {
		a := tgbotapi.NewAudio(chatID, file)
		a.Caption = caption
		a.Title = res.Title
		c = a
	} else {
		v := tgbotapi.NewVideo(chatID, file)
		v.Caption = caption
		v.SupportsStreaming = true
		c = v
	}
	_, err := r.api.Send(c)
	if err == nil {
		return nil
	}
	slog.Warn("typed upload failed, sending as document", "file", res.FilePath, "err", err)
	d := tgbotapi.NewDocument(chatID, file)
	d.Caption = caption
	if _, err := r.api.Send(d); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func (r *Router) record(ctx context.Context, chatID int64, from string, kind model.Kind, res model.DownloadResult) {
	e := history.Entry{
		Kind:    history.KindDownload,
		ChatID:  chatID,
		From:    from,
		Media:   string(kind),
		Title:   res.Title,
		Bytes:   res.Bytes,
		Success: res.Success,
		Error:   res.Error,
		At:      r.now(),
	}
	if res.FilePath != "" {
		e.FileName = filepath.Base(res.FilePath)
	}
	if err := r.history.Record(ctx, e); err != nil {
		slog.Warn("record history", "err", err)
	}
}

func (r *Router) statusText(ctx context.Context) string {
	pending := "unknown"
	if n, err := r.sessions.Len(ctx); err == nil {
		pending = fmt.Sprint(n)
	}
	host := r.cfg.Hostname
	if host == "" {
		host, _ = os.Hostname()
	}
	return fmt.Sprintf("📊 Status\n\n🖥 Host: %s\n📂 Temp: %s\n🕒 Pending choices: %s", host, r.cfg.TempDir, pending)
}

func (r *Router) reply(chatID int64, text string) int {
	sent, err := r.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		slog.Error("send message", "chat", chatID, "err", err)
		return 0
	}
	return sent.MessageID
}

func (r *Router) edit(chatID int64, msgID int, text string) {
	if msgID == 0 {
		r.reply(chatID, text)
		return
	}
	if _, err := r.api.Send(tgbotapi.NewEditMessageText(chatID, msgID, text)); err != nil {
		slog.Debug("edit message", "chat", chatID, "err", err)
	}
}

func (r *Router) deleteMessage(chatID int64, msgID int) {
	if msgID == 0 {
		return
	}
	if _, err := r.api.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
		slog.Debug("delete message", "chat", chatID, "err", err)
	}
}

func (r *Router) removeFile(path string) {
	if path == "" {
		return
	}
	if err := util.RemoveIfExists(path); err != nil {
		slog.Warn("remove file", "path", path, "err", err)
	}
}

func formatKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Video", dataVideo),
			tgbotapi.NewInlineKeyboardButtonData("🎵 Audio", dataAudio),
		),
	)
}
