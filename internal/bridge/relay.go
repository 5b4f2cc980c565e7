package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.mau.fi/whatsmeow/types"

	"tubebridge/internal/history"
	"tubebridge/internal/telegram"
)

// MediaKind selects the WhatsApp message type for an upload.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

// Media is one file to deliver.
type Media struct {
	Kind     MediaKind
	Data     []byte
	Mime     string
	FileName string
	Caption  string
}

// Sender delivers messages to WhatsApp.
type Sender interface {
	SendText(ctx context.Context, to types.JID, text string) error
	SendMedia(ctx context.Context, to types.JID, m Media) error
}

// Fetcher downloads a Telegram file by id.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Controller is the supervisor surface the relay commands use.
type Controller interface {
	State() State
	Restart()
}

// Relay handles Telegram updates for the bridge bot.
type Relay struct {
	api     telegram.BotAPI
	wa      Sender
	files   Fetcher
	ctl     Controller
	history history.Recorder
	now     func() time.Time

	mu     sync.RWMutex
	target types.JID
}

// NewRelay wires a relay. A nil recorder disables history.
func NewRelay(api telegram.BotAPI, wa Sender, files Fetcher, ctl Controller, target types.JID, rec history.Recorder) *Relay {
	if rec == nil {
		rec = history.Nop{}
	}
	return &Relay{api: api, wa: wa, files: files, ctl: ctl, history: rec, target: target, now: time.Now}
}

// Target returns the chat messages are forwarded to.
func (r *Relay) Target() types.JID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.target
}

func (r *Relay) setTarget(j types.JID) {
	r.mu.Lock()
	r.target = j
	r.mu.Unlock()
}

// ParseTarget validates a user-supplied WhatsApp JID.
func ParseTarget(s string) (types.JID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.JID{}, fmt.Errorf("empty jid")
	}
	j, err := types.ParseJID(s)
	if err != nil {
		return types.JID{}, err
	}
	if j.User == "" || j.Server == "" {
		return types.JID{}, fmt.Errorf("jid %q has no user or server", s)
	}
	return j, nil
}

// Handle processes one Telegram update.
func (r *Relay) Handle(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "status":
			r.reply(chatID, r.statusText())
		case "jid":
			r.setJID(chatID, msg.CommandArguments())
		case "restart":
			r.reply(chatID, "♻ Restarting WhatsApp...")
			r.ctl.Restart()
		case "start", "help":
			r.reply(chatID, "🔁 Everything you send here is forwarded to WhatsApp.\n\n"+
				"Commands:\n/status connection status\n/jid <jid> change the target chat\n/restart reconnect WhatsApp")
		}
		return
	}

	from := ""
	if msg.From != nil {
		from = msg.From.UserName
	}
	e := history.Entry{Kind: history.KindRelay, ChatID: chatID, From: from, At: r.now()}
	err := r.forward(ctx, msg, &e)
	if e.Media == "" {
		return
	}
	e.Target = r.Target().String()
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
		slog.Warn("relay failed", "media", e.Media, "err", err)
		r.reply(chatID, "❌ Failed to forward: "+err.Error())
	}
	if herr := r.history.Record(ctx, e); herr != nil {
		slog.Warn("record history", "err", herr)
	}
}

// forward sends msg to the target. e.Media stays empty for messages
// nothing is forwarded for.
func (r *Relay) forward(ctx context.Context, msg *tgbotapi.Message, e *history.Entry) error {
	switch {
	case len(msg.Photo) > 0:
		e.Media = "photo"
		p := largestPhoto(msg.Photo)
		return r.forwardFile(ctx, p.FileID, Media{
			Kind:    MediaImage,
			Mime:    "image/jpeg",
			Caption: orDefault(msg.Caption, "📸 Telegram Photo"),
		}, e)
	case msg.Video != nil:
		e.Media = "video"
		mime := orDefault(msg.Video.MimeType, "video/mp4")
		return r.forwardFile(ctx, msg.Video.FileID, Media{
			Kind:     MediaVideo,
			Mime:     mime,
			FileName: msg.Video.FileName,
			Caption:  orDefault(msg.Caption, "🎥 Telegram Video"),
		}, e)
	case msg.Document != nil:
		e.Media = "document"
		name := orDefault(msg.Document.FileName, "file")
		return r.forwardFile(ctx, msg.Document.FileID, Media{
			Kind:     MediaDocument,
			Mime:     orDefault(msg.Document.MimeType, "application/octet-stream"),
			FileName: name,
			Caption:  orDefault(msg.Caption, name),
		}, e)
	case strings.TrimSpace(msg.Text) != "":
		e.Media = "text"
		if err := r.ready(); err != nil {
			return err
		}
		return r.wa.SendText(ctx, r.Target(), "📩 Telegram:\n\n"+msg.Text)
	}
	return nil
}

func (r *Relay) forwardFile(ctx context.Context, fileID string, m Media, e *history.Entry) error {
	if err := r.ready(); err != nil {
		return err
	}
	data, err := r.files.Fetch(ctx, fileID)
	if err != nil {
		return err
	}
	m.Data = data
	e.FileName = m.FileName
	e.Bytes = int64(len(data))
	return r.wa.SendMedia(ctx, r.Target(), m)
}

func (r *Relay) ready() error {
	if st := r.ctl.State(); st != StatePaired {
		return fmt.Errorf("WhatsApp is not connected (%s)", st)
	}
	if r.Target().IsEmpty() {
		return fmt.Errorf("no target chat set, use /jid")
	}
	return nil
}

func (r *Relay) statusText() string {
	conn := "Not Connected"
	if r.ctl.State() == StatePaired {
		conn = "Connected"
	}
	target := r.Target().String()
	if target == "" {
		target = "not set"
	}
	return fmt.Sprintf("📊 Status:\n\n🎯 JID: %s\n🟢 WhatsApp: %s", target, conn)
}

func (r *Relay) setJID(chatID int64, arg string) {
	if strings.TrimSpace(arg) == "" {
		r.reply(chatID, "Usage: /jid <number@s.whatsapp.net>")
		return
	}
	j, err := ParseTarget(arg)
	if err != nil {
		r.reply(chatID, "❌ Invalid JID: "+err.Error())
		return
	}
	r.setTarget(j)
	slog.Info("target jid changed", "jid", j.String())
	r.reply(chatID, "✅ JID Updated Successfully")
}

func (r *Relay) reply(chatID int64, text string) {
	if _, err := r.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("send message", "chat", chatID, "err", err)
	}
}

func largestPhoto(ps []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := ps[0]
	for _, p := range ps[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
