package telegram

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tubebridge/internal/progress"
)

const statusEvery = 3 * time.Second

// statusReporter edits one chat message as a job moves through stages.
// Download percentages are throttled; stage changes always go through.
type statusReporter struct {
	api    BotAPI
	chatID int64
	msgID  int
	every  time.Duration
	now    func() time.Time

	mu        sync.Mutex
	last      time.Time
	lastStage progress.Stage
	lastText  string
}

func newStatusReporter(api BotAPI, chatID int64, msgID int, every time.Duration) *statusReporter {
	if every <= 0 {
		every = statusEvery
	}
	return &statusReporter{api: api, chatID: chatID, msgID: msgID, every: every, now: time.Now}
}

func (s *statusReporter) Update(u progress.Update) {
	text := statusText(u)
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if text == s.lastText {
		return
	}
	if u.Stage == s.lastStage && now.Sub(s.last) < s.every {
		return
	}
	s.last, s.lastStage, s.lastText = now, u.Stage, text
	if _, err := s.api.Send(tgbotapi.NewEditMessageText(s.chatID, s.msgID, text)); err != nil {
		slog.Debug("edit status message", "chat", s.chatID, "err", err)
	}
}

func (s *statusReporter) Log(progress.Log)       {}
func (s *statusReporter) Result(progress.Result) {}

func statusText(u progress.Update) string {
	pct := ""
	if u.Percent >= 0 {
		pct = fmt.Sprintf(" %.0f%%", u.Percent)
	}
	switch u.Stage {
	case progress.StageMetadata:
		return "🔍 Fetching info..."
	case progress.StageSelecting:
		return "🎯 Picking a format..."
	case progress.StageDownloading:
		s := "⬇️ Downloading..." + pct
		if u.Speed != nil {
			s += " (" + *u.Speed + ")"
		}
		return s
	case progress.StageVerifying:
		return "🔎 Checking file..."
	case progress.StageTranscoding:
		return "🎵 Converting to mp3..." + pct
	case progress.StageCompleted:
		return "📤 Uploading..."
	case progress.StageError:
		return "❌ " + u.Message
	}
	return ""
}
