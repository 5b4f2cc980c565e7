package telegram

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tubebridge/internal/progress"
)

func TestStatusReporterThrottles(t *testing.T) {
	api := &fakeAPI{}
	s := newStatusReporter(api, 100, 5, time.Second)
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	s.Update(progress.Update{Stage: progress.StageDownloading, Percent: 10})
	now = now.Add(200 * time.Millisecond)
	s.Update(progress.Update{Stage: progress.StageDownloading, Percent: 20}) // throttled
	now = now.Add(time.Second)
	s.Update(progress.Update{Stage: progress.StageDownloading, Percent: 30})
	s.Update(progress.Update{Stage: progress.StageVerifying, Percent: -1}) // stage change
	s.Update(progress.Update{Stage: progress.StageVerifying, Percent: -1}) // same text

	edits := sentOfType[tgbotapi.EditMessageTextConfig](api)
	want := []string{"⬇️ Downloading... 10%", "⬇️ Downloading... 30%", "🔎 Checking file..."}
	if len(edits) != len(want) {
		t.Fatalf("edits = %d, want %d", len(edits), len(want))
	}
	for i, e := range edits {
		if e.Text != want[i] || e.MessageID != 5 || e.ChatID != 100 {
			t.Fatalf("edit %d = %+v", i, e)
		}
	}
}

func TestStatusText(t *testing.T) {
	speed := "1.0 MB/s"
	tests := []struct {
		u    progress.Update
		want string
	}{
		{progress.Update{Stage: progress.StageDownloading, Percent: 42, Speed: &speed}, "⬇️ Downloading... 42% (1.0 MB/s)"},
		{progress.Update{Stage: progress.StageDownloading, Percent: -1}, "⬇️ Downloading..."},
		{progress.Update{Stage: progress.StageTranscoding, Percent: 50}, "🎵 Converting to mp3... 50%"},
		{progress.Update{Stage: progress.StageError, Message: "boom"}, "❌ boom"},
		{progress.Update{Stage: "other"}, ""},
	}
	for _, tt := range tests {
		if got := statusText(tt.u); got != tt.want {
			t.Errorf("statusText(%s) = %q, want %q", tt.u.Stage, got, tt.want)
		}
	}
}
