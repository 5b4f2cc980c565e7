package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tubebridge/internal/history"
	"tubebridge/internal/model"
	"tubebridge/internal/progress"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	sendErr  func(c tgbotapi.Chattable) error
	fileURL  string
	updates  chan tgbotapi.Update
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.sendErr != nil {
		if err := f.sendErr(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("no file")
	}
	return f.fileURL + fileID, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

// texts returns the text of every sent message and edit, in order.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func sentOfType[T tgbotapi.Chattable](f *fakeAPI) []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []T
	for _, c := range f.sent {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

type fakeDownloader struct {
	info    model.VideoInfo
	infoErr error
	result  model.DownloadResult

	batch    model.PlaylistBatch
	listErr  error
	results  []model.DownloadResult
	urls     []string
	kinds    []model.Kind
	reporter bool
}

func (f *fakeDownloader) FetchInfo(_ context.Context, rawURL string) (model.VideoInfo, error) {
	f.urls = append(f.urls, rawURL)
	return f.info, f.infoErr
}

func (f *fakeDownloader) Download(ctx context.Context, rawURL string, kind model.Kind) model.DownloadResult {
	f.urls = append(f.urls, rawURL)
	f.kinds = append(f.kinds, kind)
	f.reporter = progress.FromContext(ctx) != nil
	return f.result
}

func (f *fakeDownloader) ListPlaylist(_ context.Context, id string) (model.PlaylistBatch, error) {
	f.urls = append(f.urls, "list:"+id)
	return f.batch, f.listErr
}

func (f *fakeDownloader) ProcessPlaylist(ctx context.Context, _ model.PlaylistBatch, kind model.Kind) []model.DownloadResult {
	f.kinds = append(f.kinds, kind)
	f.reporter = progress.FromContext(ctx) != nil
	return f.results
}

type memHistory struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (m *memHistory) Record(_ context.Context, e history.Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return nil
}

func (m *memHistory) Close(context.Context) error { return nil }

func textMessage(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "alice"},
		Chat:      &tgbotapi.Chat{ID: 100},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		n := len(text)
		for i, r := range text {
			if r == ' ' {
				n = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return tgbotapi.Update{Message: msg}
}

func callback(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: userID, UserName: "alice"},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 100}},
		Data:    data,
	}}
}
