package telegram

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestPollDispatchesUntilClosed(t *testing.T) {
	for _, workers := range []int{1, 4} {
		api := &fakeAPI{updates: make(chan tgbotapi.Update, 3)}
		for i := 1; i <= 3; i++ {
			api.updates <- tgbotapi.Update{UpdateID: i}
		}
		close(api.updates)

		var n atomic.Int32
		Poll(context.Background(), api, workers, func(context.Context, tgbotapi.Update) { n.Add(1) })

		if n.Load() != 3 {
			t.Fatalf("workers=%d: handled %d, want 3", workers, n.Load())
		}
		if !api.stopped {
			t.Fatalf("workers=%d: updates not stopped", workers)
		}
	}
}

func TestPollStopsOnCancel(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Poll(ctx, api, 1, func(context.Context, tgbotapi.Update) { t.Fatal("unexpected update") })
	if !api.stopped {
		t.Fatal("updates not stopped")
	}
}

type stubHTTP struct {
	status int
	body   string
	url    string
}

func (s *stubHTTP) Do(req *http.Request) (*http.Response, error) {
	s.url = req.URL.String()
	return &http.Response{StatusCode: s.status, Body: io.NopCloser(strings.NewReader(s.body)), Header: make(http.Header)}, nil
}

func TestFileFetcher(t *testing.T) {
	api := &fakeAPI{fileURL: "https://api.telegram.org/file/bot/"}
	h := &stubHTTP{status: http.StatusOK, body: "jpegdata"}
	f := &FileFetcher{API: api, HTTP: h}
	data, err := f.Fetch(context.Background(), "photos/1.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpegdata" || !strings.HasSuffix(h.url, "photos/1.jpg") {
		t.Fatalf("data=%q url=%q", data, h.url)
	}

	h.status = http.StatusNotFound
	if _, err := f.Fetch(context.Background(), "x"); err == nil {
		t.Fatal("expected error on 404")
	}
	if _, err := (&FileFetcher{API: &fakeAPI{}, HTTP: h}).Fetch(context.Background(), "x"); err == nil {
		t.Fatal("expected error when the file cannot be resolved")
	}
}
