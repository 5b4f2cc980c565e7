package downloader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"tubebridge/internal/model"
)

type fakeExtractor struct {
	info    model.VideoInfo
	err     error
	payload []byte
	openErr error
	readErr error
}

func (f *fakeExtractor) Extract(_ context.Context, videoID string) (model.VideoInfo, error) {
	if f.err != nil {
		return model.VideoInfo{}, f.err
	}
	info := f.info
	if info.ID == "" {
		info.ID = videoID
	}
	return info, nil
}

func (f *fakeExtractor) Open(context.Context, string, model.MediaCandidate) (io.ReadCloser, int64, error) {
	if f.openErr != nil {
		return nil, 0, f.openErr
	}
	var r io.Reader = bytes.NewReader(f.payload)
	if f.readErr != nil {
		r = io.MultiReader(r, &errReader{err: f.readErr})
	}
	return io.NopCloser(r), int64(len(f.payload)), nil
}

type errReader struct{ err error }

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }

// fakeHTTP answers by URL substring.
type fakeHTTP struct {
	routes map[string]fakeResponse
	calls  []string
}

type fakeResponse struct {
	status int
	body   string
	err    error
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	f.calls = append(f.calls, req.Method+" "+req.URL.String())
	for frag, r := range f.routes {
		if !strings.Contains(req.URL.String(), frag) {
			continue
		}
		if r.err != nil {
			return nil, r.err
		}
		return &http.Response{
			StatusCode: r.status,
			Body:       io.NopCloser(strings.NewReader(r.body)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
	return nil, errors.New("no route for " + req.URL.String())
}
