package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"tubebridge/internal/downloader"
)

// maxFetch bounds how much of a Telegram file is read into memory. The Bot
// API refuses downloads above 20 MB anyway.
const maxFetch = 25 << 20

// FileFetcher downloads files users sent to the bot.
type FileFetcher struct {
	API  BotAPI
	HTTP downloader.HTTPClient
}

// Fetch resolves fileID to its direct URL and returns the content.
func (f *FileFetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	url, err := f.API.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetch+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxFetch {
		return nil, fmt.Errorf("file larger than %d bytes", maxFetch)
	}
	return data, nil
}
