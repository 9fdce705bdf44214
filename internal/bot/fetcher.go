package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Fetcher downloads attachment bytes through the Telegram file API.
type Fetcher struct {
	api    *tgbotapi.BotAPI
	client *http.Client
}

// NewFetcher constructs a fetcher on top of an authenticated bot API.
func NewFetcher(api *tgbotapi.BotAPI) *Fetcher {
	return &Fetcher{
		api:    api,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Fetch resolves the file id to a download URL and returns the bytes.
func (f *Fetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	url, err := f.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for file %s: %w", fileID, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: unexpected status %d", fileID, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
