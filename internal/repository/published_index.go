package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xhrome/foodbot/internal/models"
)

// PublishedIndex reads the metadata documents the website itself serves.
// It is deliberately cache-free: duplicate checks must see what is live
// right now, including uploads from other sessions.
type PublishedIndex struct {
	baseURL   string
	menuPath  string
	tablePath string
	client    *http.Client
}

// NewPublishedIndex builds a read-only client for the published JSON
// documents. Paths are the absolute remote paths, e.g. "/food/menu.json".
func NewPublishedIndex(baseURL, menuPath, tablePath string, timeout time.Duration) *PublishedIndex {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PublishedIndex{
		baseURL:   baseURL,
		menuPath:  menuPath,
		tablePath: tablePath,
		client:    &http.Client{Timeout: timeout},
	}
}

// Menu fetches the currently published menu record.
func (r *PublishedIndex) Menu(ctx context.Context) (*models.Menu, error) {
	var menu models.Menu
	if err := r.fetch(ctx, r.baseURL+r.menuPath, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

// TableFiles fetches the currently published table collection.
func (r *PublishedIndex) TableFiles(ctx context.Context) ([]models.FoodFile, error) {
	var files []models.FoodFile
	if err := r.fetch(ctx, r.baseURL+r.tablePath, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *PublishedIndex) fetch(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
