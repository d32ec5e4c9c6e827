package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const _maxStatusSize = 64 * 1024 // 64 KiB

// StatusFetcher retrieves the now-playing document from the metadata endpoint
type StatusFetcher struct {
	logger   *zap.Logger
	client   *http.Client
	url      string
	fallback string
}

// NewStatusFetcher creates a fetcher for url. fallback is returned as the
// title whenever the document has no usable song field.
func NewStatusFetcher(logger *zap.Logger, url, fallback string, timeout time.Duration) *StatusFetcher {
	return &StatusFetcher{
		logger:   logger,
		url:      url,
		fallback: fallback,
		client: &http.Client{
			Timeout: timeout, // A stuck fetch would otherwise delay shutdown
		},
	}
}

// FetchTitle downloads the status document and extracts the song title
func (f *StatusFetcher) FetchTitle(ctx context.Context) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "rrpDaemon/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, _maxStatusSize))
	if err != nil {
		return "", false, fmt.Errorf("failed to read body: %w", err)
	}

	title, fallback, err := ParseSong(data, f.fallback)
	if err != nil {
		return "", false, err
	}

	f.logger.Debug("Status fetched",
		zap.String("title", title),
		zap.Bool("fallback", fallback),
		zap.Int("bytes", len(data)))
	return title, fallback, nil
}

// ParseSong extracts the "song" field of a JSON object. A missing, blank or
// non-string field yields the fallback title with fallback set to true.
// Data that is not a JSON object is an error.
func ParseSong(data []byte, fallbackTitle string) (title string, fallback bool, err error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false, fmt.Errorf("invalid status document: %w", err)
	}
	if doc == nil {
		// "null" decodes into a nil map without error
		return "", false, fmt.Errorf("invalid status document: not an object")
	}

	raw, ok := doc["song"]
	if !ok {
		return fallbackTitle, true, nil
	}

	var song string
	if err := json.Unmarshal(raw, &song); err != nil {
		return fallbackTitle, true, nil
	}

	song = strings.TrimSpace(song)
	if song == "" {
		return fallbackTitle, true, nil
	}
	return song, false, nil
}
