package opener

import (
	"fmt"
	"io"
	"net/url"

	"github.com/pkg/browser"
	"go.uber.org/zap"
)

// BrowserOpener opens links in the system browser
type BrowserOpener struct {
	logger *zap.Logger
	open   func(string) error
}

// NewBrowserOpener creates an opener backed by the platform launcher
// (xdg-open, open or rundll32)
func NewBrowserOpener(logger *zap.Logger) *BrowserOpener {
	// The launcher's own output would corrupt the terminal UI
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	return &BrowserOpener{logger: logger, open: browser.OpenURL}
}

// Open validates rawURL and hands it to the browser
func (o *BrowserOpener) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid link %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: unsupported scheme", rawURL)
	}

	if err := o.open(u.String()); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}

	o.logger.Info("Opened link", zap.String("url", u.String()))
	return nil
}
