package opener

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBrowserOpener_Open(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		launchErr     error
		expectedError string
		expectOpened  bool
	}{
		{name: "Success - HTTPS", url: "https://radiorever.com/schedule", expectOpened: true},
		{name: "Success - HTTP", url: "http://localhost:8788/health", expectOpened: true},
		{name: "Error - File Scheme", url: "file:///etc/passwd", expectedError: "unsupported scheme"},
		{name: "Error - Unparseable", url: "https://exa mple.com/%zz", expectedError: "invalid link"},
		{name: "Error - Launcher Missing", url: "https://radiorever.com", launchErr: errors.New("xdg-open: not found"), expectedError: "xdg-open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []string
			o := NewBrowserOpener(zap.NewNop())
			o.open = func(u string) error {
				opened = append(opened, u)
				return tt.launchErr
			}

			err := o.Open(tt.url)
			if tt.expectedError != "" {
				if err == nil {
					t.Fatalf("expected error containing '%s', got nil", tt.expectedError)
				}
				if !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.expectOpened && (len(opened) != 1 || opened[0] != tt.url) {
				t.Errorf("expected %s to be opened, got %v", tt.url, opened)
			}
		})
	}
}
