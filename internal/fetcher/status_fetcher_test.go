package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testFallback = "Post-punk on air..."

func TestStatusFetcher_FetchTitle(t *testing.T) {
	tests := []struct {
		name             string
		responseBody     string
		statusCode       int
		ctxFunc          func() (context.Context, context.CancelFunc)
		expectedError    string
		expectedTitle    string
		expectedFallback bool
	}{
		{
			name:          "Success - Song Present",
			responseBody:  `{"song": "Band - Track", "listeners": 12}`,
			statusCode:    http.StatusOK,
			expectedTitle: "Band - Track",
		},
		{
			name:             "Success - Empty Object Falls Back",
			responseBody:     `{}`,
			statusCode:       http.StatusOK,
			expectedTitle:    testFallback,
			expectedFallback: true,
		},
		{
			name:          "Error - 500 Internal Server Error",
			responseBody:  `{"song": "ignored"}`,
			statusCode:    http.StatusInternalServerError,
			expectedError: "unexpected status code: 500",
		},
		{
			name:          "Error - Not JSON",
			responseBody:  `<html>maintenance</html>`,
			statusCode:    http.StatusOK,
			expectedError: "invalid status document",
		},
		{
			name: "Error - Context Cancelled",
			ctxFunc: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel() // Cancel immediately
				return ctx, cancel
			},
			statusCode:    http.StatusOK,
			expectedError: "context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ua := r.Header.Get("User-Agent"); ua != "rrpDaemon/1.0" {
					t.Errorf("unexpected user agent %q", ua)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			var ctx context.Context
			var cancel context.CancelFunc
			if tt.ctxFunc != nil {
				ctx, cancel = tt.ctxFunc()
			} else {
				ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
			}
			defer cancel()

			fetcher := NewStatusFetcher(zap.NewNop(), server.URL, testFallback, time.Second)
			title, fallback, err := fetcher.FetchTitle(ctx)

			if tt.expectedError != "" {
				if err == nil {
					t.Fatalf("expected error containing '%s', got nil", tt.expectedError)
				}
				if !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if title != tt.expectedTitle {
				t.Errorf("expected title %q, got %q", tt.expectedTitle, title)
			}
			if fallback != tt.expectedFallback {
				t.Errorf("expected fallback %v, got %v", tt.expectedFallback, fallback)
			}
		})
	}
}

func TestStatusFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	fetcher := NewStatusFetcher(zap.NewNop(), server.URL, testFallback, 50*time.Millisecond)
	if _, _, err := fetcher.FetchTitle(context.Background()); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

// TestParseSong covers every shape of a malformed or missing song field
func TestParseSong(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		expectedTitle    string
		expectedFallback bool
		expectError      bool
	}{
		{name: "Valid", body: `{"song":"Band - Track"}`, expectedTitle: "Band - Track"},
		{name: "Surrounding Whitespace", body: `{"song":"  Band - Track \n"}`, expectedTitle: "Band - Track"},
		{name: "Missing", body: `{"artist":"Band"}`, expectedTitle: testFallback, expectedFallback: true},
		{name: "Empty Object", body: `{}`, expectedTitle: testFallback, expectedFallback: true},
		{name: "Blank", body: `{"song":"   "}`, expectedTitle: testFallback, expectedFallback: true},
		{name: "Null", body: `{"song":null}`, expectedTitle: testFallback, expectedFallback: true},
		{name: "Number", body: `{"song":42}`, expectedTitle: testFallback, expectedFallback: true},
		{name: "Object", body: `{"song":{"title":"x"}}`, expectedTitle: testFallback, expectedFallback: true},
		{name: "Array Document", body: `["song"]`, expectError: true},
		{name: "Null Document", body: `null`, expectError: true},
		{name: "Truncated", body: `{"song":"Band`, expectError: true},
		{name: "Empty Body", body: ``, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, fallback, err := ParseSong([]byte(tt.body), testFallback)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got title %q", title)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if title != tt.expectedTitle {
				t.Errorf("title: want %q, got %q", tt.expectedTitle, title)
			}
			if fallback != tt.expectedFallback {
				t.Errorf("fallback: want %v, got %v", tt.expectedFallback, fallback)
			}
		})
	}
}
