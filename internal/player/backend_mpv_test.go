//go:build libmpv

package player

import (
	"errors"
	"testing"
	"time"

	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/zap"
)

func TestMPVBackend_CloseStopsEventLoopFirst(t *testing.T) {
	backend, err := newPlaybackBackend(zap.NewNop(), domain.BufferConfig{
		Target:           5 * time.Second,
		Max:              30 * time.Second,
		MinForPlayback:   2500 * time.Millisecond,
		MinAfterRebuffer: 5 * time.Second,
	})
	if err != nil {
		t.Skipf("libmpv unavailable: %v", err)
	}
	b := backend.(*mpvBackend)

	done := make(chan struct{})
	go func() {
		_ = b.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout: Close did not return")
	}

	// The event loop must be gone before the handle was destroyed
	waited := make(chan struct{})
	go func() {
		b.eventLoopWG.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(100 * time.Millisecond):
		t.Error("Event loop still running after Close")
	}

	if err := b.Play(); !errors.Is(err, errBackendClosed) {
		t.Errorf("Expected errBackendClosed after Close, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}
