//go:build libmpv

package player

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	mpv "github.com/gen2brain/go-mpv"
	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/zap"
)

const mpvPauseProperty = "pause"

var errBackendClosed = errors.New("libmpv backend closed")

type mpvBackend struct {
	logger      *zap.Logger
	mu          sync.Mutex
	client      *mpv.Mpv
	closeOnce   sync.Once
	closing     chan struct{}
	eventLoopWG sync.WaitGroup
}

func newPlaybackBackend(logger *zap.Logger, buffer domain.BufferConfig) (playbackBackend, error) {
	client := mpv.New()
	if client == nil {
		return nil, errors.New("create libmpv instance")
	}

	setOptionString(client, "terminal", "no")
	setOptionString(client, "video", "no")
	setOptionString(client, "audio-display", "no")
	setOptionString(client, "keep-open", "no")

	// Buffering: readahead target, cache ceiling and the amount required
	// before (re)starting playback. mpv uses one threshold for the initial
	// fill and for recovery after an underrun.
	setOptionString(client, "cache", "yes")
	setOptionString(client, "cache-pause", "yes")
	setOptionString(client, "cache-pause-initial", "yes")
	setOptionString(client, "demuxer-readahead-secs", seconds(buffer.Target))
	setOptionString(client, "cache-secs", seconds(buffer.Max))
	setOptionString(client, "cache-pause-wait", seconds(buffer.MinAfterRebuffer))

	if err := client.Initialize(); err != nil {
		client.TerminateDestroy()
		return nil, fmt.Errorf("initialize libmpv: %w", err)
	}

	backend := &mpvBackend{
		logger:  logger,
		client:  client,
		closing: make(chan struct{}),
	}

	_ = client.RequestEvent(mpv.EventEnd, true)

	backend.eventLoopWG.Add(1)
	go backend.eventLoop()

	logger.Info("libmpv backend initialized",
		zap.Duration("target", buffer.Target),
		zap.Duration("max", buffer.Max),
		zap.Duration("minForPlayback", buffer.MinForPlayback),
		zap.Duration("minAfterRebuffer", buffer.MinAfterRebuffer))

	return backend, nil
}

func (b *mpvBackend) Load(url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errBackendClosed
	}

	if err := b.client.SetPropertyString(mpvPauseProperty, "yes"); err != nil {
		return fmt.Errorf("set pause before load: %w", err)
	}

	if err := b.client.Command([]string{"loadfile", url, "replace"}); err != nil {
		return fmt.Errorf("load stream %q: %w", url, err)
	}

	return nil
}

func (b *mpvBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errBackendClosed
	}

	if err := b.client.SetPropertyString(mpvPauseProperty, "no"); err != nil {
		return fmt.Errorf("resume playback: %w", err)
	}

	return nil
}

func (b *mpvBackend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return errBackendClosed
	}

	if err := b.client.SetPropertyString(mpvPauseProperty, "yes"); err != nil {
		return fmt.Errorf("pause playback: %w", err)
	}

	return nil
}

// Close stops the event loop before the handle is destroyed, so WaitEvent
// never runs on a freed client
func (b *mpvBackend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		client := b.client
		b.mu.Unlock()

		close(b.closing)
		if client == nil {
			return
		}

		// quit makes libmpv emit EventShutdown; Wakeup covers a core that is already gone
		if qerr := client.Command([]string{"quit"}); qerr != nil {
			b.logger.Debug("libmpv quit command failed", zap.Error(qerr))
		}
		client.Wakeup()
		b.eventLoopWG.Wait()

		b.mu.Lock()
		b.client = nil
		b.mu.Unlock()
		client.TerminateDestroy()
	})
	return nil
}

// eventLoop only reports; libmpv owns reconnection and error recovery
func (b *mpvBackend) eventLoop() {
	defer b.eventLoopWG.Done()

	for {
		select {
		case <-b.closing:
			return
		default:
		}

		event := b.client.WaitEvent(0.5)
		if event == nil {
			continue
		}

		switch event.EventID {
		case mpv.EventShutdown:
			return
		case mpv.EventEnd:
			end := event.EndFile()
			if end.Reason == mpv.EndFileEOF {
				b.logger.Info("Stream reached end of file")
				continue
			}
			b.logger.Warn("Stream ended", zap.Any("reason", end.Reason))
		}
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func setOptionString(client *mpv.Mpv, name string, value string) {
	_ = client.SetOptionString(name, value)
}
