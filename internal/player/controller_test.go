package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/zap"
)

const testStream = "https://example.com/stream"

// fakeBackend counts calls made by the controller
type fakeBackend struct {
	loaded   []string
	plays    int
	pauses   int
	closed   int
	pauseErr error
}

func (b *fakeBackend) Load(url string) error { b.loaded = append(b.loaded, url); return nil }
func (b *fakeBackend) Play() error           { b.plays++; return nil }
func (b *fakeBackend) Pause() error          { b.pauses++; return b.pauseErr }
func (b *fakeBackend) Close() error          { b.closed++; return nil }

// recordingNotifier keeps every notification it was asked to show
type recordingNotifier struct {
	mu        sync.Mutex
	shown     []domain.Notification
	dismissed int
	actions   chan domain.Command
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{actions: make(chan domain.Command)}
}

func (n *recordingNotifier) Start(ctx context.Context) error { return nil }
func (n *recordingNotifier) Stop(ctx context.Context) error  { return nil }
func (n *recordingNotifier) Actions() <-chan domain.Command  { return n.actions }

func (n *recordingNotifier) Show(ctx context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, notification)
	return nil
}

func (n *recordingNotifier) Dismiss(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissed++
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.shown)
}

func (n *recordingNotifier) last(t *testing.T) domain.Notification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.shown) == 0 {
		t.Fatal("no notification shown")
	}
	return n.shown[len(n.shown)-1]
}

type harness struct {
	ctrl      *Controller
	notifier  *recordingNotifier
	backend   *fakeBackend
	factories int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{notifier: newRecordingNotifier(), backend: &fakeBackend{}}
	h.ctrl = NewController(zap.NewNop(), h.notifier, Options{
		StreamURL:    testStream,
		AppName:      "RRP Radio Player",
		InitialTitle: "Loading...",
	})
	h.ctrl.newBackend = func(*zap.Logger, domain.BufferConfig) (playbackBackend, error) {
		h.factories++
		return h.backend, nil
	}

	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = h.ctrl.Stop(context.Background()) })
	return h
}

func mustState(t *testing.T, snap domain.Snapshot, err error, want domain.PlaybackState) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.State != want {
		t.Fatalf("state: want %s, got %s", want, snap.State)
	}
}

// TestController_PlayPauseNotification checks the notification always offers
// the inverse action and repeated commands do not touch the backend again
func TestController_PlayPauseNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.ctrl.Play(ctx)
	mustState(t, snap, err, domain.StatePlaying)

	n := h.notifier.last(t)
	if n.Action != domain.CommandPause {
		t.Errorf("after Play: want Pause action, got %s", n.Action)
	}
	if n.Summary != "RRP Radio Player" || n.Body != "Loading..." {
		t.Errorf("unexpected notification content: %+v", n)
	}

	snap, err = h.ctrl.Play(ctx)
	mustState(t, snap, err, domain.StatePlaying)
	if h.notifier.last(t).Action != domain.CommandPause {
		t.Error("repeated Play changed the action")
	}

	snap, err = h.ctrl.Pause(ctx)
	mustState(t, snap, err, domain.StatePaused)
	if h.notifier.last(t).Action != domain.CommandPlay {
		t.Errorf("after Pause: want Play action, got %s", h.notifier.last(t).Action)
	}

	snap, err = h.ctrl.Pause(ctx)
	mustState(t, snap, err, domain.StatePaused)
	if h.notifier.last(t).Action != domain.CommandPlay {
		t.Error("repeated Pause changed the action")
	}

	if h.factories != 1 {
		t.Errorf("backend created %d times, want 1", h.factories)
	}
	if len(h.backend.loaded) != 1 || h.backend.loaded[0] != testStream {
		t.Errorf("stream loaded %v, want exactly [%s]", h.backend.loaded, testStream)
	}
	if h.backend.plays != 1 || h.backend.pauses != 1 {
		t.Errorf("backend calls: plays=%d pauses=%d, want 1 and 1", h.backend.plays, h.backend.pauses)
	}

	// Resume reuses the initialized player
	snap, err = h.ctrl.Play(ctx)
	mustState(t, snap, err, domain.StatePlaying)
	if h.factories != 1 || h.backend.plays != 2 {
		t.Errorf("resume: factories=%d plays=%d", h.factories, h.backend.plays)
	}
}

func TestController_PauseBeforePlayIsNoop(t *testing.T) {
	h := newHarness(t)

	snap, err := h.ctrl.Pause(context.Background())
	mustState(t, snap, err, domain.StateStopped)

	if h.factories != 0 {
		t.Error("Pause must not initialize the player")
	}
	if h.notifier.count() != 0 {
		t.Error("Pause from stopped must not show a notification")
	}
}

func TestController_Toggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	want := []domain.PlaybackState{domain.StatePlaying, domain.StatePaused, domain.StatePlaying}
	for i, state := range want {
		snap, err := h.ctrl.Toggle(ctx)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if snap.State != state {
			t.Errorf("toggle %d: want %s, got %s", i, state, snap.State)
		}
	}
}

func TestController_SetTitle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Not playing: title stored, notification untouched
	snap, err := h.ctrl.SetTitle(ctx, "Band - Track")
	if err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	if snap.Title != "Band - Track" {
		t.Errorf("title not stored: %q", snap.Title)
	}
	if h.notifier.count() != 0 {
		t.Error("notification refreshed while stopped")
	}

	if _, err := h.ctrl.Play(ctx); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if body := h.notifier.last(t).Body; body != "Band - Track" {
		t.Errorf("notification body: want %q, got %q", "Band - Track", body)
	}

	if _, err := h.ctrl.SetTitle(ctx, "Other - Song"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	n := h.notifier.last(t)
	if n.Body != "Other - Song" || n.Action != domain.CommandPause {
		t.Errorf("refresh while playing: got %+v", n)
	}

	if _, err := h.ctrl.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	before := h.notifier.count()
	if _, err := h.ctrl.SetTitle(ctx, "Third"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	if h.notifier.count() != before {
		t.Error("notification refreshed while paused")
	}
}

func TestController_BackendInitFailureRetries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	fail := true
	h.ctrl.newBackend = func(*zap.Logger, domain.BufferConfig) (playbackBackend, error) {
		h.factories++
		if fail {
			return nil, errors.New("no audio device")
		}
		return h.backend, nil
	}

	snap, err := h.ctrl.Play(ctx)
	if err == nil {
		t.Fatal("expected initialization error")
	}
	if snap.State != domain.StateStopped {
		t.Errorf("state after failure: want stopped, got %s", snap.State)
	}

	fail = false
	snap, err = h.ctrl.Play(ctx)
	mustState(t, snap, err, domain.StatePlaying)
	if h.factories != 2 {
		t.Errorf("expected a second initialization attempt, got %d", h.factories)
	}
}

func TestController_PauseFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.backend.pauseErr = errors.New("device busy")

	if _, err := h.ctrl.Play(ctx); err != nil {
		t.Fatalf("Play: %v", err)
	}
	snap, err := h.ctrl.Pause(ctx)
	mustState(t, snap, err, domain.StatePlaying)
}

func TestController_Execute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.ctrl.Execute(ctx, domain.CommandPlay)
	mustState(t, snap, err, domain.StatePlaying)

	snap, err = h.ctrl.Execute(ctx, domain.CommandPause)
	mustState(t, snap, err, domain.StatePaused)

	if _, err := h.ctrl.Execute(ctx, domain.Command("rewind")); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestController_Stop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.ctrl.Play(ctx); err != nil {
		t.Fatalf("Play: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := h.ctrl.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if h.backend.closed != 1 {
		t.Errorf("backend closed %d times, want 1", h.backend.closed)
	}
	if h.notifier.dismissed != 1 {
		t.Errorf("notification dismissed %d times, want 1", h.notifier.dismissed)
	}

	if _, err := h.ctrl.Play(ctx); !errors.Is(err, ErrControllerStopped) {
		t.Errorf("command after Stop: want ErrControllerStopped, got %v", err)
	}
	if err := h.ctrl.Stop(stopCtx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestController_StopWithoutStart(t *testing.T) {
	ctrl := NewController(zap.NewNop(), newRecordingNotifier(), Options{StreamURL: testStream})
	if err := ctrl.Stop(context.Background()); err != nil {
		t.Fatalf("Stop on unstarted controller: %v", err)
	}
}
