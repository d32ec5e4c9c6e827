package broadcast

import (
	"sync"

	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/zap"
)

const defaultBuffer = 4

// Hub fans NowPlaying values out to every live subscription.
// Delivery never blocks the publisher: a subscriber whose buffer is full
// loses its oldest pending value, so the latest title always gets through.
type Hub struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	latest *domain.NowPlaying
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscription is a registered listener
type Subscription struct {
	hub  *Hub
	name string
	ch   chan domain.NowPlaying
	once sync.Once
}

// Subscribe registers a listener. The most recent value, if any, is queued
// immediately so late subscribers do not wait a full poll interval.
func (h *Hub) Subscribe(name string) *Subscription {
	sub := &Subscription{
		hub:  h,
		name: name,
		ch:   make(chan domain.NowPlaying, defaultBuffer),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	if h.latest != nil {
		sub.ch <- *h.latest
	}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("Subscriber registered", zap.String("name", name), zap.Int("subscribers", count))
	return sub
}

// Publish delivers np to every subscriber
func (h *Hub) Publish(np domain.NowPlaying) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &np
	for sub := range h.subs {
		sub.offer(np)
	}
}

// Latest returns the last published value
func (h *Hub) Latest() (domain.NowPlaying, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.latest == nil {
		return domain.NowPlaying{}, false
	}
	return *h.latest, true
}

// Len reports the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// offer must be called with the hub lock held
func (s *Subscription) offer(np domain.NowPlaying) {
	for {
		select {
		case s.ch <- np:
			return
		default:
		}

		// Full: drop the oldest pending value and retry
		select {
		case <-s.ch:
			s.hub.logger.Debug("Subscriber slow, dropped stale title", zap.String("name", s.name))
		default:
		}
	}
}

// C returns the delivery channel. It is closed by Unsubscribe.
func (s *Subscription) C() <-chan domain.NowPlaying {
	return s.ch
}

// Unsubscribe removes the listener and closes its channel.
// Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	released := false
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
		released = true
	})

	if released {
		s.hub.logger.Debug("Subscriber removed", zap.String("name", s.name))
	} else {
		s.hub.logger.Debug("Subscriber already removed", zap.String("name", s.name))
	}
}
