package player

import (
	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/zap"
)

// playbackBackend is the native streaming player. Decoding, buffering and
// network recovery happen inside it.
type playbackBackend interface {
	Load(url string) error
	Play() error
	Pause() error
	Close() error
}

type backendFactory func(logger *zap.Logger, buffer domain.BufferConfig) (playbackBackend, error)
