//go:build !libmpv

package player

import (
	"errors"

	"github.com/genricoloni/rrp/internal/domain"
	"go.uber.org/zap"
)

func newPlaybackBackend(logger *zap.Logger, buffer domain.BufferConfig) (playbackBackend, error) {
	return nil, errors.New("libmpv backend is not enabled; build with -tags libmpv")
}
