package api

import (
	"context"
	"net/http"
	"time"

	"github.com/genricoloni/rrp/internal/domain"
	"github.com/gin-gonic/gin"
)

type statusResponse struct {
	State      domain.PlaybackState `json:"state"`
	Title      string               `json:"title"`
	NowPlaying *domain.NowPlaying   `json:"nowPlaying,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "rrp",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) status(c *gin.Context) {
	snap, err := s.control.Snapshot(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.response(snap))
}

// command builds a handler for one controller operation
func (s *Server) command(op func(context.Context) (domain.Snapshot, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := op(c.Request.Context())
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, s.response(snap))
	}
}

func (s *Server) response(snap domain.Snapshot) statusResponse {
	resp := statusResponse{State: snap.State, Title: snap.Title}
	if np, ok := s.hub.Latest(); ok {
		resp.NowPlaying = &np
	}
	return resp
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
