package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manawire-project/manawire/internal/session"
)

// handleConnect opens the configured login server.
func (s *Server) handleConnect(c *gin.Context) {
	if conn := s.session.Connection(); conn != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already connected", "server": conn.Info().Addr()})
		return
	}

	// The connection must outlive the request.
	if err := s.session.Connect(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("API: connect failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info().Msg("API: connected")
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// handleDisconnect closes every connection.
func (s *Server) handleDisconnect(c *gin.Context) {
	s.session.Disconnect()
	s.logger.Info().Msg("API: disconnected")
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

type sayRequest struct {
	Text string `json:"text" binding:"required"`
}

// handleSay sends a public chat line.
func (s *Server) handleSay(c *gin.Context) {
	var req sayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.session.Say(req.Text)
	switch {
	case errors.Is(err, session.ErrNotConnected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	}
}
