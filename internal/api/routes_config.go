package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/limiter"
)

// handleGetConfig returns the server and network sections.
func (s *Server) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"server":  s.cfg.GetServer(),
		"network": s.cfg.GetNetwork(),
	})
}

// handlePatchServer updates server fields by JSON name. Changes apply to
// the next session.
func (s *Server) handlePatchServer(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prev := s.cfg.GetServer()
	for key, value := range fields {
		if err := s.cfg.UpdateServerField(key, value); err != nil {
			s.cfg.SetServer(prev)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if result := config.Validate(s.cfg); !result.IsValid() {
		s.cfg.SetServer(prev)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid configuration", "details": result.Errors})
		return
	}
	if err := s.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config"})
		return
	}

	if s.eventBus != nil {
		for key, value := range fields {
			s.eventBus.Emit(c.Request.Context(), events.Event{
				Type:    events.EventConfigChanged,
				Source:  "api",
				Payload: events.ConfigChangedPayload{Section: "server", Key: key, Value: value},
			})
		}
	}
	s.logger.Info().Int("fields", len(fields)).Msg("API: server config updated")
	c.JSON(http.StatusOK, gin.H{"status": "updated", "server": s.cfg.GetServer()})
}

// handleGetLimits returns the outbound packet limits in ticks.
func (s *Server) handleGetLimits(c *gin.Context) {
	l := s.session.Limiter()
	limits := make(map[string]int)
	for _, t := range limiter.Types() {
		limits[t.String()] = l.Ticks(t)
	}
	c.JSON(http.StatusOK, gin.H{"limits": limits, "tick_ms": limiter.Tick.Milliseconds()})
}

type limitRequest struct {
	Ticks *int `json:"ticks" binding:"required"`
}

// handleSetLimit changes one packet limit and persists the limits file.
func (s *Server) handleSetLimit(c *gin.Context) {
	t, err := limiter.ParsePacketType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	var req limitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Ticks < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticks must not be negative"})
		return
	}

	l := s.session.Limiter()
	if err := l.SetTicks(t, *req.Ticks); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if file := s.cfg.PacketLimits.File; file != "" {
		if err := l.Save(file); err != nil {
			s.logger.Warn().Err(err).Str("path", file).Msg("failed to save packet limits")
		}
	}
	c.JSON(http.StatusOK, gin.H{"type": t.String(), "ticks": l.Ticks(t)})
}
