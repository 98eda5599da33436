package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hako/durafmt"

	"github.com/manawire-project/manawire/internal/util"
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "session": s.session.ID()})
}

// handleGetStatus returns the session summary.
func (s *Server) handleGetStatus(c *gin.Context) {
	chat := queryInt(c, "chat", 20, 100)
	uptime := time.Since(s.session.StartedAt()).Truncate(time.Second)

	c.JSON(http.StatusOK, gin.H{
		"status": s.session.Status(chat),
		"uptime": durafmt.Parse(uptime).LimitFirstN(2).String(),
	})
}

// handleGetProtocol returns the negotiated protocol and its handler table.
func (s *Server) handleGetProtocol(c *gin.Context) {
	state := s.session.Protocol()
	resp := gin.H{"protocol": state}
	if t := s.session.Table(); t != nil {
		resp["handlers"] = t.Entries(state.ItemIDLen)
	}
	c.JSON(http.StatusOK, resp)
}

// handleGetCounters returns packet traffic totals.
func (s *Server) handleGetCounters(c *gin.Context) {
	snap := s.session.Counters().Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"counters": snap,
		"in":       snap.HumanIn(),
		"out":      snap.HumanOut(),
		"rates":    snap.HumanRates(),
	})
}

// handleGetHost returns host information and the latest resource sample.
func (s *Server) handleGetHost(c *gin.Context) {
	resp := gin.H{"system": util.GetSystemInfo()}
	if s.health != nil {
		resp["resources"] = s.health.Resources()
	}
	c.JSON(http.StatusOK, resp)
}

// handleGetJournal returns recent packet diagnostics.
func (s *Server) handleGetJournal(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
		return
	}
	limit := queryInt(c, "limit", 50, 1000)
	entries, err := s.journal.Recent(limit, c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// handleGetTopUnknown returns the most frequent unknown opcodes.
func (s *Server) handleGetTopUnknown(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
		return
	}
	top, err := s.journal.TopUnknown(queryInt(c, "limit", 10, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"opcodes": top})
}

func queryInt(c *gin.Context, key string, def, max int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || n < 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
