package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/telectl/internal/client"
	"github.com/danmuck/telectl/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// CommandRequest is the POST /commands body.
type CommandRequest struct {
	Command string   `json:"command" binding:"required"`
	Args    []string `json:"args"`
}

func (s *StatusServer) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": s.cfg.Name,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Ready means the client holds a live session.
	s.router.GET("/ready", func(c *gin.Context) {
		snap := s.ctl.Snapshot()
		ready := snap.State == client.Connected.String()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"state":   snap.State,
			"service": s.cfg.Name,
			"version": version,
		})
	})

	s.router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.ctl.Snapshot())
	})

	s.router.POST("/commands", func(c *gin.Context) {
		var req CommandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.ctl.SendCommand(req.Command, req.Args...); err != nil {
			c.JSON(commandStatus(err), gin.H{"error": err.Error()})
			return
		}
		log.Info().Str("command", req.Command).Strs("args", req.Args).Msg("command submitted")
		c.JSON(http.StatusAccepted, gin.H{"status": "sent", "command": req.Command})
	})
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, protocol.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrNotConnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
