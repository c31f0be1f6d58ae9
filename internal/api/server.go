// Package api exposes a small operational HTTP surface: health,
// per-channel memory usage, admin action logs and per-guild settings.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nebula/internal/store"
	"nebula/internal/tokens"
)

const defaultLogLimit = 50

// Server wires the status API routes.
type Server struct {
	store      *store.Store
	accountant *tokens.Accountant
	logger     *zap.Logger
}

// New creates the status API server.
func New(st *store.Store, accountant *tokens.Accountant, logger *zap.Logger) *Server {
	return &Server{
		store:      st,
		accountant: accountant,
		logger:     logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router(production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(s.requestLogger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/guilds/:guildID/channels/:channelID/memory", s.getMemoryStats)
		apiGroup.GET("/guilds/:guildID/admin-logs", s.getAdminLogs)
		apiGroup.GET("/guilds/:guildID/settings", s.getSettings)
		apiGroup.PUT("/guilds/:guildID/settings", s.putSettings)
	}

	return router
}

func (s *Server) getMemoryStats(c *gin.Context) {
	guildID := c.Param("guildID")
	channelID := c.Param("channelID")

	total, err := s.store.GetTotalTokens(c.Request.Context(), guildID, channelID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ceiling := s.accountant.Ceiling()
	percentage := float64(total) / float64(ceiling) * 100

	c.JSON(http.StatusOK, gin.H{
		"total_tokens": total,
		"max_tokens":   ceiling,
		"remaining":    ceiling - total,
		"percentage":   percentage,
	})
}

func (s *Server) getAdminLogs(c *gin.Context) {
	guildID := c.Param("guildID")

	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= defaultLogLimit {
			limit = n
		}
	}

	logs, err := s.store.GetAdminLogs(c.Request.Context(), guildID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

func (s *Server) getSettings(c *gin.Context) {
	guildID := c.Param("guildID")

	settings, err := s.store.GetServerSettings(c.Request.Context(), guildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"guild_id": guildID, "settings": settings})
}

func (s *Server) putSettings(c *gin.Context) {
	guildID := c.Param("guildID")

	var body struct {
		Settings string `json:"settings"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.SetServerSettings(c.Request.Context(), guildID, body.Settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"guild_id": guildID, "settings": body.Settings})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
