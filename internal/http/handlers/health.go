package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stitchpoint/prodplan-backend/internal/db"
	"github.com/stitchpoint/prodplan-backend/internal/http/response"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type HealthHandler struct {
	log *logger.Logger
	db  *db.PostgresService
}

func NewHealthHandler(log *logger.Logger, db *db.PostgresService) *HealthHandler {
	return &HealthHandler{log: log.With("handler", "HealthHandler"), db: db}
}

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"message": "Production Planning Parser API",
		"status":  "running",
		"version": "1.0.0",
	})
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "connected"
	if h.db == nil {
		dbStatus = "error"
	} else if err := h.db.Ping(); err != nil {
		h.log.Warn("Health check database ping failed", "error", err)
		dbStatus = "error"
	}
	response.RespondOK(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
	})
}
