package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/stitchpoint/prodplan-backend/internal/http/handlers"
	httpMW "github.com/stitchpoint/prodplan-backend/internal/http/middleware"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler *httpH.HealthHandler
	UploadHandler *httpH.UploadHandler
	ItemsHandler  *httpH.ItemsHandler
	TaskHandler   *httpH.TaskHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.UploadHandler != nil {
			api.POST("/upload", cfg.UploadHandler.Upload)
		}
		if cfg.TaskHandler != nil {
			api.GET("/task/:id", cfg.TaskHandler.GetStatus)
		}
		if cfg.ItemsHandler != nil {
			api.GET("/production-items", cfg.ItemsHandler.List)
			api.GET("/production-items/:id", cfg.ItemsHandler.Get)
			api.DELETE("/production-items/:id", cfg.ItemsHandler.Delete)
		}
	}

	return r
}
