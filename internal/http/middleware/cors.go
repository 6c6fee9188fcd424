package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stitchpoint/prodplan-backend/internal/platform/envutil"
)

// CORS allows the origins listed in CORS_ORIGINS (comma-separated). The
// default matches a local frontend dev server.
func CORS() gin.HandlerFunc {
	raw := envutil.GetEnv("CORS_ORIGINS", "http://localhost:3000", nil)
	origins := make([]string, 0, 4)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	})
}
