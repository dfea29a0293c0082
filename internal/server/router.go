package server

import (
	"net/http"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/middleware"
	"github.com/PaulBabatuyi/FileDrop/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins     []string
	APIKeys            []string
	RateLimitPerMinute int
	// MaxUploadBytes caps the request body of an upload.
	MaxUploadBytes int64
	Metrics        *observability.Metrics
}

// NewRouter wires the API routes. /health and /metrics stay outside auth.
func NewRouter(fs *fileServer, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	allowAll := len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*")
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: allowAll,
		AllowOrigins:    corsOrigins(allowAll, cfg.AllowedOrigins),
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", middleware.APIKeyHeader},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", fs.Health)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.GetHandler()))
	}

	api := r.Group("/api", middleware.APIKeyAuth(cfg.APIKeys))
	{
		api.GET("/files", fs.ListFiles)
		api.GET("/types", fs.ListTypes)
		api.GET("/storage", fs.Storage)
		api.GET("/files/:id/download", fs.Download)
		api.GET("/files/:id/preview", fs.Preview)
		api.GET("/files/:id/thumbnail", fs.Thumbnail)
		api.PUT("/files/:id/store", fs.SetStored)
		api.DELETE("/files/:id", fs.DeleteFile)

		upload := []gin.HandlerFunc{}
		if cfg.RateLimitPerMinute > 0 {
			upload = append(upload, middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware())
		}
		upload = append(upload, limitBody(cfg.MaxUploadBytes), fs.UploadFiles)
		api.POST("/upload", upload...)
	}
	return r
}

func corsOrigins(allowAll bool, origins []string) []string {
	if allowAll {
		return nil
	}
	return origins
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
