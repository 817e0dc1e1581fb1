package rest

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RouterConfig собирает обработчики для сборки HTTP-маршрутизатора.
type RouterConfig struct {
	OrderHandler   *OrderHandler
	CatalogHandler *CatalogHandler
	AllowedOrigins []string
}

// NewRouter собирает gin-маршрутизатор со всеми маршрутами API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Content-Type", "Idempotency-Key"}
	router.Use(cors.New(corsCfg))

	api := router.Group("/api")
	if cfg.OrderHandler != nil {
		cfg.OrderHandler.Register(api)
	}
	if cfg.CatalogHandler != nil {
		cfg.CatalogHandler.Register(api)
	}

	return router
}

// requestLogger пишет завершённые запросы через logrus.
func requestLogger() gin.HandlerFunc {
	logger := log.WithField("component", "http")
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := logger.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(started).String(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Debug("request completed")
	}
}
