// Package api serves the custom function service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/entrhq/funcbox/pkg/function/service"
	"github.com/entrhq/funcbox/pkg/logging"
)

// SetupRouter builds the gin engine with every route.
func SetupRouter(svc *service.Service, version string, logger *logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(RequestLogger(logger))

	started := time.Now()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, service.OK(HealthResponse{
			Status:       "healthy",
			Version:      version,
			Uptime:       time.Since(started).Round(time.Second).String(),
			Functions:    svc.Store().Count(),
			Capabilities: capabilityNames(svc),
		}))
	})

	h := NewFunctionHandler(svc)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/capabilities", h.Capabilities)

		functions := v1.Group("/functions")
		{
			functions.GET("", h.List)
			functions.POST("", h.Create)
			functions.POST("/validate", h.Validate)
			functions.GET("/stats", h.Stats)
			functions.GET("/export", h.Export)
			functions.POST("/import", h.Import)
			functions.GET("/:id", h.Get)
			functions.PATCH("/:id", h.Update)
			functions.DELETE("/:id", h.Delete)
			functions.POST("/:id/execute", h.Execute)
		}
	}

	return router
}

func capabilityNames(svc *service.Service) []string {
	names := svc.Capabilities()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
