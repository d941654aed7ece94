package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouteOptions tunes the HTTP surface.
type RouteOptions struct {
	DiscoveryRate  float64
	DiscoveryBurst int
}

func SetupRoutes(router *gin.Engine, h *Handlers, wsHub *WebSocketHub, opts RouteOptions, logger *zap.Logger) {
	router.Use(CORSMiddleware())
	router.Use(LoggingMiddleware(logger.Named("http"), "/health", "/metrics"))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		devices := api.Group("/devices")
		{
			devices.GET("", h.ListDevices)
			devices.POST("/connect", h.Connect)
			devices.POST("/discover", RateLimitMiddleware(opts.DiscoveryRate, opts.DiscoveryBurst), h.Discover)
			devices.POST("/pair", h.Pair)
			devices.GET("/paired", h.PairedDevices)
			devices.DELETE("/paired/:id", h.ForgetDevice)

			device := devices.Group("/:serial")
			{
				device.POST("/disconnect", h.Disconnect)
				device.GET("/report", h.Report)
				device.GET("/files", h.ListFiles)
				device.POST("/pull", h.PullFile)
				device.POST("/shell", h.Shell)
				device.GET("/system", h.System)
				for _, section := range []string{"hardware", "display", "battery", "build", "network"} {
					device.GET("/"+section, h.Section(section))
				}
				device.GET("/packages", h.Packages)
				device.GET("/logcat", h.Logcat)
			}
		}

		api.GET("/jobs/:id", h.Job)
	}

	router.GET("/ws", func(c *gin.Context) {
		HandleWebSocket(wsHub, c)
	})
}
