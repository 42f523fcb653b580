package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swapspot/swapspot/internal/infrastructure/metrics"
	"github.com/swapspot/swapspot/internal/presentation/gateway"
)

// GatewayRoutes mounts the public surface: the token-check special case, the
// push channel, operational endpoints, and the catch-all dispatcher that
// carries everything else to the domain services.
func GatewayRoutes(router *gin.Engine, handler *gateway.Handler, push *gateway.PushHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/check-token", handler.CheckToken)
	router.POST("/check-token", handler.CheckToken)

	router.GET("/ws", push.Serve)

	metrics.GetHandler(router.Group("/"))

	// Everything else is /<service>/<command>[/<id>].
	router.NoRoute(handler.Dispatch)
}
