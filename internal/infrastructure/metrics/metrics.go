package metrics

import (
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total number of requests through the gateway",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Request duration through the gateway in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"method"})

	rpcCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_calls_total",
		Help: "Total downstream RPC calls by service",
	}, []string{"service", "outcome"})
)

// ObserveRPC records one downstream call outcome.
func ObserveRPC(service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	rpcCallsTotal.WithLabelValues(service, outcome).Inc()
}

// Middleware records request counts and latencies for every route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		method := c.Request.Method
		requestsTotal.WithLabelValues(method, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
}

// GetHandler mounts the prometheus scrape endpoint and the pprof pages.
func GetHandler(router *gin.RouterGroup) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pprofGroup := router.Group("/debug/pprof")
	{
		pprofGroup.GET("/", gin.WrapF(pprof.Index))
		pprofGroup.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofGroup.GET("/profile", gin.WrapF(pprof.Profile))
		pprofGroup.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofGroup.GET("/trace", gin.WrapF(pprof.Trace))
		pprofGroup.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofGroup.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}
}
