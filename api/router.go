package api

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/luma/respd/internal/meta"
)

// MaxDecodeBodySize bounds the request body POST /decode will read
const MaxDecodeBodySize = 1 << 20

type Options struct {
	// Debug puts gin into debug mode
	Debug bool

	// Gatherer is served on /metrics. Defaults to prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// Log defaults to a no-op logger
	Log *zap.Logger
}

// NewRouter builds the HTTP side-channel: health checks, metrics and a debug
// endpoint that decodes whatever frames are posted to it.
func NewRouter(opts Options) *gin.Engine {
	gin.DisableConsoleColor()
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.GinzapWithConfig(opts.Log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/healthz", "/metrics"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(opts.Log, true))

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": meta.Version,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	r.POST("/decode", decodeHandler)

	return r
}
