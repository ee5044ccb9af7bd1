package http

import (
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewEngine mounts the websocket shell, the JSON endpoints, metrics from
// gatherer and the pprof handlers.
func NewEngine(h *WSHandler, gatherer prometheus.Gatherer) *gin.Engine {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	e.GET("/healthz", h.Health)
	e.GET("/ws", h.ServeWS)

	api := e.Group("/api")
	api.GET("/scores", h.GetScores)
	api.GET("/categories", h.GetCategories)
	return e
}
