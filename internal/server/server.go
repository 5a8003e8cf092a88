package server

import (
	"log/slog"
	"net/http"
	"net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/stintio/stint/internal/aggregator"
	"github.com/stintio/stint/internal/correlator"
	"github.com/stintio/stint/internal/hub"
)

// Server exposes the state of a live correlator run over HTTP.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	open       func() []correlator.OpenEntry
	addr       string
	log        *slog.Logger
}

// New creates the dashboard server. openFn supplies a snapshot of the
// correlator's open-job table.
func New(h *hub.Hub, agg *aggregator.Aggregator, openFn func() []correlator.OpenEntry, addr string, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		open:       openFn,
		addr:       addr,
		log:        log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"uptime":       stats.Uptime,
			"total_rows":   stats.TotalRows,
			"dropped_rows": stats.DroppedRows,
		})
	})

	// Metrics API.
	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	// Jobs still waiting for their END event.
	s.engine.GET("/api/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.open())
	})

	// Every flagged row produced so far, in END order.
	s.engine.GET("/api/rows", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.hub.Rows())
	})

	// WebSocket stream of new rows.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	return s.engine.Run(s.addr)
}
