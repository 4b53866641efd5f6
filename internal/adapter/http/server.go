package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// defaultWriteTimeout bounds a response; refresh requests block for a full
// pass over every feed. Use WithWriteTimeout to size it to the refresh budget.
const defaultWriteTimeout = 2 * time.Minute

// Option configures a Server.
type Option func(*http.Server)

// WithWriteTimeout overrides the response write timeout. Non-positive values
// keep the default.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d
		}
	}
}

// Stations is the station state the API reads from and refreshes.
type Stations interface {
	sharedobs.ReadinessChecker
	Snapshot() domain.Snapshot
	Station(id string) (domain.StationState, bool)
	ProcessAll(ctx context.Context) (domain.Snapshot, error)
}

// Catalog lists the registered stations.
type Catalog interface {
	domain.StationLookup
	Stations() []domain.Station
}

// Server exposes the station API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	stations   Stations
	catalog    Catalog
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/v1 routes and the
// /healthz, /readyz, and /metrics probes.
func NewServer(addr string, stations Stations, catalog Catalog, logger *slog.Logger, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
		engine:   engine,
		stations: stations,
		catalog:  catalog,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s.httpServer)
	}

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(stations)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	v1.GET("/stations", s.handleListStations)
	v1.GET("/stations/:id", s.handleGetStation)
	v1.GET("/registry", s.handleRegistry)
	v1.POST("/refresh", s.handleRefresh)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// stationView is one station's registry metadata joined with its fields.
type stationView struct {
	domain.Station
	Fields    domain.Fields `json:"fields"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

func snapshotMeta(snap domain.Snapshot) gin.H {
	meta := gin.H{
		"count":        len(snap.Stations),
		"reporting":    snap.Reporting(),
		"generated_at": snap.GeneratedAt,
	}
	if snap.PassID != "" {
		meta["pass_id"] = snap.PassID
		meta["refreshed_at"] = snap.RefreshedAt
	}
	return meta
}

// handleListStations returns the id to fields mapping for every station.
// GET /api/v1/stations
func (s *Server) handleListStations(c *gin.Context) {
	snap := s.stations.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"data": snap.Mapping(),
		"meta": snapshotMeta(snap),
	})
}

// handleGetStation returns one station's metadata and fields.
// GET /api/v1/stations/:id
func (s *Server) handleGetStation(c *gin.Context) {
	id := c.Param("id")
	station, ok := s.catalog.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}
	state, ok := s.stations.Station(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}

	view := stationView{Station: station, Fields: state.Fields}
	if state.Reporting() {
		view.UpdatedAt = &state.UpdatedAt
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// handleRegistry returns the station catalogue.
// GET /api/v1/registry
func (s *Server) handleRegistry(c *gin.Context) {
	stations := s.catalog.Stations()
	c.JSON(http.StatusOK, gin.H{
		"data": stations,
		"meta": gin.H{"count": len(stations)},
	})
}

// handleRefresh runs a full refresh and returns its summary.
// POST /api/v1/refresh
func (s *Server) handleRefresh(c *gin.Context) {
	snap, err := s.stations.ProcessAll(c.Request.Context())
	if err != nil {
		s.logger.Warn("refresh request aborted", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meta": snapshotMeta(snap)})
}
