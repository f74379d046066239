// Package server exposes the response pipeline over a thin HTTP surface.
// All decision logic lives in the engine; handlers only bind, call and
// serialize.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/solacehq/solace/engine"
	"github.com/solacehq/solace/engine/catalog"
	"github.com/solacehq/solace/internal/observability"
	"github.com/solacehq/solace/internal/profile"
)

// Server hosts the chat API.
type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	engine     *engine.Engine
	catalog    *catalog.Store
	metrics    *observability.Metrics
}

// NewServer wires the routes.
func NewServer(prof *profile.Profile, eng *engine.Engine, cat *catalog.Store, metrics *observability.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Profile:    prof,
		echoServer: e,
		engine:     eng,
		catalog:    cat,
		metrics:    metrics,
	}

	e.GET("/healthz", s.Healthz)

	apiv1 := e.Group("/api/v1")
	apiv1.POST("/chat", s.Chat)
	apiv1.GET("/stats", s.Stats)
	apiv1.POST("/catalog/reload", s.ReloadCatalog)

	return s
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- s.echoServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echoServer.Shutdown(shutdownCtx)
	}
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echoServer
}

// ChatRequest is the inbound turn payload.
type ChatRequest struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Chat handles one conversational turn.
// POST /api/v1/chat
func (s *Server) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.UserID == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id and message are required"})
	}
	if req.SessionID == "" {
		// One implicit session per user when the client doesn't track one.
		req.SessionID = req.UserID
	}

	resp := s.engine.Respond(c.Request().Context(), req.UserID, req.Message, req.SessionID)
	return c.JSON(http.StatusOK, resp)
}

// StatsResponse wraps the metrics snapshot with catalog info.
type StatsResponse struct {
	CatalogVersion   int                   `json:"catalog_version"`
	CatalogTemplates int                   `json:"catalog_templates"`
	Metrics          *observability.Snapshot `json:"metrics"`
}

// Stats reports pipeline counters.
// GET /api/v1/stats
func (s *Server) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		CatalogVersion:   s.catalog.Version(),
		CatalogTemplates: s.catalog.Len(),
		Metrics:          s.metrics.Snapshot(),
	})
}

// ReloadCatalog re-reads the catalog file, swapping templates when the
// on-disk version was bumped.
// POST /api/v1/catalog/reload
func (s *Server) ReloadCatalog(c echo.Context) error {
	swapped, err := s.catalog.Reload()
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"reloaded":        swapped,
		"catalog_version": s.catalog.Version(),
	})
}

// Healthz is the liveness probe.
// GET /healthz
func (s *Server) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
