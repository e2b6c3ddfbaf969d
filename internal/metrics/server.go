package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves a recorder's registry on /metrics and a liveness probe on
// /healthz.
type Server struct {
	echo   *echo.Echo
	logger *slog.Logger
	port   string
}

// NewServer builds the server. It does not start listening.
func NewServer(r *Recorder, port string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return &Server{echo: e, logger: logger, port: port}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens in the background. Listen errors are logged.
func (s *Server) Start() {
	go func() {
		addr := fmt.Sprintf(":%s", s.port)
		s.logger.Info("Metrics server starting", "address", addr)

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting up to timeout for in-flight scrapes.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
