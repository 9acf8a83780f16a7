package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/magicaleks/freq-server/internal/infra/ratelimit"
)

type Options struct {
	Addr     string
	BasePath string
	// Limiter is optional; nil disables rate limiting.
	Limiter *ratelimit.Store
}

type Server struct {
	http *http.Server
}

// NewRouter builds the gin engine with middleware and routes installed.
func NewRouter(api *API, opts Options, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// ClientIP keys the rate limiter, so forwarded headers are not trusted.
	_ = router.SetTrustedProxies(nil)
	router.Use(requestID())
	router.Use(requestLogger(logger))
	router.Use(gin.CustomRecovery(requestRecoveryWithLog(logger)))
	if opts.Limiter != nil {
		router.Use(rateLimit(opts.Limiter, logger))
	}
	api.RegisterRoutes(router, opts.BasePath)
	return router
}

func NewServer(api *API, opts Options, logger *slog.Logger) *Server {
	s := &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(api, opts, logger),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{http: s}
}

// Serve blocks until the listener fails or Shutdown is called; the latter
// returns nil.
func (s *Server) Serve(l net.Listener) error {
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
