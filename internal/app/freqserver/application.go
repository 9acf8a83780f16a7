package freqserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/magicaleks/freq-server/internal/adapter/httpserver"
	"github.com/magicaleks/freq-server/internal/config"
	"github.com/magicaleks/freq-server/internal/infra/frequency"
	"github.com/magicaleks/freq-server/internal/infra/ratelimit"
	"github.com/magicaleks/freq-server/internal/usecase/dispatch"
	"github.com/magicaleks/freq-server/internal/usecase/lifecycle"
	"github.com/magicaleks/freq-server/internal/usecase/stats"
)

const shutdownTimeout = 5 * time.Second

type Application struct {
	cfg     *config.Config
	logger  *slog.Logger
	gate    *lifecycle.Gate
	stats   *stats.Publisher
	limiter *ratelimit.Store
	server  *httpserver.Server
}

func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	band, err := frequency.ParseBand(cfg.Band)
	if err != nil {
		return nil, fmt.Errorf("frequency band: %w", err)
	}

	gate := lifecycle.NewGate(frequency.NewPool(band), logger)
	dispatcher := dispatch.NewDispatcher(gate, logger)
	api := httpserver.NewAPI(dispatcher, gate, logger)

	var limiter *ratelimit.Store
	if cfg.RateRPS > 0 {
		limiter = ratelimit.NewStore(cfg.RateRPS, cfg.RateBurst)
	}

	server := httpserver.NewServer(api, httpserver.Options{
		Addr:     cfg.ListenAddr,
		BasePath: cfg.BasePath,
		Limiter:  limiter,
	}, logger)

	return &Application{
		cfg:     cfg,
		logger:  logger,
		gate:    gate,
		stats:   stats.NewPublisher(gate, logger, cfg.StatsInterval),
		limiter: limiter,
		server:  server,
	}, nil
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr, err)
	}
	return a.Serve(ctx, l)
}

func (a *Application) Serve(ctx context.Context, l net.Listener) error {
	a.stats.Start(ctx)
	if a.limiter != nil {
		go a.limiter.RunCleanup(ctx, 2*time.Minute)
	}

	snap := a.gate.Snapshot()
	a.logger.Info("frequency server listening",
		"addr", l.Addr().String(),
		"base_path", a.cfg.BasePath,
		"capacity", snap.Capacity,
		"rate_limited", a.limiter != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(l)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down frequency server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return <-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}
