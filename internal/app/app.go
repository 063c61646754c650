package app

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/config"
	"github.com/MrSnakeDoc/marksync/internal/httpserver"
	"github.com/MrSnakeDoc/marksync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/query"
	"github.com/MrSnakeDoc/marksync/internal/scheduler"
	"github.com/MrSnakeDoc/marksync/internal/version"
)

// App is the long-running client: engine, poller, cache sweeper and the
// local control API.
type App struct {
	*Core

	syncer  *scheduler.StateSyncer
	poller  *scheduler.Poller
	sweeper *scheduler.CacheSweeper
	server  *httpserver.Server

	unpin func()
}

func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	core, err := NewCore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	poller := scheduler.NewPoller(core.Engine, loggerClient.Named("poller"), scheduler.Intervals{
		Normal: cfg.PollInterval,
		Busy:   cfg.PollBusyInterval,
		Hidden: cfg.PollHiddenInterval,
	}, nil)

	var pinBase *url.URL
	if cfg.StartURL != "" {
		pinBase, _ = url.Parse(cfg.StartURL)
	}

	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		TimeNow:           time.Now,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		Engine:            core.Engine,
		Poller:            poller,
		RedisClient:       core.redisClient,
		PinBase:           pinBase,
		MutationBurst:     cfg.MutationBurst,
		MutationPerMinute: cfg.MutationPerMinute,
	}

	a := &App{
		Core:    core,
		syncer:  scheduler.NewStateSyncer(core.Engine, loggerClient),
		poller:  poller,
		sweeper: scheduler.NewCacheSweeper(core.Engine.Cache(), loggerClient.Named("sweeper"), cfg.CacheSweepInterval, cfg.CacheTTL),
		server:  httpserver.New(cfg, loggerClient, d),
	}
	if cfg.PinURL && pinBase != nil {
		a.unpin = pinQuery(core.Engine.Query(), pinBase, loggerClient.Named("pin"))
	}
	return a, nil
}

// pinQuery logs the shareable URL for every accepted query change.
func pinQuery(model *query.Model, base *url.URL, log logger.Logger) func() {
	return model.Subscribe(func(_, next *query.State) {
		log.Info("query pinned",
			logger.String("url", model.Pin(base).String()),
			logger.Uint64("version", next.Version))
	})
}

// Run restores state, starts every loop and blocks until SIGINT/SIGTERM or
// a server error, then shuts down in reverse order.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Infof("🚀 Starting marksync v%s on %s", version.Version, a.Config.ListenAddr)
	a.Logger.Infof("marksync %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bind before starting the poller so a busy port fails fast.
	ln, err := net.Listen("tcp", a.Config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.ListenAddr, err)
	}

	_ = a.syncer.Sync(ctx)

	if err := a.poller.Start(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to start poller: %w", err)
	}
	a.Logger.Info("poller started",
		logger.Duration("interval", a.Config.PollInterval),
		logger.Duration("busy_interval", a.Config.PollBusyInterval),
		logger.Duration("hidden_interval", a.Config.PollHiddenInterval))

	if err := a.sweeper.Start(ctx); err != nil {
		a.poller.Stop()
		_ = ln.Close()
		return fmt.Errorf("failed to start cache sweeper: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Serve(ln); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.sweeper.Stop()
	a.poller.Stop()
	if a.unpin != nil {
		a.unpin()
	}
	a.Core.Close()

	if runErr == nil {
		a.Logger.Info("✅ marksync stopped cleanly")
	}
	return runErr
}
