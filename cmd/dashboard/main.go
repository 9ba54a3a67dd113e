package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/baditaflorin/go_status_dashboard/internal/api"
	"github.com/baditaflorin/go_status_dashboard/internal/config"
	"github.com/baditaflorin/go_status_dashboard/internal/logging"
	"github.com/baditaflorin/go_status_dashboard/internal/metrics"
	"github.com/baditaflorin/go_status_dashboard/internal/monitor"
	"github.com/baditaflorin/go_status_dashboard/internal/statusapi"
	"github.com/baditaflorin/go_status_dashboard/internal/view"
)

const version = "2.0.0"

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // allow .env for local runs
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("invalid logging configuration")
	}
	if cfg.File != "" {
		log.WithField("file", cfg.File).Info("loaded configuration file")
	}

	// 2. Status API Client
	m := metrics.New()
	client := statusapi.NewClient(statusapi.Config{
		BaseURL:  cfg.APIURL,
		Timeout:  cfg.Timeout,
		Observer: m,
		Logger:   log.WithField("component", "statusapi"),
	})

	// 3. Dashboard View and Monitor
	var mon *monitor.Monitor
	dashboard := view.New(view.Config{
		API:      client,
		Logger:   log.WithField("component", "view"),
		OnChange: func() { mon.NotifyChanged() },
	})
	mon = monitor.NewMonitor(dashboard, cfg.RefreshInterval, log.WithField("component", "monitor"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go mon.Start(ctx)

	renderer, err := view.NewHTMLRenderer()
	if err != nil {
		log.WithError(err).Fatal("parsing templates failed")
	}

	// 4. Initialize Handlers
	limiter := api.NewRateLimiter(cfg.MutationRate, cfg.MutationBurst, log)
	go limiter.StartCleanup(ctx, time.Minute, api.DefaultClientIdle)
	handler := api.NewHandler(dashboard, renderer, mon, m, limiter, log, version)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown did not complete")
		}
	}()

	log.Infof("Starting Status Dashboard v%s on port %s (status API %s)", version, cfg.Port, client.BaseURL())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}
	log.Info("stopped")
}
