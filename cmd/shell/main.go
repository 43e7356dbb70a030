package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campuspass/internal/callback"
	"campuspass/internal/config"
	"campuspass/internal/events"
	"campuspass/internal/gateway"
	"campuspass/internal/guard"
	"campuspass/internal/login"
	"campuspass/internal/metrics"
	"campuspass/internal/platform/logging"
	"campuspass/internal/refresh"
	"campuspass/internal/session"
	"campuspass/internal/shell"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	durable, err := session.NewFileSlot(cfg.SessionFile())
	if err != nil {
		logger.Error("failed to open session file", "error", err, "path", cfg.SessionFile())
		os.Exit(1)
	}
	store := session.NewStore(session.NewMemorySlot(), durable, session.NewNavState(), logger)

	gw, err := gateway.New(cfg.GatewayURL, logger)
	if err != nil {
		logger.Error("failed to initialize gateway client", "error", err)
		os.Exit(1)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	scheduler := refresh.NewScheduler(gw, store, cfg.RefreshInterval, logger, m)
	defer scheduler.Cancel()

	// A session that survived restart still needs its refresh timer; timers
	// themselves are never persisted.
	if _, ok := store.ReadDurable(); ok {
		logger.Info("restoring persisted session, arming refresh")
		scheduler.Arm()
	}

	notices := shell.NewNotices()
	navigator := shell.NewBrowserNavigator(logger)
	machine := callback.NewMachine(gw, store, scheduler, navigator, notices, logger, m)
	g := guard.New(store, gw, logger, m)
	loginService := login.NewService(gw, store, scheduler, logger)

	var initiator *login.Initiator
	if cfg.OAuthConfigured() {
		initiator, err = login.NewInitiator(cfg.OAuthClientID, cfg.OAuthAuthURL, cfg.OAuthRedirectURL)
		if err != nil {
			logger.Error("failed to configure OAuth login", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("OAuth login is not configured; only credential logins are available")
	}

	eventsClient, err := events.NewClient(cfg.GatewayURL, gw.HTTPClient(), logger)
	if err != nil {
		logger.Error("failed to initialize events client", "error", err)
		os.Exit(1)
	}

	router := shell.NewRouter(cfg, shell.Deps{
		Auth:     shell.NewAuthHandler(machine, initiator, loginService, notices, cfg.SuperAdminLogin, cfg.TestLogin, logger),
		Sessions: shell.NewSessionHandler(),
		Events:   shell.NewEventsHandler(eventsClient, logger),
		Guard:    g,
		Metrics:  promhttp.Handler(),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("CampusPass shell listening", "addr", srv.Addr, "gateway", cfg.GatewayURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
