// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/linkedin-outreach/internal/app"
	"github.com/unclebandit/linkedin-outreach/internal/config"
	"github.com/unclebandit/linkedin-outreach/internal/controller"
	"github.com/unclebandit/linkedin-outreach/internal/handler"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
	"github.com/unclebandit/linkedin-outreach/internal/schedule"
	"github.com/unclebandit/linkedin-outreach/internal/service"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is done. Everything it opens is released before it returns.
func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	bus, err := app.OpenBus(cfg)
	if err != nil {
		return fmt.Errorf("open bus: %w", err)
	}
	defer bus.Close()

	repo := &repository.OutreachRepository{Store: store}
	manager := service.NewAutomationManager(repo, bus)
	manager.FollowUpAgent = cfg.AgentID
	if err := manager.Init(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	campaignHandler := handler.NewCampaignHandler(manager)
	if _, err := bus.Subscribe(queue.TopicController, campaignHandler.Handle); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	scheduler := schedule.NewScheduler()
	if _, err := manager.ScheduleChecks(scheduler, cfg.CheckConnectionsSpec, cfg.CheckMessagesSpec); err != nil {
		return fmt.Errorf("schedule checks: %w", err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	controller.NewCampaignController(manager).Routes(r)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	default:
		return nil
	}
}
