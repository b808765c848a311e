package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/linkedin-outreach/internal/agent"
	"github.com/unclebandit/linkedin-outreach/internal/app"
	"github.com/unclebandit/linkedin-outreach/internal/browser"
	"github.com/unclebandit/linkedin-outreach/internal/config"
	"github.com/unclebandit/linkedin-outreach/internal/dom"
	"github.com/unclebandit/linkedin-outreach/internal/handler"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
	"github.com/unclebandit/linkedin-outreach/internal/schedule"
)

// The worker is a page agent: it drives one browser tab and answers the
// commands sent to agent.<AGENT_ID> and to every agent.
func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("worker failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run drives the browser until ctx is done. Everything it opens is released
// before it returns.
func run(ctx context.Context, cfg config.Config) error {
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

	session, err := browser.Launch(ctx, browser.Options{
		Bin:         cfg.BrowserBin,
		Headless:    cfg.Headless,
		UserDataDir: cfg.UserDataDir,
		StartURL:    cfg.StartURL,
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer session.Close()

	scheduler := schedule.NewScheduler()
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	repo := &repository.OutreachRepository{Store: store}
	automation := newAutomation(session.Page, repo, scheduler, cfg)

	unsubscribe, err := subscribeAgent(bus, cfg.AgentID, handler.NewAgentHandler(automation))
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsubscribe()

	resume(ctx, automation, repo)

	slog.Info("worker running, waiting for commands", "agent", cfg.AgentID, "page", session.Page.URL())
	<-ctx.Done()

	slog.Info("shutting down")
	if automation.IsRunning() {
		automation.Stop(context.Background())
	}
	return nil
}

func newAutomation(page dom.Page, repo repository.OutreachRepositoryInterface, ticker schedule.Ticker, cfg config.Config) *agent.Automation {
	a := agent.New(page, repo, ticker)
	a.Interval = cfg.CycleInterval
	a.Logger = a.Logger.With("agent", cfg.AgentID)
	return a
}

// subscribeAgent routes the agent's own topic and the broadcast topic to h.
func subscribeAgent(bus queue.Bus, agentID string, h *handler.AgentHandler) (func(), error) {
	var unsubs []func()
	unsubscribe := func() {
		for _, u := range unsubs {
			u()
		}
	}
	for _, topic := range []string{queue.AgentTopic(agentID), queue.TopicAgents} {
		u, err := bus.Subscribe(topic, h.Handle)
		if err != nil {
			unsubscribe()
			return nil, err
		}
		unsubs = append(unsubs, u)
	}
	return unsubscribe, nil
}

// resume restarts the campaign that was running when the agent went away.
func resume(ctx context.Context, a *agent.Automation, repo repository.OutreachRepositoryInterface) {
	active, err := repo.ActiveCampaign(ctx)
	if err != nil {
		slog.Warn("could not load active campaign", "error", err)
		return
	}
	if active == nil {
		return
	}
	if err := a.Start(ctx, *active); err != nil {
		slog.Warn("could not resume campaign", "campaign", active.Name, "error", err)
		return
	}
	slog.Info("resumed campaign", "campaign", active.Name)
}
