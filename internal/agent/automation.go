// Package agent runs a campaign on one browser page: it walks the profile
// cards on the page, sends connection requests within the campaign limits and
// follows up with connections that accepted.
package agent

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unclebandit/linkedin-outreach/internal/dom"
	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/extraction"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
	"github.com/unclebandit/linkedin-outreach/internal/schedule"
	"github.com/unclebandit/linkedin-outreach/internal/service"
)

const DefaultCycleInterval = 5 * time.Second

// Pipeline performs the outreach actions on the page.
type Pipeline interface {
	SendConnectionRequest(ctx context.Context, page dom.Page, card dom.Node, p model.ProfileInfo, c model.Campaign) (bool, error)
	SendFollowUp(ctx context.Context, page dom.Page, conn model.Connection, c model.Campaign) (string, error)
}

// Automation is the campaign state machine of a page agent. It is Idle until
// Start succeeds and Running until Stop.
type Automation struct {
	Page        dom.Page
	Repo        repository.OutreachRepositoryInterface
	Extractor   *extraction.Extractor
	Outreach    Pipeline
	Delayer     schedule.Delayer
	Ticker      schedule.Ticker
	Clock       schedule.Clock
	Acceptances AcceptanceSource
	Interval    time.Duration
	Logger      *slog.Logger

	mu              sync.Mutex
	running         bool
	campaign        *model.Campaign
	settings        model.Settings
	connectionCount int
	messageCount    int
	processed       map[string]struct{}
	task            schedule.Task
	cancel          context.CancelFunc

	// page is held by everything that acts on Page: cycles and follow-ups.
	page    sync.Mutex
	cycling atomic.Bool
	cycles  sync.WaitGroup
}

func New(page dom.Page, repo repository.OutreachRepositoryInterface, ticker schedule.Ticker) *Automation {
	delayer := schedule.RandomDelayer{}
	return &Automation{
		Page:        page,
		Repo:        repo,
		Extractor:   extraction.NewExtractor(),
		Outreach:    service.NewOutreach(delayer),
		Delayer:     delayer,
		Ticker:      ticker,
		Clock:       schedule.SystemClock{},
		Acceptances: &StoredAcceptances{Repo: repo},
		Interval:    DefaultCycleInterval,
		Logger:      logging.WithModule("automation"),
		processed:   make(map[string]struct{}),
	}
}

// Start runs campaign on the current page. A running campaign is stopped
// first. On an unsupported page it returns UnsupportedPageError and stays Idle.
// The first cycle starts right away in the background; Wait blocks until it ends.
func (a *Automation) Start(ctx context.Context, campaign model.Campaign) error {
	if a.IsRunning() {
		a.Logger.Info("automation already running, restarting")
		a.Stop(ctx)
	}

	if !extraction.IsValidPage(a.Page) {
		return appErrors.NewUnsupportedPage(a.Page.URL())
	}

	settings, err := a.Repo.Settings(ctx)
	if err != nil {
		a.Logger.Warn("using default settings", "error", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	a.mu.Lock()
	a.running = true
	a.campaign = &campaign
	a.settings = settings
	a.connectionCount = 0
	a.messageCount = 0
	a.processed = make(map[string]struct{})
	a.cancel = cancel
	a.task = a.Ticker.Every(a.Interval, func() { a.ProcessCurrentPage(runCtx) })
	a.mu.Unlock()

	a.Logger.Info("automation started", "campaign", campaign.Name, "page", a.Page.URL())

	a.cycles.Add(1)
	go func() {
		defer a.cycles.Done()
		a.runCycle(runCtx)
	}()
	return nil
}

// Stop returns to Idle, disarms the periodic cycle and records a statistics
// snapshot. An in-flight cycle stops at its next card; Stop returns once it has.
func (a *Automation) Stop(ctx context.Context) {
	a.mu.Lock()
	a.running = false
	a.campaign = nil
	if a.task != nil {
		a.task.Cancel()
		a.task = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()

	a.page.Lock()
	a.page.Unlock()

	a.mu.Lock()
	stats := model.Statistics{
		ConnectionCount: a.connectionCount,
		MessageCount:    a.messageCount,
		Date:            a.Clock.Now(),
	}
	a.mu.Unlock()

	if err := a.Repo.SaveStatistics(ctx, stats); err != nil {
		a.Logger.Error("failed to save statistics", "error", err)
	}
	a.Logger.Info("automation stopped", "connections", stats.ConnectionCount, "messages", stats.MessageCount)
}

// Wait blocks until the cycle launched by Start has finished.
func (a *Automation) Wait() {
	a.cycles.Wait()
}

func (a *Automation) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *Automation) Status() model.AgentStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return model.AgentStatus{
		IsRunning:       a.running,
		ConnectionCount: a.connectionCount,
		MessageCount:    a.messageCount,
		CurrentPage:     a.Page.URL(),
	}
}

// snapshot returns the running campaign and settings, or nil when Idle.
func (a *Automation) snapshot() (*model.Campaign, model.Settings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running || a.campaign == nil {
		return nil, a.settings
	}
	c := *a.campaign
	return &c, a.settings
}

func (a *Automation) connectionsLeft(c *model.Campaign) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return c.MaxConnectionsPerDay - a.connectionCount
}

func (a *Automation) messagesLeft(c *model.Campaign) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return c.MaxMessagesPerDay - a.messageCount
}

// markProcessed adds id to the dedup set. It returns false if it was already there.
func (a *Automation) markProcessed(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.processed[id]; seen {
		return false
	}
	a.processed[id] = struct{}{}
	return true
}

// ProcessCurrentPage is one periodic processing cycle. Overlapping calls return
// immediately, as do calls while Idle or outside the working window.
func (a *Automation) ProcessCurrentPage(ctx context.Context) {
	if !a.cycling.CompareAndSwap(false, true) {
		a.Logger.Debug("cycle already in progress, skipping")
		return
	}
	defer a.cycling.Store(false)
	a.runCycle(ctx)
}

// runCycle waits for the page to be free and processes it.
func (a *Automation) runCycle(ctx context.Context) {
	a.page.Lock()
	defer a.page.Unlock()
	if ctx.Err() != nil {
		return
	}

	campaign, settings := a.snapshot()
	if campaign == nil {
		return
	}
	if !schedule.WindowFromSettings(settings).Contains(a.Clock.Now()) {
		a.Logger.Debug("outside working hours, skipping cycle")
		return
	}

	if a.connectionsLeft(campaign) <= 0 {
		a.Logger.Info("daily connection limit reached", "limit", campaign.MaxConnectionsPerDay)
	} else {
		a.processCards(ctx, campaign)
	}

	if ctx.Err() == nil && a.IsRunning() {
		a.processPendingConnections(ctx)
	}
}

func (a *Automation) processCards(ctx context.Context, campaign *model.Campaign) {
	for _, card := range extraction.DiscoverCards(a.Page) {
		if ctx.Err() != nil || !a.IsRunning() {
			return
		}
		if a.connectionsLeft(campaign) <= 0 {
			a.Logger.Info("daily connection limit reached", "limit", campaign.MaxConnectionsPerDay)
			return
		}
		if !a.processCard(ctx, card, campaign) {
			continue
		}
		if err := a.Delayer.Wait(ctx, campaign.ConnectionDelay); err != nil {
			return
		}
	}
}

// processCard handles one card and reports whether it was new.
func (a *Automation) processCard(ctx context.Context, card dom.Node, campaign *model.Campaign) bool {
	p := a.Extractor.ExtractProfile(card, a.Page.URL())
	if p == nil || !a.markProcessed(p.ID) {
		return false
	}

	if service.ShouldConnect(*p, campaign.Filters) {
		sent, err := a.Outreach.SendConnectionRequest(ctx, a.Page, card, *p, *campaign)
		if err != nil {
			a.Logger.Warn("connection request failed", "id", p.ID, "error", err)
		}
		if sent {
			a.mu.Lock()
			a.connectionCount++
			a.mu.Unlock()

			conn := model.Connection{ProfileInfo: *p, Status: model.ConnectionPending}
			conn.Date = a.Clock.Now()
			if err := a.Repo.SaveConnection(ctx, conn); err != nil {
				a.Logger.Error("failed to save connection", "id", p.ID, "error", err)
			}
		}
	}

	if err := a.Repo.SaveLead(ctx, *p); err != nil {
		a.Logger.Error("failed to save lead", "id", p.ID, "error", err)
	}
	return true
}

// Scrape extracts the profiles on the current page without acting on them.
// Unsupported pages yield an empty list.
func (a *Automation) Scrape(ctx context.Context) ([]model.ProfileInfo, error) {
	profiles := []model.ProfileInfo{}
	if !extraction.IsValidPage(a.Page) {
		a.Logger.Info("page not supported for scraping", "url", a.Page.URL())
		return profiles, nil
	}
	// let lazy content settle
	if err := a.Delayer.Wait(ctx, schedule.Seconds(2, 2)); err != nil {
		return profiles, err
	}
	for _, p := range a.Extractor.Scrape(a.Page) {
		profiles = append(profiles, *p)
	}
	a.Logger.Info("scraped profiles", "count", len(profiles))
	return profiles, nil
}
