// internal/service/campaign_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
	"github.com/unclebandit/linkedin-outreach/internal/schedule"
)

// AutomationManager is the controller's state holder: it owns the campaign
// lifecycle, broadcasts start and stop to the page agents and runs the
// background reconciliation ticks. Only one campaign runs at a time.
type AutomationManager struct {
	Repo   repository.OutreachRepositoryInterface
	Bus    queue.Bus
	Clock  schedule.Clock
	Logger *slog.Logger
	// FollowUpAgent is the agent that sends follow-ups scheduled by the
	// message tick. Empty disables dispatch.
	FollowUpAgent string

	mu              sync.Mutex
	isRunning       bool
	currentCampaign *model.Campaign
	settings        model.Settings
}

func NewAutomationManager(repo repository.OutreachRepositoryInterface, bus queue.Bus) *AutomationManager {
	return &AutomationManager{
		Repo:     repo,
		Bus:      bus,
		Clock:    schedule.SystemClock{},
		Logger:   logging.WithModule("manager"),
		settings: model.DefaultSettings(),
	}
}

// Init loads settings and restores a campaign that was running when the
// controller last stopped.
func (m *AutomationManager) Init(ctx context.Context) error {
	settings, err := m.Repo.Settings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	active, err := m.Repo.ActiveCampaign(ctx)
	if err != nil {
		return fmt.Errorf("load active campaign: %w", err)
	}

	m.mu.Lock()
	m.settings = settings
	if active != nil {
		m.isRunning = true
		m.currentCampaign = active
	}
	m.mu.Unlock()

	if active != nil {
		m.Logger.Info("restored running campaign", "campaign", active.Name)
	}
	return nil
}

// StartCampaign marks c as running and asks every agent to start it.
// Limits and delays missing from c are taken from the settings.
func (m *AutomationManager) StartCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error) {
	m.mu.Lock()
	if m.isRunning {
		name := ""
		if m.currentCampaign != nil {
			name = m.currentCampaign.Name
		}
		m.mu.Unlock()
		return nil, appErrors.NewAlreadyRunning(name)
	}
	c = repository.WithDefaults(c, m.settings)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt == nil {
		now := m.Clock.Now()
		c.CreatedAt = &now
	}
	c.IsActive = true
	m.isRunning = true
	m.currentCampaign = &c
	m.mu.Unlock()

	if err := m.Repo.SaveCampaign(ctx, c); err != nil {
		m.Logger.Error("failed to save campaign", "campaign", c.ID, "error", err)
	}
	if err := m.Repo.SetActiveCampaign(ctx, &c); err != nil {
		m.Logger.Error("failed to save active campaign", "campaign", c.ID, "error", err)
	}

	campaign := c
	if err := m.Bus.Publish(ctx, queue.TopicAgents, model.Command{Action: model.ActionStartAutomation, Campaign: &campaign}); err != nil {
		m.Logger.Warn("could not notify agents", "action", model.ActionStartAutomation, "error", err)
	}

	m.Logger.Info("campaign started", "campaign", c.Name, "id", c.ID)
	return &c, nil
}

func (m *AutomationManager) StopCampaign(ctx context.Context) error {
	m.mu.Lock()
	current := m.currentCampaign
	m.isRunning = false
	m.currentCampaign = nil
	m.mu.Unlock()

	if err := m.Repo.SetActiveCampaign(ctx, nil); err != nil {
		m.Logger.Error("failed to clear active campaign", "error", err)
	}
	if current != nil {
		current.IsActive = false
		if err := m.Repo.SaveCampaign(ctx, *current); err != nil {
			m.Logger.Error("failed to save campaign", "campaign", current.ID, "error", err)
		}
	}

	if err := m.Bus.Publish(ctx, queue.TopicAgents, model.Command{Action: model.ActionStopAutomation}); err != nil {
		m.Logger.Warn("could not notify agents", "action", model.ActionStopAutomation, "error", err)
	}
	m.Logger.Info("campaign stopped")
	return nil
}

func (m *AutomationManager) Status() model.ControllerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current *model.Campaign
	if m.currentCampaign != nil {
		c := *m.currentCampaign
		current = &c
	}
	return model.ControllerStatus{
		IsRunning:       m.isRunning,
		CurrentCampaign: current,
		Settings:        m.settings,
	}
}

func (m *AutomationManager) Settings() model.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *AutomationManager) UpdateSettings(ctx context.Context, patch model.SettingsPatch) error {
	updated, err := m.Repo.UpdateSettings(ctx, patch)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.settings = updated
	m.mu.Unlock()
	return nil
}

func (m *AutomationManager) SaveTemplate(ctx context.Context, t model.Template) error {
	return m.Repo.SaveTemplate(ctx, t)
}

func (m *AutomationManager) Templates(ctx context.Context) (model.Templates, error) {
	return m.Repo.Templates(ctx)
}

func (m *AutomationManager) ExportLeads(ctx context.Context) (string, error) {
	leads, err := m.Repo.Leads(ctx)
	if err != nil {
		return "", err
	}
	return LeadsToCSV(leads), nil
}

func (m *AutomationManager) IsWorkingHours() bool {
	return schedule.WindowFromSettings(m.Settings()).Contains(m.Clock.Now())
}

func (m *AutomationManager) running() (*model.Campaign, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentCampaign == nil {
		return nil, m.isRunning
	}
	c := *m.currentCampaign
	return &c, m.isRunning
}

// CheckPendingConnections cancels pending requests older than the
// autoCancelAfterDays setting.
func (m *AutomationManager) CheckPendingConnections(ctx context.Context) {
	if _, ok := m.running(); !ok {
		return
	}
	cancelled, err := m.Repo.CancelStaleConnections(ctx, m.Clock.Now(), m.Settings().AutoCancelAfterDays)
	if err != nil {
		m.Logger.Error("failed to check pending connections", "error", err)
		return
	}
	for _, c := range cancelled {
		m.Logger.Info("connection request cancelled", "id", c.ID, "sent", c.Date)
	}
}

// CheckPendingMessages hands follow-ups whose scheduled date has passed to
// the follow-up agent. It only runs inside working hours.
func (m *AutomationManager) CheckPendingMessages(ctx context.Context) {
	campaign, ok := m.running()
	if !ok || !m.IsWorkingHours() {
		return
	}
	if m.FollowUpAgent == "" {
		m.Logger.Debug("no follow-up agent configured")
		return
	}

	msgs, err := m.Repo.Messages(ctx)
	if err != nil {
		m.Logger.Error("failed to load messages", "error", err)
		return
	}
	conns, err := m.Repo.Connections(ctx)
	if err != nil {
		m.Logger.Error("failed to load connections", "error", err)
		return
	}
	byID := make(map[string]model.Connection, len(conns))
	for _, c := range conns {
		byID[c.ID] = c
	}

	now := m.Clock.Now()
	for _, msg := range msgs {
		if msg.Status != model.MessagePending || msg.ScheduledDate == nil || now.Before(*msg.ScheduledDate) {
			continue
		}
		conn, found := byID[msg.ConnectionID]
		if !found {
			m.Logger.Warn("follow-up for unknown connection", "connection", msg.ConnectionID)
			continue
		}
		if err := m.dispatchFollowUp(ctx, conn, campaign); err != nil {
			m.Logger.Warn("follow-up dispatch failed", "connection", conn.ID, "error", err)
		}
	}
}

func (m *AutomationManager) dispatchFollowUp(ctx context.Context, conn model.Connection, campaign *model.Campaign) error {
	reply, err := m.Bus.Request(ctx, queue.AgentTopic(m.FollowUpAgent), model.Command{
		Action:     model.ActionSendFollowUp,
		Connection: &conn,
		Campaign:   campaign,
	})
	if err != nil {
		return err
	}
	return queue.ReplyError(reply)
}

// SetConnectionStatus records a status observed outside the automation.
// Accepting a connection while a campaign with a follow-up template runs
// schedules a pending follow-up after the campaign's followUpDelay.
func (m *AutomationManager) SetConnectionStatus(ctx context.Context, id, status string) error {
	if !model.IsValidConnectionStatus(status) {
		return fmt.Errorf("invalid connection status %q", status)
	}
	now := m.Clock.Now()
	found, err := m.Repo.SetConnectionStatus(ctx, id, status, now)
	if err != nil {
		return err
	}
	if !found {
		return appErrors.NewConnectionNotFound(id)
	}

	campaign, ok := m.running()
	if status != model.ConnectionAccepted || !ok || campaign == nil || campaign.FollowUpTemplate == "" {
		return nil
	}
	conn, err := m.findConnection(ctx, id)
	if err != nil {
		return err
	}
	scheduled := now.AddDate(0, 0, campaign.FollowUpDelay)
	return m.Repo.SaveMessage(ctx, model.Message{
		ConnectionID:  id,
		Message:       PersonalizeMessage(campaign.FollowUpTemplate, conn.ProfileInfo),
		Date:          now,
		Status:        model.MessagePending,
		ScheduledDate: &scheduled,
	})
}

func (m *AutomationManager) findConnection(ctx context.Context, id string) (*model.Connection, error) {
	conns, err := m.Repo.Connections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range conns {
		if conns[i].ID == id {
			return &conns[i], nil
		}
	}
	return nil, appErrors.NewConnectionNotFound(id)
}

var ErrEmptyTemplate = errors.New("template cannot be empty")

// Preview renders a campaign's connection template, or override when given,
// for one stored lead.
func (m *AutomationManager) Preview(ctx context.Context, campaignID, leadID string, override *string) (string, error) {
	campaign, err := m.Repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return "", err
	}

	leads, err := m.Repo.Leads(ctx)
	if err != nil {
		return "", err
	}
	var lead *model.ProfileInfo
	for i := range leads {
		if leads[i].ID == leadID {
			lead = &leads[i]
			break
		}
	}
	if lead == nil {
		return "", appErrors.NewLeadNotFound(leadID)
	}

	template := campaign.ConnectionTemplate
	if override != nil && strings.TrimSpace(*override) != "" {
		template = *override
	}
	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}

	return PersonalizeMessage(template, *lead), nil
}

// ListCampaigns pages through the stored campaigns.
func (m *AutomationManager) ListCampaigns(ctx context.Context, page, pageSize int) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	all, err := m.Repo.Campaigns(ctx)
	if err != nil {
		return nil, nil, err
	}
	total := len(all)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
	return append([]model.Campaign{}, all[start:end]...), pagination, nil
}

// Stats counts connections and messages by status.
type Stats struct {
	Leads       int            `json:"leads"`
	Connections map[string]int `json:"connections"`
	Messages    map[string]int `json:"messages"`
	Sessions    int            `json:"sessions"`
}

func (m *AutomationManager) Stats(ctx context.Context) (*Stats, error) {
	leads, err := m.Repo.Leads(ctx)
	if err != nil {
		return nil, err
	}
	conns, err := m.Repo.Connections(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := m.Repo.Messages(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := m.Repo.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Leads: len(leads),
		Connections: map[string]int{
			"total":                   0,
			model.ConnectionPending:   0,
			model.ConnectionAccepted:  0,
			model.ConnectionRejected:  0,
			model.ConnectionCancelled: 0,
		},
		Messages: map[string]int{
			"total":              0,
			model.MessagePending: 0,
			model.MessageSent:    0,
		},
		Sessions: len(sessions),
	}
	for _, c := range conns {
		stats.Connections[c.Status]++
		stats.Connections["total"]++
	}
	for _, msg := range msgs {
		stats.Messages[msg.Status]++
		stats.Messages["total"]++
	}
	return stats, nil
}

// ====================== Agent proxies ======================

func (m *AutomationManager) request(ctx context.Context, agentID string, cmd model.Command, dest any) error {
	reply, err := m.Bus.Request(ctx, queue.AgentTopic(agentID), cmd)
	if err != nil {
		return err
	}
	if err := queue.ReplyError(reply); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return reply.Decode(dest)
}

func (m *AutomationManager) PingAgent(ctx context.Context, agentID string) error {
	return m.request(ctx, agentID, model.Command{Action: model.ActionPing}, nil)
}

func (m *AutomationManager) AgentStatus(ctx context.Context, agentID string) (*model.AgentStatus, error) {
	var st model.AgentStatus
	if err := m.request(ctx, agentID, model.Command{Action: model.ActionGetStatus}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ScrapeAgent pings the agent before asking it to scrape its page, so an
// unreachable agent fails fast with a CommunicationError.
func (m *AutomationManager) ScrapeAgent(ctx context.Context, agentID string) ([]model.ProfileInfo, error) {
	if err := m.PingAgent(ctx, agentID); err != nil {
		return nil, err
	}
	profiles := []model.ProfileInfo{}
	if err := m.request(ctx, agentID, model.Command{Action: model.ActionScrapeProfiles}, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ====================== Reconciliation ticks ======================

// CronScheduler arms jobs from cron specs.
type CronScheduler interface {
	Cron(spec string, fn func()) (schedule.Task, error)
}

const tickTimeout = 5 * time.Minute

// ScheduleChecks arms the connection and message reconciliation ticks.
func (m *AutomationManager) ScheduleChecks(s CronScheduler, connectionsSpec, messagesSpec string) ([]schedule.Task, error) {
	checks := []struct {
		spec string
		run  func(context.Context)
	}{
		{connectionsSpec, m.CheckPendingConnections},
		{messagesSpec, m.CheckPendingMessages},
	}

	var tasks []schedule.Task
	for _, c := range checks {
		run := c.run
		task, err := s.Cron(c.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
			defer cancel()
			run(ctx)
		})
		if err != nil {
			for _, t := range tasks {
				t.Cancel()
			}
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
