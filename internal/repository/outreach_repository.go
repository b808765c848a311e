package repository

import (
	"context"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/model"
)

type OutreachRepositoryInterface interface {
	// Settings and templates
	Settings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error)
	Templates(ctx context.Context) (model.Templates, error)
	SaveTemplate(ctx context.Context, t model.Template) error

	// Campaigns
	Campaigns(ctx context.Context) ([]model.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	SaveCampaign(ctx context.Context, c model.Campaign) error
	ActiveCampaign(ctx context.Context) (*model.Campaign, error)
	SetActiveCampaign(ctx context.Context, c *model.Campaign) error

	// Outreach records
	Leads(ctx context.Context) ([]model.ProfileInfo, error)
	SaveLead(ctx context.Context, p model.ProfileInfo) error
	Connections(ctx context.Context) ([]model.Connection, error)
	SaveConnection(ctx context.Context, c model.Connection) error
	SetConnectionStatus(ctx context.Context, id, status string, at time.Time) (bool, error)
	CancelStaleConnections(ctx context.Context, now time.Time, days int) ([]model.Connection, error)
	Messages(ctx context.Context) ([]model.Message, error)
	SaveMessage(ctx context.Context, m model.Message) error
	MarkMessageSent(ctx context.Context, connectionID, text string, at time.Time) error
	Statistics(ctx context.Context) ([]model.Statistics, error)
	SaveStatistics(ctx context.Context, s model.Statistics) error
}

// OutreachRepository reads a whole collection, merges the change and writes
// it back. Nothing here is atomic across processes.
type OutreachRepository struct {
	Store Store
}

func (r *OutreachRepository) load(ctx context.Context, key string, dest any) error {
	if _, err := r.Store.Get(ctx, key, dest); err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}

func (r *OutreachRepository) save(ctx context.Context, key string, value any) error {
	if err := r.Store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// ====================== Settings & templates ======================

// Settings returns the stored settings decoded over the defaults, so fields
// missing from the stored record keep their default value.
func (r *OutreachRepository) Settings(ctx context.Context) (model.Settings, error) {
	s := model.DefaultSettings()
	if err := r.load(ctx, KeySettings, &s); err != nil {
		return model.DefaultSettings(), err
	}
	return s, nil
}

func (r *OutreachRepository) SaveSettings(ctx context.Context, s model.Settings) error {
	return r.save(ctx, KeySettings, s)
}

func (r *OutreachRepository) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	current, err := r.Settings(ctx)
	if err != nil {
		return current, err
	}
	updated := ApplySettingsPatch(current, patch)
	return updated, r.save(ctx, KeySettings, updated)
}

func (r *OutreachRepository) Templates(ctx context.Context) (model.Templates, error) {
	templates := model.Templates{}
	found, err := r.Store.Get(ctx, KeyTemplates, &templates)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyTemplates, err)
	}
	if !found {
		return model.DefaultTemplates(), nil
	}
	return templates, nil
}

func (r *OutreachRepository) SaveTemplates(ctx context.Context, t model.Templates) error {
	return r.save(ctx, KeyTemplates, t)
}

func (r *OutreachRepository) SaveTemplate(ctx context.Context, t model.Template) error {
	templates, err := r.Templates(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, KeyTemplates, AddTemplate(templates, t))
}

// ====================== Campaigns ======================

func (r *OutreachRepository) Campaigns(ctx context.Context) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	if err := r.load(ctx, KeyCampaigns, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *OutreachRepository) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	campaigns, err := r.Campaigns(ctx)
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].ID == id {
			return &campaigns[i], nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

// SaveCampaign replaces the campaign with the same id or appends it.
func (r *OutreachRepository) SaveCampaign(ctx context.Context, c model.Campaign) error {
	campaigns, err := r.Campaigns(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range campaigns {
		if campaigns[i].ID == c.ID {
			campaigns[i] = c
			replaced = true
		}
	}
	if !replaced {
		campaigns = append(campaigns, c)
	}
	return r.save(ctx, KeyCampaigns, campaigns)
}

func (r *OutreachRepository) ActiveCampaign(ctx context.Context) (*model.Campaign, error) {
	var c model.Campaign
	found, err := r.Store.Get(ctx, KeyActiveCampaign, &c)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", KeyActiveCampaign, err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

// SetActiveCampaign stores c as the running campaign; nil clears it.
func (r *OutreachRepository) SetActiveCampaign(ctx context.Context, c *model.Campaign) error {
	if c == nil {
		if err := r.Store.Remove(ctx, KeyActiveCampaign); err != nil {
			return fmt.Errorf("clear %s: %w", KeyActiveCampaign, err)
		}
		return nil
	}
	return r.save(ctx, KeyActiveCampaign, c)
}

// ====================== Leads, connections, messages ======================

func (r *OutreachRepository) Leads(ctx context.Context) ([]model.ProfileInfo, error) {
	var leads []model.ProfileInfo
	if err := r.load(ctx, KeyLeads, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *OutreachRepository) SaveLead(ctx context.Context, p model.ProfileInfo) error {
	leads, err := r.Leads(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, KeyLeads, MergeLead(leads, p))
}

func (r *OutreachRepository) Connections(ctx context.Context) ([]model.Connection, error) {
	var conns []model.Connection
	if err := r.load(ctx, KeyConnections, &conns); err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *OutreachRepository) SaveConnection(ctx context.Context, c model.Connection) error {
	conns, err := r.Connections(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, KeyConnections, AppendConnection(conns, c))
}

func (r *OutreachRepository) SetConnectionStatus(ctx context.Context, id, status string, at time.Time) (bool, error) {
	conns, err := r.Connections(ctx)
	if err != nil {
		return false, err
	}
	updated, ok := SetConnectionStatus(conns, id, status, at)
	if !ok {
		return false, nil
	}
	return true, r.save(ctx, KeyConnections, updated)
}

func (r *OutreachRepository) CancelStaleConnections(ctx context.Context, now time.Time, days int) ([]model.Connection, error) {
	conns, err := r.Connections(ctx)
	if err != nil {
		return nil, err
	}
	updated, cancelled := CancelStaleConnections(conns, now, days)
	if len(cancelled) == 0 {
		return nil, nil
	}
	return cancelled, r.save(ctx, KeyConnections, updated)
}

func (r *OutreachRepository) Messages(ctx context.Context) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.load(ctx, KeyMessages, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *OutreachRepository) SaveMessage(ctx context.Context, m model.Message) error {
	msgs, err := r.Messages(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, KeyMessages, AppendMessage(msgs, m))
}

// MarkMessageSent marks the pending follow-up of a connection as sent, or
// appends a sent message when nothing was pending.
func (r *OutreachRepository) MarkMessageSent(ctx context.Context, connectionID, text string, at time.Time) error {
	msgs, err := r.Messages(ctx)
	if err != nil {
		return err
	}
	updated, ok := MarkMessageSent(msgs, connectionID, text, at)
	if !ok {
		updated = AppendMessage(msgs, model.Message{
			ConnectionID: connectionID,
			Message:      text,
			Date:         at,
			Status:       model.MessageSent,
		})
	}
	return r.save(ctx, KeyMessages, updated)
}

func (r *OutreachRepository) Statistics(ctx context.Context) ([]model.Statistics, error) {
	var stats []model.Statistics
	if err := r.load(ctx, KeyStatistics, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *OutreachRepository) SaveStatistics(ctx context.Context, s model.Statistics) error {
	stats, err := r.Statistics(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, KeyStatistics, AppendStatistics(stats, s))
}
