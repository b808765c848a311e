package repository

import "context"

// Collection keys shared by the controller and the page agents.
const (
	KeySettings       = "settings"
	KeyCampaigns      = "campaigns"
	KeyTemplates      = "templates"
	KeyLeads          = "leads"
	KeyConnections    = "connections"
	KeyMessages       = "messages"
	KeyStatistics     = "statistics"
	KeyActiveCampaign = "activeCampaign"
)

// Store is a durable key-value store holding whole JSON collections.
// Writes replace the full value: concurrent read-modify-write cycles from
// different processes are last-writer-wins.
type Store interface {
	// Get decodes the value for key into dest. found is false when the key is absent.
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, keys ...string) error
}
