// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
	"github.com/unclebandit/linkedin-outreach/internal/service"
)

// CampaignHandler answers controller commands arriving on the bus.
type CampaignHandler struct {
	Manager  *service.AutomationManager
	Validate *validator.Validate
	Logger   *slog.Logger
}

// NewCampaignHandler creates a new CampaignHandler for the given manager
func NewCampaignHandler(m *service.AutomationManager) *CampaignHandler {
	return &CampaignHandler{
		Manager:  m,
		Validate: validator.New(),
		Logger:   logging.WithModule("campaign-handler"),
	}
}

// Handle dispatches one controller command. It has the queue.Handler signature.
func (h *CampaignHandler) Handle(ctx context.Context, cmd model.Command) model.Reply {
	h.Logger.Debug("command received", "action", cmd.Action)

	switch cmd.Action {
	case model.ActionStartCampaign:
		if cmd.Campaign == nil {
			return invalid("campaign is required")
		}
		if err := h.Validate.Struct(cmd.Campaign); err != nil {
			return invalid(err.Error())
		}
		started, err := h.Manager.StartCampaign(ctx, *cmd.Campaign)
		if err != nil {
			return queue.Fail(err)
		}
		return model.OK(started)

	case model.ActionStopCampaign:
		if err := h.Manager.StopCampaign(ctx); err != nil {
			return queue.Fail(err)
		}
		return model.OK(nil)

	case model.ActionGetStatus:
		return model.OK(h.Manager.Status())

	case model.ActionUpdateSettings:
		if cmd.Settings == nil {
			return invalid("settings are required")
		}
		if err := h.Validate.Struct(cmd.Settings); err != nil {
			return invalid(err.Error())
		}
		if err := h.Manager.UpdateSettings(ctx, *cmd.Settings); err != nil {
			return queue.Fail(err)
		}
		return model.OK(h.Manager.Settings())

	case model.ActionSaveTemplate:
		if cmd.Template == nil {
			return invalid("template is required")
		}
		if err := h.Validate.Struct(cmd.Template); err != nil {
			return invalid(err.Error())
		}
		if err := h.Manager.SaveTemplate(ctx, *cmd.Template); err != nil {
			return queue.Fail(err)
		}
		return model.OK(nil)

	case model.ActionExportLeads:
		csv, err := h.Manager.ExportLeads(ctx)
		if err != nil {
			return queue.Fail(err)
		}
		return model.OK(csv)
	}

	return unknown(cmd.Action)
}
