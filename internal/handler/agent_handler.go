package handler

import (
	"context"
	"log/slog"

	"github.com/unclebandit/linkedin-outreach/internal/agent"
	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
)

// AgentHandler answers the commands addressed to a page agent.
type AgentHandler struct {
	Automation *agent.Automation
	Logger     *slog.Logger
}

func NewAgentHandler(a *agent.Automation) *AgentHandler {
	return &AgentHandler{Automation: a, Logger: logging.WithModule("agent-handler")}
}

func (h *AgentHandler) Handle(ctx context.Context, cmd model.Command) model.Reply {
	h.Logger.Debug("command received", "action", cmd.Action)

	switch cmd.Action {
	case model.ActionStartAutomation:
		if cmd.Campaign == nil {
			return invalid("campaign is required")
		}
		if err := h.Automation.Start(ctx, *cmd.Campaign); err != nil {
			return queue.Fail(err)
		}
		return model.Reply{Success: true, Message: "Automation started"}

	case model.ActionStopAutomation:
		h.Automation.Stop(ctx)
		return model.Reply{Success: true, Message: "Automation stopped"}

	case model.ActionGetStatus:
		return model.OK(h.Automation.Status())

	case model.ActionScrapeProfiles:
		profiles, err := h.Automation.Scrape(ctx)
		if err != nil {
			return queue.Fail(err)
		}
		return model.OK(profiles)

	case model.ActionPing:
		return model.Reply{Success: true, Message: "pong"}

	case model.ActionSendFollowUp:
		if cmd.Connection == nil {
			return invalid("connection is required")
		}
		text, err := h.Automation.SendFollowUp(ctx, *cmd.Connection, cmd.Campaign)
		if err != nil {
			return queue.Fail(err)
		}
		return model.OK(map[string]string{"message": text})
	}

	return unknown(cmd.Action)
}

func invalid(msg string) model.Reply {
	return model.Reply{Error: msg, Code: appErrors.CodeInvalid}
}

func unknown(action string) model.Reply {
	return invalid("unknown action: " + action)
}
