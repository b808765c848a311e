// Package queue carries commands between the controller and the page agents.
package queue

import (
	"context"

	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/model"
)

// Well-known topics.
const (
	TopicController = "controller"
	TopicAgents     = "agents"
)

// AgentTopic is the request topic of a single page agent.
func AgentTopic(agentID string) string {
	return "agent." + agentID
}

// Handler answers one command.
type Handler func(ctx context.Context, cmd model.Command) model.Reply

// Bus is the message channel between processes.
type Bus interface {
	// Publish delivers cmd to every subscriber of topic without waiting for replies.
	Publish(ctx context.Context, topic string, cmd model.Command) error
	// Request delivers cmd to one subscriber of topic and waits for its reply.
	Request(ctx context.Context, topic string, cmd model.Command) (model.Reply, error)
	// Subscribe registers h for topic. The returned func removes it.
	Subscribe(topic string, h Handler) (func(), error)
	Close() error
}

// Fail turns err into a failed reply.
func Fail(err error) model.Reply {
	return model.Reply{Error: err.Error(), Code: appErrors.Code(err)}
}

// ReplyError returns nil for a successful reply and the remote error otherwise.
func ReplyError(r model.Reply) error {
	if r.Success {
		return nil
	}
	return &appErrors.RemoteError{Code: r.Code, Message: r.Error}
}
