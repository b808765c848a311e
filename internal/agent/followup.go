package agent

import (
	"context"
	"errors"
	"time"

	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
)

// AcceptanceSource reports connections whose request was accepted.
type AcceptanceSource interface {
	AcceptedConnections(ctx context.Context) ([]model.Connection, error)
}

// StoredAcceptances reads acceptances recorded in the store, e.g. through
// the controller's connection status endpoint. It does not inspect the site.
type StoredAcceptances struct {
	Repo interface {
		Connections(ctx context.Context) ([]model.Connection, error)
	}
}

func (s *StoredAcceptances) AcceptedConnections(ctx context.Context) ([]model.Connection, error) {
	conns, err := s.Repo.Connections(ctx)
	if err != nil {
		return nil, err
	}
	var accepted []model.Connection
	for _, c := range conns {
		if c.Status == model.ConnectionAccepted {
			accepted = append(accepted, c)
		}
	}
	return accepted, nil
}

var (
	ErrNotRunning   = errors.New("no campaign is running")
	ErrMessageLimit = errors.New("daily message limit reached")
)

// ShouldSendFollowUp reports whether followUpDays have passed since the
// connection was accepted.
func ShouldSendFollowUp(conn model.Connection, followUpDays int, now time.Time) bool {
	if conn.AcceptedDate == nil {
		return false
	}
	return now.Sub(*conn.AcceptedDate) >= time.Duration(followUpDays)*24*time.Hour
}

// ProcessPendingConnections sends follow-ups to accepted connections that are
// due and have not been messaged yet, within the message limit. Failures are
// logged per connection.
func (a *Automation) ProcessPendingConnections(ctx context.Context) {
	a.page.Lock()
	defer a.page.Unlock()
	a.processPendingConnections(ctx)
}

func (a *Automation) processPendingConnections(ctx context.Context) {
	campaign, _ := a.snapshot()
	if campaign == nil {
		return
	}

	accepted, err := a.Acceptances.AcceptedConnections(ctx)
	if err != nil {
		a.Logger.Error("failed to load accepted connections", "error", err)
		return
	}
	if len(accepted) == 0 {
		return
	}
	msgs, err := a.Repo.Messages(ctx)
	if err != nil {
		a.Logger.Error("failed to load messages", "error", err)
		return
	}

	now := a.Clock.Now()
	for _, conn := range accepted {
		if ctx.Err() != nil || !a.IsRunning() {
			return
		}
		if a.messagesLeft(campaign) <= 0 {
			a.Logger.Info("daily message limit reached", "limit", campaign.MaxMessagesPerDay)
			return
		}
		if !ShouldSendFollowUp(conn, campaign.FollowUpDelay, now) || repository.HasSentMessage(msgs, conn.ID) {
			continue
		}
		_, err := a.sendFollowUp(ctx, conn, *campaign)
		if errors.Is(err, ErrMessageLimit) {
			a.Logger.Info("daily message limit reached", "limit", campaign.MaxMessagesPerDay)
			return
		}
		if err != nil {
			a.Logger.Warn("follow-up failed", "connection", conn.ID, "error", err)
		}
	}
}

// SendFollowUp messages one connection with the running campaign's follow-up
// template, or with campaign when one is given.
func (a *Automation) SendFollowUp(ctx context.Context, conn model.Connection, campaign *model.Campaign) (string, error) {
	if campaign == nil {
		campaign, _ = a.snapshot()
	}
	if campaign == nil {
		return "", ErrNotRunning
	}

	a.page.Lock()
	defer a.page.Unlock()
	return a.sendFollowUp(ctx, conn, *campaign)
}

// reserveMessage takes one slot of the message limit.
func (a *Automation) reserveMessage(c model.Campaign) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.messageCount >= c.MaxMessagesPerDay {
		return false
	}
	a.messageCount++
	return true
}

func (a *Automation) releaseMessage() {
	a.mu.Lock()
	a.messageCount--
	a.mu.Unlock()
}

// sendFollowUp must be called with the page held.
func (a *Automation) sendFollowUp(ctx context.Context, conn model.Connection, campaign model.Campaign) (string, error) {
	if !a.reserveMessage(campaign) {
		return "", ErrMessageLimit
	}

	back := a.Page.URL()
	defer func() {
		if a.Page.URL() == back {
			return
		}
		if err := a.Page.Navigate(context.WithoutCancel(ctx), back); err != nil {
			a.Logger.Warn("failed to return to page", "url", back, "error", err)
		}
	}()

	text, err := a.Outreach.SendFollowUp(ctx, a.Page, conn, campaign)
	if err != nil {
		a.releaseMessage()
		return "", err
	}

	if err := a.Repo.MarkMessageSent(ctx, conn.ID, text, a.Clock.Now()); err != nil {
		a.Logger.Error("failed to save message", "connection", conn.ID, "error", err)
	}
	return text, nil
}
