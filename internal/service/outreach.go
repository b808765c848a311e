package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/unclebandit/linkedin-outreach/internal/dom"
	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/schedule"
)

var (
	ConnectButtonSelectors = []string{
		`[aria-label*="Conectar"]`,
		`[aria-label*="Connect"]`,
		`button[aria-label*="Invite"]`,
	}
	InviteSendSelectors = []string{
		`[aria-label*="Enviar"]`,
		`[aria-label*="Send"]`,
		`button[type="submit"]`,
	}
	MessageButtonSelectors = []string{
		`[aria-label*="Mensagem"]`,
		`[aria-label*="Message"]`,
	}
	MessageSendSelectors = []string{
		`[aria-label*="Enviar"]`,
		`[aria-label*="Send"]`,
	}
	MessageFieldSelectors = []string{
		"textarea",
		`[contenteditable="true"]`,
	}
)

const (
	DialogSelector   = `[role="dialog"]`
	EditableSelector = `[contenteditable="true"]`
)

var ErrNoFollowUpTemplate = errors.New("campaign has no follow-up template")

// Outreach drives the connect and message flows on a page.
type Outreach struct {
	Delayer schedule.Delayer
	Logger  *slog.Logger
}

func NewOutreach(d schedule.Delayer) *Outreach {
	return &Outreach{Delayer: d, Logger: logging.WithModule("outreach")}
}

// SendConnectionRequest clicks the card's connect control and, if an invite
// dialog opens, personalizes and sends it. sent is true once the connect
// control was clicked; problems inside the dialog are logged and ignored.
func (o *Outreach) SendConnectionRequest(ctx context.Context, page dom.Page, card dom.Node, p model.ProfileInfo, c model.Campaign) (bool, error) {
	button := dom.FirstOf(card.Find, ConnectButtonSelectors...)
	if button == nil {
		o.Logger.Debug("skipping profile", "id", p.ID, "error", appErrors.NewElementNotFound("connect button"))
		return false, nil
	}
	text := button.Text()
	if strings.Contains(text, "Connected") || strings.Contains(text, "Conectado") {
		return false, nil
	}

	if err := button.Click(ctx); err != nil {
		return false, fmt.Errorf("click connect for %s: %w", p.ID, err)
	}
	if o.Delayer.Wait(ctx, schedule.Seconds(1, 2)) != nil {
		return true, nil
	}

	if modal := page.Find(DialogSelector); modal != nil {
		if err := o.completeInvite(ctx, modal, p, c); err != nil {
			o.Logger.Warn("invite dialog failed", "id", p.ID, "error", err)
		}
	}

	o.Logger.Info("connection request sent", "id", p.ID, "name", p.Name)
	return true, nil
}

func (o *Outreach) completeInvite(ctx context.Context, modal dom.Node, p model.ProfileInfo, c model.Campaign) error {
	field := dom.FirstOf(modal.Find, MessageFieldSelectors...)
	if field != nil && c.ConnectionTemplate != "" {
		if err := field.Fill(ctx, PersonalizeMessage(c.ConnectionTemplate, p)); err != nil {
			return fmt.Errorf("fill invite note: %w", err)
		}
		if err := o.Delayer.Wait(ctx, model.DelayRange{Min: 500, Max: 1000}); err != nil {
			return err
		}
	}

	send := dom.FirstOf(modal.Find, InviteSendSelectors...)
	if send == nil {
		return appErrors.NewElementNotFound("invite send button")
	}
	if err := send.Click(ctx); err != nil {
		return fmt.Errorf("click send: %w", err)
	}
	return o.Delayer.Wait(ctx, schedule.Seconds(2, 4))
}

// SendFollowUp opens the connection's profile and sends the personalized
// follow-up. It returns the text that was sent.
func (o *Outreach) SendFollowUp(ctx context.Context, page dom.Page, conn model.Connection, c model.Campaign) (string, error) {
	if c.FollowUpTemplate == "" {
		return "", ErrNoFollowUpTemplate
	}
	if err := page.Navigate(ctx, conn.ProfileURL); err != nil {
		return "", fmt.Errorf("open profile %s: %w", conn.ProfileURL, err)
	}
	if err := o.Delayer.Wait(ctx, schedule.Seconds(3, 5)); err != nil {
		return "", err
	}

	button := dom.FirstOf(page.Find, MessageButtonSelectors...)
	if button == nil {
		return "", appErrors.NewElementNotFound("message button")
	}
	if err := button.Click(ctx); err != nil {
		return "", fmt.Errorf("click message: %w", err)
	}
	if err := o.Delayer.Wait(ctx, schedule.Seconds(1, 2)); err != nil {
		return "", err
	}

	field := page.Find(EditableSelector)
	if field == nil {
		return "", appErrors.NewElementNotFound("message field")
	}
	text := PersonalizeMessage(c.FollowUpTemplate, conn.ProfileInfo)
	if err := field.Fill(ctx, text); err != nil {
		return "", fmt.Errorf("fill message: %w", err)
	}

	send := dom.FirstOf(page.Find, MessageSendSelectors...)
	if send == nil {
		return "", appErrors.NewElementNotFound("message send button")
	}
	if err := send.Click(ctx); err != nil {
		return "", fmt.Errorf("click send: %w", err)
	}

	o.Logger.Info("follow-up sent", "connection", conn.ID)
	return text, nil
}
