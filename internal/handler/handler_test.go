package handler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/linkedin-outreach/internal/agent"
	"github.com/unclebandit/linkedin-outreach/internal/dom"
	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/handler"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
	"github.com/unclebandit/linkedin-outreach/internal/schedule"
	"github.com/unclebandit/linkedin-outreach/internal/service"
)

const searchURL = "https://www.linkedin.com/search/results/people/?keywords=go"

const searchHTML = `
<div class="entity-result">
  <a href="/in/jane-doe/"><span class="entity-result__title-text">Jane Doe</span></a>
  <div class="entity-result__primary-subtitle">Engineer</div>
  <div class="entity-result__secondary-subtitle">Acme</div>
  <button aria-label="Connect with Jane Doe">Connect</button>
</div>
<div class="entity-result">
  <a href="/in/john-roe/"><span class="entity-result__title-text">John Roe</span></a>
  <div class="entity-result__primary-subtitle">CTO</div>
  <div class="entity-result__secondary-subtitle">Globex</div>
  <button aria-label="Connect with John Roe">Connect</button>
</div>`

var monday10 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func newAgentHandler(t *testing.T, url string) (*handler.AgentHandler, *repository.OutreachRepository) {
	t.Helper()
	page, err := dom.NewStaticPage(url, searchHTML)
	require.NoError(t, err)
	repo := &repository.OutreachRepository{Store: repository.NewMemoryStore()}

	a := agent.New(page, repo, schedule.NewScheduler())
	a.Delayer = schedule.Immediate{}
	a.Outreach = service.NewOutreach(schedule.Immediate{})
	a.Clock = schedule.FixedClock{T: monday10}
	a.Extractor.Now = a.Clock.Now
	return handler.NewAgentHandler(a), repo
}

// ====================== Agent commands ======================

func TestAgentHandler_Ping(t *testing.T) {
	h, _ := newAgentHandler(t, searchURL)

	reply := h.Handle(context.Background(), model.Command{Action: model.ActionPing})

	assert.True(t, reply.Success)
	assert.Equal(t, "pong", reply.Message)
}

func TestAgentHandler_UnknownAction(t *testing.T) {
	h, _ := newAgentHandler(t, searchURL)

	reply := h.Handle(context.Background(), model.Command{Action: "DANCE"})

	assert.False(t, reply.Success)
	assert.Equal(t, "unknown action: DANCE", reply.Error)
	assert.Equal(t, appErrors.CodeInvalid, reply.Code)
}

func TestAgentHandler_StartStatusStop(t *testing.T) {
	h, repo := newAgentHandler(t, searchURL)
	ctx := context.Background()

	reply := h.Handle(ctx, model.Command{Action: model.ActionStartAutomation})
	assert.Equal(t, appErrors.CodeInvalid, reply.Code)

	campaign := model.Campaign{ID: "c1", Name: "Q1", MaxConnectionsPerDay: 10, MaxMessagesPerDay: 10}
	reply = h.Handle(ctx, model.Command{Action: model.ActionStartAutomation, Campaign: &campaign})
	require.True(t, reply.Success, reply.Error)
	h.Automation.Wait()

	reply = h.Handle(ctx, model.Command{Action: model.ActionGetStatus})
	require.True(t, reply.Success)
	var st model.AgentStatus
	require.NoError(t, reply.Decode(&st))
	assert.True(t, st.IsRunning)
	assert.Equal(t, 2, st.ConnectionCount)
	assert.Equal(t, searchURL, st.CurrentPage)

	reply = h.Handle(ctx, model.Command{Action: model.ActionStopAutomation})
	assert.True(t, reply.Success)
	assert.False(t, h.Automation.IsRunning())

	stats, err := repo.Statistics(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].ConnectionCount)
}

func TestAgentHandler_StartOnUnsupportedPage(t *testing.T) {
	h, _ := newAgentHandler(t, "https://www.linkedin.com/jobs/")

	reply := h.Handle(context.Background(), model.Command{Action: model.ActionStartAutomation, Campaign: &model.Campaign{Name: "Q1"}})

	assert.False(t, reply.Success)
	assert.Equal(t, appErrors.CodeUnsupportedPage, reply.Code)
	assert.True(t, appErrors.IsPermanent(queue.ReplyError(reply)))
	assert.False(t, h.Automation.IsRunning())
}

func TestAgentHandler_Scrape(t *testing.T) {
	h, _ := newAgentHandler(t, searchURL)

	reply := h.Handle(context.Background(), model.Command{Action: model.ActionScrapeProfiles})

	require.True(t, reply.Success, reply.Error)
	var profiles []model.ProfileInfo
	require.NoError(t, reply.Decode(&profiles))
	require.Len(t, profiles, 2)
	assert.Equal(t, "jane-doe", profiles[0].ID)
	assert.Equal(t, "Globex", profiles[1].Company)
}

func TestAgentHandler_SendFollowUp(t *testing.T) {
	h, _ := newAgentHandler(t, searchURL)
	ctx := context.Background()

	reply := h.Handle(ctx, model.Command{Action: model.ActionSendFollowUp})
	assert.Equal(t, appErrors.CodeInvalid, reply.Code)

	conn := model.Connection{ProfileInfo: model.ProfileInfo{ID: "jane-doe"}, Status: model.ConnectionAccepted}
	reply = h.Handle(ctx, model.Command{Action: model.ActionSendFollowUp, Connection: &conn})
	assert.False(t, reply.Success)
	assert.Equal(t, agent.ErrNotRunning.Error(), reply.Error)
}

// ====================== Controller commands ======================

func newCampaignHandler(t *testing.T) *handler.CampaignHandler {
	t.Helper()
	repo := &repository.OutreachRepository{Store: repository.NewMemoryStore()}
	bus := queue.NewInMemoryBus()
	t.Cleanup(func() { bus.Close() })
	m := service.NewAutomationManager(repo, bus)
	m.Clock = schedule.FixedClock{T: monday10}
	require.NoError(t, m.Init(context.Background()))
	return handler.NewCampaignHandler(m)
}

func TestCampaignHandler_StartCampaign(t *testing.T) {
	h := newCampaignHandler(t)
	ctx := context.Background()

	reply := h.Handle(ctx, model.Command{Action: model.ActionStartCampaign, Campaign: &model.Campaign{}})
	assert.Equal(t, appErrors.CodeInvalid, reply.Code, "name is required")

	reply = h.Handle(ctx, model.Command{Action: model.ActionStartCampaign, Campaign: &model.Campaign{Name: "Q1"}})
	require.True(t, reply.Success, reply.Error)
	var started model.Campaign
	require.NoError(t, reply.Decode(&started))
	assert.NotEmpty(t, started.ID)
	assert.True(t, started.IsActive)

	reply = h.Handle(ctx, model.Command{Action: model.ActionStartCampaign, Campaign: &model.Campaign{Name: "Q2"}})
	assert.False(t, reply.Success)
	assert.Equal(t, appErrors.CodeAlreadyRunning, reply.Code)

	reply = h.Handle(ctx, model.Command{Action: model.ActionGetStatus})
	var st model.ControllerStatus
	require.NoError(t, reply.Decode(&st))
	assert.True(t, st.IsRunning)
	assert.Equal(t, "Q1", st.CurrentCampaign.Name)

	reply = h.Handle(ctx, model.Command{Action: model.ActionStopCampaign})
	assert.True(t, reply.Success)
	assert.False(t, h.Manager.Status().IsRunning)
}

func TestCampaignHandler_UpdateSettings(t *testing.T) {
	h := newCampaignHandler(t)
	ctx := context.Background()

	reply := h.Handle(ctx, model.Command{Action: model.ActionUpdateSettings})
	assert.Equal(t, appErrors.CodeInvalid, reply.Code)

	reply = h.Handle(ctx, model.Command{Action: model.ActionUpdateSettings, Settings: &model.SettingsPatch{WorkingDays: []int{1, 9}}})
	assert.Equal(t, appErrors.CodeInvalid, reply.Code)

	limit := 20
	reply = h.Handle(ctx, model.Command{Action: model.ActionUpdateSettings, Settings: &model.SettingsPatch{MaxConnectionsPerDay: &limit}})
	require.True(t, reply.Success, reply.Error)
	var settings model.Settings
	require.NoError(t, reply.Decode(&settings))
	assert.Equal(t, 20, settings.MaxConnectionsPerDay)
	assert.Equal(t, 7, settings.AutoCancelAfterDays)
}

func TestCampaignHandler_TemplatesAndExport(t *testing.T) {
	h := newCampaignHandler(t)
	ctx := context.Background()

	reply := h.Handle(ctx, model.Command{Action: model.ActionSaveTemplate, Template: &model.Template{Name: "no type"}})
	assert.Equal(t, appErrors.CodeInvalid, reply.Code)

	reply = h.Handle(ctx, model.Command{Action: model.ActionSaveTemplate, Template: &model.Template{Type: model.TemplateConnection, Name: "Short", Message: "Hi {{first_name}}"}})
	require.True(t, reply.Success, reply.Error)

	reply = h.Handle(ctx, model.Command{Action: model.ActionExportLeads})
	require.True(t, reply.Success)
	var csv string
	require.NoError(t, reply.Decode(&csv))
	assert.Equal(t, "", csv)

	require.NoError(t, h.Manager.Repo.SaveLead(ctx, model.ProfileInfo{ID: "ana", Name: "Ana Lima"}))
	reply = h.Handle(ctx, model.Command{Action: model.ActionExportLeads})
	require.True(t, reply.Success)
	require.NoError(t, reply.Decode(&csv))
	assert.Equal(t, "id,name,firstName,title,company,profileUrl,date\n"+`"ana","Ana Lima","","","","",""`, csv)

	reply = h.Handle(ctx, model.Command{Action: model.ActionStartAutomation})
	assert.Equal(t, "unknown action: START_AUTOMATION", reply.Error)
}
