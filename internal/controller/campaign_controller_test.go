package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/linkedin-outreach/internal/controller"
	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/queue"
	"github.com/unclebandit/linkedin-outreach/internal/repository"
	"github.com/unclebandit/linkedin-outreach/internal/schedule"
	"github.com/unclebandit/linkedin-outreach/internal/service"
)

type testServer struct {
	router http.Handler
	repo   *repository.OutreachRepository
	bus    *queue.InMemoryBus
	m      *service.AutomationManager
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	repo := &repository.OutreachRepository{Store: repository.NewMemoryStore()}
	bus := queue.NewInMemoryBus()
	t.Cleanup(func() { bus.Close() })

	m := service.NewAutomationManager(repo, bus)
	m.Clock = schedule.FixedClock{T: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, m.Init(context.Background()))

	r := chi.NewRouter()
	controller.NewCampaignController(m).Routes(r)
	return &testServer{router: r, repo: repo, bus: bus, m: m}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dest))
}

// ====================== Campaign lifecycle ======================

func TestStartAndStopCampaign(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/campaigns/start", map[string]interface{}{"name": "Q1", "maxConnectionsPerDay": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Success  bool           `json:"success"`
		Campaign model.Campaign `json:"campaign"`
	}
	decodeBody(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, 5, res.Campaign.MaxConnectionsPerDay)
	assert.NotEmpty(t, res.Campaign.ID)

	w = s.do(t, http.MethodPost, "/campaigns/start", map[string]interface{}{"name": "Q2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Q1")

	w = s.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st model.ControllerStatus
	decodeBody(t, w, &st)
	assert.True(t, st.IsRunning)
	assert.Equal(t, "Q1", st.CurrentCampaign.Name)
	assert.Equal(t, 50, st.Settings.MaxConnectionsPerDay)

	w = s.do(t, http.MethodPost, "/campaigns/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.m.Status().IsRunning)
}

func TestStartCampaign_InvalidBody(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/campaigns/start", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/campaigns/start", map[string]interface{}{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/campaigns/start", map[string]interface{}{
		"name":            "bad delays",
		"connectionDelay": map[string]int{"min": 5000, "max": 1000},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, s.m.Status().IsRunning)
}

func TestListCampaignsPagination(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	totalCampaigns := 25
	for i := 1; i <= totalCampaigns; i++ {
		require.NoError(t, s.repo.SaveCampaign(ctx, model.Campaign{ID: "c" + strconv.Itoa(i), Name: "Campaign " + strconv.Itoa(i)}))
	}

	pageSize := 10
	totalPages := (totalCampaigns + pageSize - 1) / pageSize
	seen := map[string]bool{}

	for page := 1; page <= totalPages; page++ {
		w := s.do(t, http.MethodGet, fmt.Sprintf("/campaigns?page=%d&page_size=%d", page, pageSize), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			Data       []model.Campaign `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				PageSize   int `json:"page_size"`
				TotalCount int `json:"total_count"`
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		}
		decodeBody(t, w, &res)

		assert.Equal(t, page, res.Pagination.Page)
		assert.Equal(t, pageSize, res.Pagination.PageSize)
		assert.Equal(t, totalCampaigns, res.Pagination.TotalCount)
		assert.Equal(t, totalPages, res.Pagination.TotalPages)
		for _, c := range res.Data {
			assert.False(t, seen[c.ID], "duplicate campaign %s across pages", c.ID)
			seen[c.ID] = true
		}
	}

	assert.Len(t, seen, totalCampaigns)
}

func TestPersonalizedPreview(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	require.NoError(t, s.repo.SaveCampaign(ctx, model.Campaign{ID: "c1", Name: "Q1", ConnectionTemplate: "Hi {{first_name}} from {{empresa}}"}))
	require.NoError(t, s.repo.SaveCampaign(ctx, model.Campaign{ID: "empty", Name: "empty"}))
	require.NoError(t, s.repo.SaveLead(ctx, model.ProfileInfo{ID: "ana", FirstName: "Ana", Company: "Acme"}))

	w := s.do(t, http.MethodPost, "/campaigns/c1/personalized-preview", map[string]string{"lead_id": "ana"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res map[string]interface{}
	decodeBody(t, w, &res)
	assert.Equal(t, "Hi Ana from Acme", res["rendered_message"])
	assert.Nil(t, res["used_template"])

	w = s.do(t, http.MethodPost, "/campaigns/c1/personalized-preview", map[string]string{"lead_id": "ana", "override_template": "Yo {{first_name}}"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &res)
	assert.Equal(t, "Yo Ana", res["rendered_message"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/campaigns/c1/personalized-preview", map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/campaigns/empty/personalized-preview", map[string]string{"lead_id": "ana"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/campaigns/nope/personalized-preview", map[string]string{"lead_id": "ana"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/campaigns/c1/personalized-preview", map[string]string{"lead_id": "bob"}).Code)
}

// ====================== Settings, templates, leads ======================

func TestUpdateSettings(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPut, "/settings", map[string]interface{}{"maxMessagesPerDay": 12, "workingDays": []int{1, 2}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Success  bool           `json:"success"`
		Settings model.Settings `json:"settings"`
	}
	decodeBody(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, 12, res.Settings.MaxMessagesPerDay)
	assert.Equal(t, []int{1, 2}, res.Settings.WorkingDays)
	assert.Equal(t, 50, res.Settings.MaxConnectionsPerDay)

	w = s.do(t, http.MethodPut, "/settings", map[string]interface{}{"workingDays": []int{7}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPut, "/settings", map[string]interface{}{"maxConnectionsPerDay": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTemplates(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/templates", model.Template{Type: model.TemplateConnection, Name: "Short", Message: "Hi {{first_name}}"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/templates", model.Template{Name: "untyped", Message: "Hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var templates model.Templates
	decodeBody(t, w, &templates)
	require.Len(t, templates[model.TemplateConnection], 3)
	assert.Equal(t, "Short", templates[model.TemplateConnection][2].Name)
}

func TestExportLeads(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.repo.SaveLead(context.Background(), model.ProfileInfo{ID: "ana", Name: "Ana"}))

	w := s.do(t, http.MethodGet, "/leads/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Success bool   `json:"success"`
		Data    string `json:"data"`
	}
	decodeBody(t, w, &res)
	assert.True(t, res.Success)
	assert.Contains(t, res.Data, `"ana","Ana"`)

	w = s.do(t, http.MethodGet, "/leads/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, res.Data, w.Body.String())
}

func TestSetConnectionStatus(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	require.NoError(t, s.repo.SaveConnection(ctx, model.Connection{ProfileInfo: model.ProfileInfo{ID: "ana"}, Status: model.ConnectionPending}))

	w := s.do(t, http.MethodPost, "/connections/ana/status", map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	conns, err := s.repo.Connections(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionAccepted, conns[0].Status)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/connections/ana/status", map[string]string{"status": "maybe"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/connections/bob/status", map[string]string{"status": "rejected"}).Code)
}

func TestGetStats(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.repo.SaveLead(context.Background(), model.ProfileInfo{ID: "ana"}))

	w := s.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats service.Stats
	decodeBody(t, w, &stats)
	assert.Equal(t, 1, stats.Leads)
	assert.Equal(t, 0, stats.Connections["total"])
}

// ====================== Agent proxies ======================

func TestAgentProxy_Unreachable(t *testing.T) {
	s := newServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/agents/a1/status"},
		{http.MethodGet, "/agents/a1/ping"},
		{http.MethodPost, "/agents/a1/scrape"},
	} {
		w := s.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusBadGateway, w.Code, tc.path)
		assert.Contains(t, w.Body.String(), appErrors.DefaultCommunicationHint, tc.path)
	}
}

func TestAgentProxy(t *testing.T) {
	s := newServer(t)
	_, err := s.bus.Subscribe(queue.AgentTopic("a1"), func(_ context.Context, cmd model.Command) model.Reply {
		switch cmd.Action {
		case model.ActionGetStatus:
			return model.OK(model.AgentStatus{IsRunning: true, ConnectionCount: 3})
		case model.ActionScrapeProfiles:
			return queue.Fail(appErrors.NewUnsupportedPage("https://www.linkedin.com/jobs/"))
		}
		return model.Reply{Success: true, Message: "pong"}
	})
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/agents/a1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st model.AgentStatus
	decodeBody(t, w, &st)
	assert.Equal(t, 3, st.ConnectionCount)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/agents/a1/ping", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(t, http.MethodPost, "/agents/a1/scrape", nil).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{appErrors.NewUnsupportedPage("x"), http.StatusUnprocessableEntity},
		{appErrors.NewAlreadyRunning("Q1"), http.StatusConflict},
		{appErrors.NewCommunication("agent.a1", errors.New("timeout")), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", appErrors.NewCampaignNotFound("c1")), http.StatusNotFound},
		{&appErrors.RemoteError{Code: appErrors.CodeElementNotFound, Message: "no button"}, http.StatusBadGateway},
		{&appErrors.RemoteError{Code: appErrors.CodeInvalid, Message: "bad"}, http.StatusBadRequest},
		{service.ErrEmptyTemplate, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, controller.StatusFor(tc.err), tc.err.Error())
	}
}
