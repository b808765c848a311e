// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
	"github.com/unclebandit/linkedin-outreach/internal/service"
)

// CampaignController exposes the controller commands over HTTP.
type CampaignController struct {
	Manager  *service.AutomationManager
	Validate *validator.Validate
	Logger   *slog.Logger
}

func NewCampaignController(m *service.AutomationManager) *CampaignController {
	return &CampaignController{
		Manager:  m,
		Validate: validator.New(),
		Logger:   logging.WithModule("http"),
	}
}

// Routes mounts every endpoint on r.
func (c *CampaignController) Routes(r chi.Router) {
	r.Get("/status", c.GetStatus)
	r.Get("/stats", c.GetStats)
	r.Put("/settings", c.UpdateSettings)

	r.Get("/campaigns", c.ListCampaigns)
	r.Post("/campaigns/start", c.StartCampaign)
	r.Post("/campaigns/stop", c.StopCampaign)
	r.Post("/campaigns/{id}/personalized-preview", c.PersonalizedPreview)

	r.Get("/templates", c.ListTemplates)
	r.Post("/templates", c.SaveTemplate)
	r.Get("/leads/export", c.ExportLeads)
	r.Post("/connections/{id}/status", c.SetConnectionStatus)

	r.Get("/agents/{id}/status", c.AgentStatus)
	r.Get("/agents/{id}/ping", c.PingAgent)
	r.Post("/agents/{id}/scrape", c.ScrapeAgent)
}

// ====================== Campaign lifecycle ======================

func (c *CampaignController) StartCampaign(w http.ResponseWriter, r *http.Request) {
	var campaign model.Campaign
	if !c.decode(w, r, &campaign) {
		return
	}

	started, err := c.Manager.StartCampaign(r.Context(), campaign)
	if err != nil {
		c.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"campaign": started,
	})
}

func (c *CampaignController) StopCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.Manager.StopCampaign(r.Context()); err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (c *CampaignController) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.Manager.Status())
}

func (c *CampaignController) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.Manager.Stats(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	campaigns, pagination, err := c.Manager.ListCampaigns(r.Context(), page, pageSize)
	if err != nil {
		c.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	var body struct {
		LeadID           string  `json:"lead_id" validate:"required"`
		OverrideTemplate *string `json:"override_template"`
	}
	if !c.decode(w, r, &body) {
		return
	}

	rendered, err := c.Manager.Preview(r.Context(), campaignID, body.LeadID, body.OverrideTemplate)
	if err != nil {
		c.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rendered_message": rendered,
		"used_template":    body.OverrideTemplate,
		"lead_id":          body.LeadID,
	})
}

// ====================== Settings, templates, leads ======================

func (c *CampaignController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if !c.decode(w, r, &patch) {
		return
	}

	if err := c.Manager.UpdateSettings(r.Context(), patch); err != nil {
		c.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": c.Manager.Settings(),
	})
}

func (c *CampaignController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := c.Manager.Templates(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (c *CampaignController) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var t model.Template
	if !c.decode(w, r, &t) {
		return
	}
	if err := c.Manager.SaveTemplate(r.Context(), t); err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ExportLeads returns the leads as CSV, wrapped in JSON unless format=csv.
func (c *CampaignController) ExportLeads(w http.ResponseWriter, r *http.Request) {
	csv, err := c.Manager.ExportLeads(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
		w.Write([]byte(csv))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    csv,
	})
}

func (c *CampaignController) SetConnectionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Status string `json:"status" validate:"required,oneof=pending accepted rejected cancelled"`
	}
	if !c.decode(w, r, &body) {
		return
	}

	if err := c.Manager.SetConnectionStatus(r.Context(), id, body.Status); err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ====================== Agent proxies ======================

func (c *CampaignController) AgentStatus(w http.ResponseWriter, r *http.Request) {
	st, err := c.Manager.AgentStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (c *CampaignController) PingAgent(w http.ResponseWriter, r *http.Request) {
	if err := c.Manager.PingAgent(r.Context(), chi.URLParam(r, "id")); err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "pong"})
}

func (c *CampaignController) ScrapeAgent(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.Manager.ScrapeAgent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    profiles,
	})
}

// ====================== Helpers ======================

// decode reads a JSON body into dest and validates it. It writes a 400 and
// returns false on failure.
func (c *CampaignController) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := c.Validate.Struct(dest); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (c *CampaignController) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		c.Logger.Error("request failed", "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var remote *appErrors.RemoteError
	if errors.As(err, &remote) {
		switch remote.Code {
		case appErrors.CodeUnsupportedPage:
			return http.StatusUnprocessableEntity
		case appErrors.CodeInvalid:
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}

	var validation validator.ValidationErrors
	switch appErrors.Code(err) {
	case appErrors.CodeUnsupportedPage:
		return http.StatusUnprocessableEntity
	case appErrors.CodeAlreadyRunning:
		return http.StatusConflict
	case appErrors.CodeCommunication:
		return http.StatusBadGateway
	case appErrors.CodeNotFound:
		return http.StatusNotFound
	}
	if errors.As(err, &validation) || errors.Is(err, service.ErrEmptyTemplate) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
