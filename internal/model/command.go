// internal/model/command.go
package model

import "encoding/json"

// Controller actions.
const (
	ActionStartCampaign  = "START_CAMPAIGN"
	ActionStopCampaign   = "STOP_CAMPAIGN"
	ActionGetStatus      = "GET_STATUS"
	ActionUpdateSettings = "UPDATE_SETTINGS"
	ActionSaveTemplate   = "SAVE_TEMPLATE"
	ActionExportLeads    = "EXPORT_LEADS"
)

// Page agent actions. GET_STATUS is shared with the controller.
const (
	ActionStartAutomation = "START_AUTOMATION"
	ActionStopAutomation  = "STOP_AUTOMATION"
	ActionScrapeProfiles  = "SCRAPE_PROFILES"
	ActionPing            = "PING"
	ActionSendFollowUp    = "SEND_FOLLOW_UP"
)

// Command is the envelope for every request on the bus.
type Command struct {
	Action     string         `json:"action"`
	Campaign   *Campaign      `json:"campaign,omitempty"`
	Connection *Connection    `json:"connection,omitempty"`
	Settings   *SettingsPatch `json:"settings,omitempty"`
	Template   *Template      `json:"template,omitempty"`
}

// Reply answers a Command. Code names the error kind when Success is false.
type Reply struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// OK builds a successful reply carrying data, which may be nil.
func OK(data any) Reply {
	r := Reply{Success: true}
	if data == nil {
		return r
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Reply{Error: "encode reply: " + err.Error()}
	}
	r.Data = raw
	return r
}

// Decode unmarshals the reply data into dest.
func (r Reply) Decode(dest any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, dest)
}
