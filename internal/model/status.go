// internal/model/status.go
package model

// ControllerStatus answers GET_STATUS on the controller.
type ControllerStatus struct {
	IsRunning       bool      `json:"isRunning"`
	CurrentCampaign *Campaign `json:"currentCampaign"`
	Settings        Settings  `json:"settings"`
}

// AgentStatus answers GET_STATUS on a page agent.
type AgentStatus struct {
	IsRunning       bool   `json:"isRunning"`
	ConnectionCount int    `json:"connectionCount"`
	MessageCount    int    `json:"messageCount"`
	CurrentPage     string `json:"currentPage"`
}
