// internal/model/campaign.go
package model

import "time"

// DelayRange is an inclusive range of milliseconds.
type DelayRange struct {
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gtefield=Min"`
}

type Filters struct {
	Companies []string `json:"companies"`
	Titles    []string `json:"titles"`
}

type Campaign struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name" validate:"required"`
	Description          string     `json:"description,omitempty"`
	MaxConnectionsPerDay int        `json:"maxConnectionsPerDay" validate:"gte=0"`
	MaxMessagesPerDay    int        `json:"maxMessagesPerDay" validate:"gte=0"`
	ConnectionDelay      DelayRange `json:"connectionDelay"`
	MessageDelay         DelayRange `json:"messageDelay"`
	FollowUpDelay        int        `json:"followUpDelay" validate:"gte=0"` // days
	Filters              Filters    `json:"filters"`
	ConnectionTemplate   string     `json:"connectionTemplate"`
	FollowUpTemplate     string     `json:"followUpTemplate"`
	IsActive             bool       `json:"isActive"`
	CreatedAt            *time.Time `json:"createdAt,omitempty"`
}
