// internal/model/message.go
package model

import "time"

const (
	MessagePending = "pending"
	MessageSent    = "sent"
)

type Message struct {
	ConnectionID  string     `json:"connectionId"`
	Message       string     `json:"message"`
	Date          time.Time  `json:"date"`
	Status        string     `json:"status"` // pending, sent
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
}

type Statistics struct {
	ConnectionCount int       `json:"connectionCount"`
	MessageCount    int       `json:"messageCount"`
	Date            time.Time `json:"date"`
}
