// internal/model/connection.go
package model

import "time"

const (
	ConnectionPending   = "pending"
	ConnectionAccepted  = "accepted"
	ConnectionRejected  = "rejected"
	ConnectionCancelled = "cancelled"
)

// Connection records a submitted connection request. Date is when it was sent.
type Connection struct {
	ProfileInfo
	Status        string     `json:"status"`
	AcceptedDate  *time.Time `json:"acceptedDate,omitempty"`
	CancelledDate *time.Time `json:"cancelledDate,omitempty"`
}

func IsValidConnectionStatus(status string) bool {
	switch status {
	case ConnectionPending, ConnectionAccepted, ConnectionRejected, ConnectionCancelled:
		return true
	}
	return false
}
