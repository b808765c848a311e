// internal/model/settings.go
package model

type WorkingHours struct {
	Start int `json:"start" validate:"gte=0,lte=24"`
	End   int `json:"end" validate:"gte=0,lte=24"`
}

type Settings struct {
	MaxConnectionsPerDay int          `json:"maxConnectionsPerDay"`
	MaxMessagesPerDay    int          `json:"maxMessagesPerDay"`
	ConnectionDelay      DelayRange   `json:"connectionDelay"`
	MessageDelay         DelayRange   `json:"messageDelay"`
	AutoPauseOnResponse  bool         `json:"autoPauseOnResponse"`
	AutoCancelAfterDays  int          `json:"autoCancelAfterDays"`
	WorkingHours         WorkingHours `json:"workingHours"`
	WorkingDays          []int        `json:"workingDays"` // 0 = Sunday
}

func DefaultSettings() Settings {
	return Settings{
		MaxConnectionsPerDay: 50,
		MaxMessagesPerDay:    100,
		ConnectionDelay:      DelayRange{Min: 3000, Max: 8000},
		MessageDelay:         DelayRange{Min: 2000, Max: 5000},
		AutoPauseOnResponse:  true,
		AutoCancelAfterDays:  7,
		WorkingHours:         WorkingHours{Start: 9, End: 18},
		WorkingDays:          []int{1, 2, 3, 4, 5},
	}
}

// SettingsPatch is a partial update; nil fields are left untouched.
type SettingsPatch struct {
	MaxConnectionsPerDay *int          `json:"maxConnectionsPerDay,omitempty" validate:"omitempty,gte=0"`
	MaxMessagesPerDay    *int          `json:"maxMessagesPerDay,omitempty" validate:"omitempty,gte=0"`
	ConnectionDelay      *DelayRange   `json:"connectionDelay,omitempty"`
	MessageDelay         *DelayRange   `json:"messageDelay,omitempty"`
	AutoPauseOnResponse  *bool         `json:"autoPauseOnResponse,omitempty"`
	AutoCancelAfterDays  *int          `json:"autoCancelAfterDays,omitempty" validate:"omitempty,gte=0"`
	WorkingHours         *WorkingHours `json:"workingHours,omitempty"`
	WorkingDays          []int         `json:"workingDays,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
}
