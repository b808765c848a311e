package schedule

import (
	"slices"
	"time"

	"github.com/unclebandit/linkedin-outreach/internal/model"
)

// Clock abstracts time so callers can pin it in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// Window is the set of local hours on which outreach may happen.
// End is exclusive and Days uses 0 for Sunday.
type Window struct {
	Hours model.WorkingHours
	Days  []int
}

func WindowFromSettings(s model.Settings) Window {
	return Window{Hours: s.WorkingHours, Days: s.WorkingDays}
}

func (w Window) Contains(t time.Time) bool {
	if !slices.Contains(w.Days, int(t.Weekday())) {
		return false
	}
	h := t.Hour()
	return h >= w.Hours.Start && h < w.Hours.End
}
