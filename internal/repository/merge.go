package repository

import (
	"slices"
	"time"

	"dario.cat/mergo"

	"github.com/unclebandit/linkedin-outreach/internal/model"
)

// The functions below are pure (collection, change) -> collection merges.
// They never modify their inputs.

// MergeLead upserts p by id. The later extraction wins on every field, even
// when it came back with fewer details.
func MergeLead(leads []model.ProfileInfo, p model.ProfileInfo) []model.ProfileInfo {
	out := slices.Clone(leads)
	if i := slices.IndexFunc(out, func(l model.ProfileInfo) bool { return l.ID == p.ID }); i >= 0 {
		out[i] = p
		return out
	}
	return append(out, p)
}

func AppendConnection(conns []model.Connection, c model.Connection) []model.Connection {
	return append(slices.Clone(conns), c)
}

func AppendMessage(msgs []model.Message, m model.Message) []model.Message {
	return append(slices.Clone(msgs), m)
}

func AppendStatistics(stats []model.Statistics, s model.Statistics) []model.Statistics {
	return append(slices.Clone(stats), s)
}

// CancelStaleConnections cancels pending requests sent at least days ago.
// It returns the new collection and the connections it cancelled.
func CancelStaleConnections(conns []model.Connection, now time.Time, days int) ([]model.Connection, []model.Connection) {
	out := slices.Clone(conns)
	var cancelled []model.Connection
	maxAge := time.Duration(days) * 24 * time.Hour
	for i := range out {
		c := &out[i]
		if c.Status != model.ConnectionPending || c.Date.IsZero() {
			continue
		}
		if now.Sub(c.Date) >= maxAge {
			at := now
			c.Status = model.ConnectionCancelled
			c.CancelledDate = &at
			cancelled = append(cancelled, *c)
		}
	}
	return out, cancelled
}

// SetConnectionStatus updates every connection with the given id. ok is false
// when none matched.
func SetConnectionStatus(conns []model.Connection, id, status string, at time.Time) ([]model.Connection, bool) {
	out := slices.Clone(conns)
	ok := false
	for i := range out {
		if out[i].ID != id {
			continue
		}
		ok = true
		out[i].Status = status
		switch status {
		case model.ConnectionAccepted:
			t := at
			out[i].AcceptedDate = &t
		case model.ConnectionCancelled:
			t := at
			out[i].CancelledDate = &t
		}
	}
	return out, ok
}

// MarkMessageSent flips the pending messages of a connection to sent.
func MarkMessageSent(msgs []model.Message, connectionID, text string, at time.Time) ([]model.Message, bool) {
	out := slices.Clone(msgs)
	ok := false
	for i := range out {
		m := &out[i]
		if m.ConnectionID != connectionID || m.Status != model.MessagePending {
			continue
		}
		ok = true
		m.Status = model.MessageSent
		m.Date = at
		if text != "" {
			m.Message = text
		}
	}
	return out, ok
}

// HasSentMessage reports whether a sent message exists for the connection.
func HasSentMessage(msgs []model.Message, connectionID string) bool {
	return slices.ContainsFunc(msgs, func(m model.Message) bool {
		return m.ConnectionID == connectionID && m.Status == model.MessageSent
	})
}

// AddTemplate appends t under its category.
func AddTemplate(templates model.Templates, t model.Template) model.Templates {
	out := make(model.Templates, len(templates)+1)
	for k, v := range templates {
		out[k] = slices.Clone(v)
	}
	out[t.Type] = append(out[t.Type], t)
	return out
}

// ApplySettingsPatch overwrites the fields set in p.
func ApplySettingsPatch(s model.Settings, p model.SettingsPatch) model.Settings {
	if p.MaxConnectionsPerDay != nil {
		s.MaxConnectionsPerDay = *p.MaxConnectionsPerDay
	}
	if p.MaxMessagesPerDay != nil {
		s.MaxMessagesPerDay = *p.MaxMessagesPerDay
	}
	if p.ConnectionDelay != nil {
		s.ConnectionDelay = *p.ConnectionDelay
	}
	if p.MessageDelay != nil {
		s.MessageDelay = *p.MessageDelay
	}
	if p.AutoPauseOnResponse != nil {
		s.AutoPauseOnResponse = *p.AutoPauseOnResponse
	}
	if p.AutoCancelAfterDays != nil {
		s.AutoCancelAfterDays = *p.AutoCancelAfterDays
	}
	if p.WorkingHours != nil {
		s.WorkingHours = *p.WorkingHours
	}
	if p.WorkingDays != nil {
		s.WorkingDays = slices.Clone(p.WorkingDays)
	}
	return s
}

// WithDefaults fills the unset limits and delays of a campaign from the
// global settings.
func WithDefaults(c model.Campaign, s model.Settings) model.Campaign {
	defaults := model.Campaign{
		MaxConnectionsPerDay: s.MaxConnectionsPerDay,
		MaxMessagesPerDay:    s.MaxMessagesPerDay,
		ConnectionDelay:      s.ConnectionDelay,
		MessageDelay:         s.MessageDelay,
	}
	// Merge only fails on mismatched types.
	_ = mergo.Merge(&c, defaults)
	return c
}
