package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/linkedin-outreach/internal/model"
)

var day0 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func TestMergeLead_UpsertsByID(t *testing.T) {
	first := model.ProfileInfo{ID: "jane", Name: "Jane Doe", Title: "Engineer", Company: "Acme", Date: day0}
	second := model.ProfileInfo{ID: "jane", Name: "Jane Doe", Title: "Staff Engineer", Date: day0.Add(time.Hour)}

	leads := MergeLead(nil, first)
	leads = MergeLead(leads, second)

	require.Len(t, leads, 1)
	assert.Equal(t, "Staff Engineer", leads[0].Title)
	assert.Empty(t, leads[0].Company, "the later extraction replaces every field")
	assert.Equal(t, day0.Add(time.Hour), leads[0].Date)
}

func TestMergeLead_DoesNotModifyInput(t *testing.T) {
	leads := []model.ProfileInfo{{ID: "a", Title: "old"}}
	out := MergeLead(leads, model.ProfileInfo{ID: "a", Title: "new"})
	assert.Equal(t, "old", leads[0].Title)
	assert.Equal(t, "new", out[0].Title)

	out = MergeLead(leads, model.ProfileInfo{ID: "b"})
	assert.Len(t, leads, 1)
	assert.Len(t, out, 2)
}

func TestCancelStaleConnections(t *testing.T) {
	conns := []model.Connection{
		{ProfileInfo: model.ProfileInfo{ID: "old", Date: day0.AddDate(0, 0, -8)}, Status: model.ConnectionPending},
		{ProfileInfo: model.ProfileInfo{ID: "edge", Date: day0.AddDate(0, 0, -7)}, Status: model.ConnectionPending},
		{ProfileInfo: model.ProfileInfo{ID: "fresh", Date: day0.AddDate(0, 0, -1)}, Status: model.ConnectionPending},
		{ProfileInfo: model.ProfileInfo{ID: "accepted", Date: day0.AddDate(0, 0, -30)}, Status: model.ConnectionAccepted},
		{ProfileInfo: model.ProfileInfo{ID: "undated"}, Status: model.ConnectionPending},
	}

	out, cancelled := CancelStaleConnections(conns, day0, 7)

	require.Len(t, cancelled, 2)
	assert.Equal(t, "old", cancelled[0].ID)
	assert.Equal(t, "edge", cancelled[1].ID)
	assert.Equal(t, model.ConnectionCancelled, out[0].Status)
	require.NotNil(t, out[0].CancelledDate)
	assert.Equal(t, day0, *out[0].CancelledDate)
	assert.Equal(t, model.ConnectionPending, out[2].Status)
	assert.Equal(t, model.ConnectionAccepted, out[3].Status)
	assert.Equal(t, model.ConnectionPending, out[4].Status)
	assert.Equal(t, model.ConnectionPending, conns[0].Status, "input untouched")
}

func TestSetConnectionStatus(t *testing.T) {
	conns := []model.Connection{
		{ProfileInfo: model.ProfileInfo{ID: "a"}, Status: model.ConnectionPending},
		{ProfileInfo: model.ProfileInfo{ID: "b"}, Status: model.ConnectionPending},
	}

	out, ok := SetConnectionStatus(conns, "b", model.ConnectionAccepted, day0)
	require.True(t, ok)
	assert.Equal(t, model.ConnectionAccepted, out[1].Status)
	require.NotNil(t, out[1].AcceptedDate)
	assert.Equal(t, day0, *out[1].AcceptedDate)
	assert.Nil(t, conns[1].AcceptedDate)

	_, ok = SetConnectionStatus(conns, "zzz", model.ConnectionRejected, day0)
	assert.False(t, ok)
}

func TestMarkMessageSent(t *testing.T) {
	scheduled := day0
	msgs := []model.Message{
		{ConnectionID: "a", Status: model.MessagePending, ScheduledDate: &scheduled},
		{ConnectionID: "b", Status: model.MessagePending},
	}

	out, ok := MarkMessageSent(msgs, "a", "hello", day0.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, model.MessageSent, out[0].Status)
	assert.Equal(t, "hello", out[0].Message)
	assert.Equal(t, day0.Add(time.Hour), out[0].Date)
	assert.Equal(t, model.MessagePending, out[1].Status)

	assert.True(t, HasSentMessage(out, "a"))
	assert.False(t, HasSentMessage(out, "b"))
	assert.False(t, HasSentMessage(msgs, "a"))

	_, ok = MarkMessageSent(out, "a", "again", day0)
	assert.False(t, ok, "nothing pending any more")
}

func TestAddTemplate(t *testing.T) {
	templates := model.Templates{model.TemplateConnection: {{Name: "Default", Message: "hi"}}}

	out := AddTemplate(templates, model.Template{Type: model.TemplateFollowUp, Name: "Nudge", Message: "ping"})
	out = AddTemplate(out, model.Template{Type: model.TemplateConnection, Name: "Short", Message: "hey"})

	assert.Len(t, templates[model.TemplateConnection], 1)
	assert.Len(t, out[model.TemplateConnection], 2)
	assert.Equal(t, "Nudge", out[model.TemplateFollowUp][0].Name)
}

func TestApplySettingsPatch(t *testing.T) {
	maxConn := 10
	pause := false
	patch := model.SettingsPatch{
		MaxConnectionsPerDay: &maxConn,
		AutoPauseOnResponse:  &pause,
		WorkingHours:         &model.WorkingHours{Start: 8, End: 20},
	}

	s := ApplySettingsPatch(model.DefaultSettings(), patch)

	assert.Equal(t, 10, s.MaxConnectionsPerDay)
	assert.False(t, s.AutoPauseOnResponse)
	assert.Equal(t, model.WorkingHours{Start: 8, End: 20}, s.WorkingHours)
	assert.Equal(t, 100, s.MaxMessagesPerDay)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.WorkingDays)
}

func TestWithDefaults(t *testing.T) {
	s := model.DefaultSettings()

	c := WithDefaults(model.Campaign{Name: "Q1", MaxConnectionsPerDay: 5}, s)
	assert.Equal(t, 5, c.MaxConnectionsPerDay)
	assert.Equal(t, 100, c.MaxMessagesPerDay)
	assert.Equal(t, model.DelayRange{Min: 3000, Max: 8000}, c.ConnectionDelay)
	assert.Equal(t, model.DelayRange{Min: 2000, Max: 5000}, c.MessageDelay)
	assert.Equal(t, "Q1", c.Name)
}
