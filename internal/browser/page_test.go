package browser_test

import (
	"context"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/linkedin-outreach/internal/browser"
)

const cardsHTML = `<html><body>
<div class="entity-result">
  <a href="/in/jane-doe/"><span>Jane Doe</span></a>
  <button aria-label="Connect with Jane Doe">Connect</button>
  <textarea></textarea>
</div>
</body></html>`

// Needs a local Chromium; set TEST_BROWSER=1 to run.
func TestPage(t *testing.T) {
	if os.Getenv("TEST_BROWSER") == "" {
		t.Skip("TEST_BROWSER not set")
	}
	ctx := context.Background()

	s, err := browser.Launch(ctx, browser.Options{
		Headless: true,
		Bin:      os.Getenv("BROWSER_BIN"),
		StartURL: "data:text/html," + url.PathEscape(cardsHTML),
	})
	require.NoError(t, err)
	defer s.Close()

	cards := s.Page.FindAll(".entity-result")
	require.Len(t, cards, 1)
	assert.Nil(t, s.Page.Find(".missing"))

	link := cards[0].Find(`a[href*="/in/"]`)
	require.NotNil(t, link)
	assert.Equal(t, "/in/jane-doe/", link.Attr("href"))
	assert.Equal(t, "a", link.Tag())
	assert.Equal(t, "Jane Doe", link.Text())

	card := link.Closest(".entity-result")
	require.NotNil(t, card)
	assert.Equal(t, "div", card.Tag())
	assert.Nil(t, link.Closest(".nope"))

	field := card.Find("textarea")
	require.NoError(t, field.Fill(ctx, "Hi Jane"))
	require.NoError(t, card.Find("button").Click(ctx))
}
