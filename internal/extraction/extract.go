// Package extraction turns profile cards on a search or network page into
// leads. No selector is trusted on its own: every field is resolved through an
// ordered list of strategies and falls back to positional text lines.
package extraction

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/unclebandit/linkedin-outreach/internal/dom"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
)

const profileLinkSelector = `a[href*="/in/"]`

var profileIDPattern = regexp.MustCompile(`/in/([^/?]+)`)

// ProfileID returns the first path segment after /in/, or "" when there is none.
func ProfileID(profileURL string) string {
	m := profileIDPattern.FindStringSubmatch(profileURL)
	if m == nil {
		return ""
	}
	return m[1]
}

type Extractor struct {
	Name    []Strategy
	Title   []Strategy
	Company []Strategy
	Now     func() time.Time
	Logger  *slog.Logger
}

func NewExtractor() *Extractor {
	return &Extractor{
		Name:    NameStrategies,
		Title:   TitleStrategies,
		Company: CompanyStrategies,
		Now:     time.Now,
		Logger:  logging.WithModule("extraction"),
	}
}

// ExtractProfile reads a card into a ProfileInfo. Missing fields come back as
// empty strings; nil is only returned if the card itself blows up.
func (e *Extractor) ExtractProfile(card dom.Node, baseURL string) (profile *model.ProfileInfo) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("failed to extract profile", "panic", r)
			profile = nil
		}
	}()
	if card == nil {
		return nil
	}

	name := FirstMatch(card, e.Name)
	profileURL := profileLink(card, baseURL)
	firstName, _, _ := strings.Cut(name, " ")

	profile = &model.ProfileInfo{
		ID:         ProfileID(profileURL),
		Name:       name,
		FirstName:  firstName,
		Title:      FirstMatch(card, e.Title),
		Company:    FirstMatch(card, e.Company),
		ProfileURL: profileURL,
		Date:       e.Now(),
	}
	e.Logger.Debug("extracted profile", "id", profile.ID, "name", profile.Name)
	return profile
}

func profileLink(card dom.Node, baseURL string) string {
	href := ""
	if link := card.Find(profileLinkSelector); link != nil {
		href = link.Attr("href")
	} else if own := card.Attr("href"); strings.Contains(own, "/in/") {
		href = own
	}
	if href == "" {
		return ""
	}
	return resolve(baseURL, href)
}

func resolve(baseURL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
