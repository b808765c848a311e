package extraction

import (
	"context"
	"strings"

	"github.com/unclebandit/linkedin-outreach/internal/dom"
	"github.com/unclebandit/linkedin-outreach/internal/model"
)

// ContainerSelectors are tried in order when looking for profile cards.
var ContainerSelectors = []string{
	`[data-testid="entity-result"]`,
	".entity-result",
	".search-result__info",
	`[data-testid="result-card"]`,
	".search-result",
	".result-card",
	`[data-testid="search-result"]`,
	".artdeco-entity-lockup",
	".search-result__wrapper",
	".entity-result__item",
	".search-result__item",
	`[data-testid="people-search-result"]`,
	".people-search-result",
	".search-result__card",
	".entity-result__card",
}

// DiscoverCards returns the cards for the first container selector with a
// match. When none match it builds virtual cards around every profile link.
func DiscoverCards(page dom.Page) []dom.Node {
	for _, sel := range ContainerSelectors {
		if cards := page.FindAll(sel); len(cards) > 0 {
			return cards
		}
	}

	links := page.FindAll(profileLinkSelector)
	cards := make([]dom.Node, 0, len(links))
	for _, link := range links {
		cards = append(cards, NewVirtualCard(link))
	}
	return cards
}

// VirtualCard stands in for a card when only the profile link was found.
// Queries search the nearest container first and then the link itself.
type VirtualCard struct {
	container dom.Node
	link      dom.Node
}

func NewVirtualCard(link dom.Node) *VirtualCard {
	container := dom.FirstOf(link.Closest, ContainerSelectors...)
	if container == nil {
		container = link.Parent()
	}
	if container == nil {
		container = link
	}
	return &VirtualCard{container: container, link: link}
}

func (v *VirtualCard) Find(selector string) dom.Node {
	if n := v.container.Find(selector); n != nil {
		return n
	}
	return v.link.Find(selector)
}

func (v *VirtualCard) FindAll(selector string) []dom.Node {
	if nodes := v.container.FindAll(selector); len(nodes) > 0 {
		return nodes
	}
	return v.link.FindAll(selector)
}

func (v *VirtualCard) Closest(selector string) dom.Node { return v.container.Closest(selector) }
func (v *VirtualCard) Parent() dom.Node                 { return v.container.Parent() }
func (v *VirtualCard) Text() string                     { return v.link.Text() }
func (v *VirtualCard) Tag() string                      { return v.container.Tag() }

func (v *VirtualCard) Attr(name string) string {
	if name == "href" {
		return v.link.Attr("href")
	}
	return v.container.Attr(name)
}

func (v *VirtualCard) Click(ctx context.Context) error { return v.link.Click(ctx) }

func (v *VirtualCard) Fill(ctx context.Context, text string) error {
	return v.container.Fill(ctx, text)
}

var (
	loginURLPatterns = []string{
		"linkedin.com/login",
		"linkedin.com/signup",
		"linkedin.com/checkpoint",
	}
	loginSelectors = []string{
		".login__form",
		`[data-testid="login-form"]`,
		`input[name="session_key"]`,
		`input[name="email"]`,
	}
	supportedURLPatterns = []string{
		"linkedin.com/search/results/people",
		"linkedin.com/mynetwork/invite-connect",
		"linkedin.com/feed",
		"linkedin.com/search/results/",
		"linkedin.com/in/",
	}
)

// IsLoginPage reports a login or checkpoint page, by URL or by a credentials form.
func IsLoginPage(page dom.Page) bool {
	url := page.URL()
	for _, p := range loginURLPatterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return dom.FirstOf(page.Find, loginSelectors...) != nil
}

// IsValidPage reports whether automation may run on the page.
func IsValidPage(page dom.Page) bool {
	if IsLoginPage(page) {
		return false
	}
	url := page.URL()
	for _, p := range supportedURLPatterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

// Scrape extracts every card currently on the page.
func (e *Extractor) Scrape(page dom.Page) []*model.ProfileInfo {
	cards := DiscoverCards(page)
	e.Logger.Debug("discovered cards", "count", len(cards), "url", page.URL())

	profiles := make([]*model.ProfileInfo, 0, len(cards))
	for _, card := range cards {
		if p := e.ExtractProfile(card, page.URL()); p != nil {
			profiles = append(profiles, p)
		}
	}
	return profiles
}
