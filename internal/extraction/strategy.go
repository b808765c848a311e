package extraction

import (
	"strings"

	"github.com/unclebandit/linkedin-outreach/internal/dom"
)

// Strategy pulls one field out of a card. ok is false when it found nothing.
type Strategy func(card dom.Node) (value string, ok bool)

// SelectorStrategy matches the first element for selector with non-blank text.
func SelectorStrategy(selector string) Strategy {
	return func(card dom.Node) (string, bool) {
		n := card.Find(selector)
		if n == nil {
			return "", false
		}
		text := strings.TrimSpace(n.Text())
		return text, text != ""
	}
}

// LineStrategy takes line i of the card's flattened text, ignoring blank lines.
func LineStrategy(i int) Strategy {
	return func(card dom.Node) (string, bool) {
		lines := Lines(card.Text())
		if i < len(lines) {
			return lines[i], true
		}
		return "", false
	}
}

// Lines splits text on newlines and drops blank lines.
func Lines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// FirstMatch evaluates strategies in order; the first hit wins.
func FirstMatch(card dom.Node, strategies []Strategy) string {
	for _, s := range strategies {
		if v, ok := s(card); ok {
			return v
		}
	}
	return ""
}

func selectors(sels ...string) []Strategy {
	out := make([]Strategy, len(sels))
	for i, s := range sels {
		out[i] = SelectorStrategy(s)
	}
	return out
}

var (
	NameStrategies = append(selectors(
		`[data-testid="name"]`,
		".entity-result__title-text",
		".search-result__title",
		".result-card__title",
		".artdeco-entity-lockup__title",
		"h3",
		"h2",
		".name",
		`[data-testid="title"]`,
	), LineStrategy(0))

	TitleStrategies = append(selectors(
		`[data-testid="title"]`,
		".entity-result__primary-subtitle",
		".search-result__subtitle",
		".result-card__subtitle",
		".artdeco-entity-lockup__subtitle",
		".job-title",
		".position",
		".role",
		`[data-testid="job-title"]`,
	), LineStrategy(1))

	CompanyStrategies = append(selectors(
		`[data-testid="company"]`,
		".entity-result__secondary-subtitle",
		".search-result__company",
		".result-card__company",
		".artdeco-entity-lockup__company",
		".company",
		".organization",
		`[data-testid="organization"]`,
	), LineStrategy(2))
)
