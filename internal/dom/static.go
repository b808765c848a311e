package dom

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Action is a recorded interaction with a StaticPage.
type Action struct {
	Kind  string // click, fill, navigate
	Label string
	Text  string
}

// StaticPage is a Page over an HTML snapshot. Interactions are recorded, not executed.
type StaticPage struct {
	mu      sync.Mutex
	url     string
	doc     *goquery.Document
	actions []Action

	// Routes maps URLs to the HTML served after Navigate.
	Routes map[string]string
	// OnClick runs after every click, e.g. to swap in a dialog.
	OnClick func(p *StaticPage, n Node)
}

func NewStaticPage(pageURL, html string) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &StaticPage{url: pageURL, doc: doc}, nil
}

// Load replaces the current document.
func (p *StaticPage) Load(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

func (p *StaticPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *StaticPage) Find(selector string) Node {
	return wrap(p, p.document().Find(selector).First())
}

func (p *StaticPage) FindAll(selector string) []Node {
	return wrapAll(p, p.document().Find(selector))
}

func (p *StaticPage) Navigate(_ context.Context, url string) error {
	p.record(Action{Kind: "navigate", Text: url})
	p.mu.Lock()
	p.url = url
	html, ok := p.Routes[url]
	p.mu.Unlock()
	if ok {
		return p.Load(html)
	}
	return nil
}

// Actions returns a copy of the recorded interactions.
func (p *StaticPage) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// Count returns how many recorded actions have the given kind.
func (p *StaticPage) Count(kind string) int {
	n := 0
	for _, a := range p.Actions() {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func (p *StaticPage) document() *goquery.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

func (p *StaticPage) record(a Action) {
	p.mu.Lock()
	p.actions = append(p.actions, a)
	p.mu.Unlock()
}

type staticNode struct {
	page *StaticPage
	sel  *goquery.Selection
}

func wrap(p *StaticPage, sel *goquery.Selection) Node {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	return &staticNode{page: p, sel: sel}
}

func wrapAll(p *StaticPage, sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &staticNode{page: p, sel: s})
	})
	return nodes
}

func (n *staticNode) Find(selector string) Node {
	return wrap(n.page, n.sel.Find(selector).First())
}

func (n *staticNode) FindAll(selector string) []Node {
	return wrapAll(n.page, n.sel.Find(selector))
}

func (n *staticNode) Closest(selector string) Node {
	return wrap(n.page, n.sel.Closest(selector))
}

func (n *staticNode) Parent() Node {
	return wrap(n.page, n.sel.Parent())
}

func (n *staticNode) Text() string {
	return n.sel.Text()
}

func (n *staticNode) Attr(name string) string {
	return n.sel.AttrOr(name, "")
}

func (n *staticNode) Tag() string {
	return goquery.NodeName(n.sel)
}

func (n *staticNode) Click(_ context.Context) error {
	n.page.record(Action{Kind: "click", Label: n.label()})
	if n.page.OnClick != nil {
		n.page.OnClick(n.page, n)
	}
	return nil
}

func (n *staticNode) Fill(_ context.Context, text string) error {
	switch n.Tag() {
	case "textarea", "input":
		n.sel.SetAttr("value", text)
	default:
		n.sel.SetText(text)
	}
	n.page.record(Action{Kind: "fill", Label: n.label(), Text: text})
	return nil
}

func (n *staticNode) label() string {
	if label := n.Attr("aria-label"); label != "" {
		return label
	}
	return strings.TrimSpace(n.Text())
}
