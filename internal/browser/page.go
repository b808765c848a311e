// Package browser drives a live Chromium tab through go-rod and exposes it as
// a dom.Page.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/unclebandit/linkedin-outreach/internal/dom"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
)

var (
	_ dom.Page = (*Page)(nil)
	_ dom.Node = (*Node)(nil)
)

type Options struct {
	Bin         string
	Headless    bool
	UserDataDir string
	StartURL    string
}

// Session owns a browser process and the tab the agent works in.
type Session struct {
	Browser *rod.Browser
	Page    *Page
}

// Launch starts a browser and opens opts.StartURL. A persistent UserDataDir
// keeps the LinkedIn login across restarts.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	p, err := b.Page(proto.TargetCreateTarget{URL: opts.StartURL})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open %s: %w", opts.StartURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		slog.Warn("start page did not finish loading", "url", opts.StartURL, "error", err)
	}

	return &Session{Browser: b, Page: NewPage(p)}, nil
}

func (s *Session) Close() error {
	return s.Browser.Close()
}

// Page adapts a rod page to dom.Page. Lookups never wait: a selector with no
// match yields nil right away.
type Page struct {
	rod    *rod.Page
	logger *slog.Logger
}

func NewPage(p *rod.Page) *Page {
	return &Page{rod: p, logger: logging.WithModule("browser")}
}

func (p *Page) URL() string {
	info, err := p.rod.Info()
	if err != nil {
		p.logger.Debug("page info unavailable", "error", err)
		return ""
	}
	return info.URL
}

func (p *Page) Find(selector string) dom.Node {
	els, err := p.rod.Elements(selector)
	if err != nil || els.Empty() {
		return nil
	}
	return &Node{el: els.First(), page: p}
}

func (p *Page) FindAll(selector string) []dom.Node {
	els, err := p.rod.Elements(selector)
	if err != nil {
		p.logger.Debug("query failed", "selector", selector, "error", err)
		return nil
	}
	return p.wrap(els)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	page := p.rod.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return page.WaitLoad()
}

func (p *Page) wrap(els rod.Elements) []dom.Node {
	nodes := make([]dom.Node, 0, len(els))
	for _, el := range els {
		nodes = append(nodes, &Node{el: el, page: p})
	}
	return nodes
}

// Node is a dom.Node backed by a rod element.
type Node struct {
	el   *rod.Element
	page *Page
}

func (n *Node) Find(selector string) dom.Node {
	els, err := n.el.Elements(selector)
	if err != nil || els.Empty() {
		return nil
	}
	return &Node{el: els.First(), page: n.page}
}

func (n *Node) FindAll(selector string) []dom.Node {
	els, err := n.el.Elements(selector)
	if err != nil {
		return nil
	}
	return n.page.wrap(els)
}

func (n *Node) Closest(selector string) dom.Node {
	el, err := n.el.ElementByJS(rod.Eval(`(s) => this.closest(s)`, selector))
	if err != nil {
		return nil
	}
	return &Node{el: el, page: n.page}
}

func (n *Node) Parent() dom.Node {
	el, err := n.el.Parent()
	if err != nil {
		return nil
	}
	return &Node{el: el, page: n.page}
}

func (n *Node) Text() string {
	text, err := n.el.Text()
	if err != nil {
		return ""
	}
	return text
}

func (n *Node) Attr(name string) string {
	v, err := n.el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

func (n *Node) Tag() string {
	res, err := n.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (n *Node) Click(ctx context.Context) error {
	return n.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Fill replaces the element's content with text, typing it like a user.
func (n *Node) Fill(ctx context.Context, text string) error {
	el := n.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		n.page.logger.Debug("select all failed", "error", err)
	}
	return el.Input(text)
}
