// Package dom is the page surface the automation engine works against. Live
// pages are driven through the browser package; StaticPage serves parsed HTML.
package dom

import "context"

// Node is a single element. Query methods return nil when nothing matches.
type Node interface {
	Find(selector string) Node
	FindAll(selector string) []Node
	Closest(selector string) Node
	Parent() Node
	Text() string
	Attr(name string) string
	Tag() string
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
}

// Page is the document currently loaded in a tab.
type Page interface {
	URL() string
	Find(selector string) Node
	FindAll(selector string) []Node
	Navigate(ctx context.Context, url string) error
}

// Has reports whether the page has at least one match for selector.
func Has(p Page, selector string) bool {
	return p.Find(selector) != nil
}

// FirstOf returns the first match among selectors, tried in order.
func FirstOf(find func(string) Node, selectors ...string) Node {
	for _, sel := range selectors {
		if n := find(sel); n != nil {
			return n
		}
	}
	return nil
}
