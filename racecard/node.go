// Package racecard resolves race detail addresses and extracts per-runner
// fields from racecard pages.
package racecard

import (
	"strings"

	"golang.org/x/net/html"
)

// Node is the capability surface the locator and extractor need from a
// markup tree: parent links, class attributes, and flattened text.
type Node interface {
	Parent() Node
	ClassNames() []string
	FlattenedText() string
}

type htmlNode struct {
	n *html.Node
}

func newHTMLNode(n *html.Node) Node {
	return htmlNode{n: n}
}

func (h htmlNode) Parent() Node {
	if h.n.Parent == nil {
		return nil
	}
	return htmlNode{n: h.n.Parent}
}

func (h htmlNode) ClassNames() []string {
	if h.n.Type != html.ElementNode {
		return nil
	}
	for _, attr := range h.n.Attr {
		if attr.Key == "class" {
			return strings.Fields(attr.Val)
		}
	}
	return nil
}

// FlattenedText joins the subtree's trimmed text nodes with a "|"
// separator. The extractor's patterns anchor on those separators.
func (h htmlNode) FlattenedText() string {
	var parts []string
	collectText(h.n, &parts)
	return strings.Join(parts, "|")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "meta", "link":
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}
