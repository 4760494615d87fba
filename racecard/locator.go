package racecard

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxAscent bounds the climb from a runner's name anchor to its
// container. The racecard markup is deeply nested; climbing past the
// bound risks landing on an ancestor that spans several runners.
const maxAscent = 8

// Class markers that identify a single runner's container across the two
// page layouts the site serves.
var runnerContainerMarkers = []string{
	"Runner__StyledRunnerContainer",
	"hr-racing-runner-wrapper",
}

// Locate finds the smallest subtree describing horseName. An anchor whose
// text equals the name case-insensitively is preferred; containment is
// the fallback. Returns false when no anchor matches or no recognised
// container appears within the ascent bound.
func Locate(doc *goquery.Document, horseName string) (Node, bool) {
	anchor := findHorseAnchor(doc, horseName)
	if anchor == nil {
		return nil, false
	}
	return ascend(newHTMLNode(anchor))
}

func findHorseAnchor(doc *goquery.Document, horseName string) *html.Node {
	lower := strings.ToLower(horseName)
	var exact, partial *html.Node

	doc.Find("a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" || len(s.Nodes) == 0 {
			return true
		}
		if strings.EqualFold(text, horseName) {
			exact = s.Nodes[0]
			return false
		}
		if partial == nil && strings.Contains(strings.ToLower(text), lower) {
			partial = s.Nodes[0]
		}
		return true
	})

	if exact != nil {
		return exact
	}
	return partial
}

func ascend(start Node) (Node, bool) {
	node := start
	for i := 0; i < maxAscent; i++ {
		node = node.Parent()
		if node == nil {
			return nil, false
		}
		if hasRunnerMarker(node.ClassNames()) {
			return node, true
		}
	}
	return nil, false
}

func hasRunnerMarker(classes []string) bool {
	for _, class := range classes {
		for _, marker := range runnerContainerMarkers {
			if strings.Contains(class, marker) {
				return true
			}
		}
	}
	return false
}
