// Package scanner selects the parts of a parsed HTML document that are
// safe to substitute into.
//
// The scanner walks the document tree and yields, in document order,
// every text node whose content is non-blank and that has no blocked
// ancestor element. The document head is skipped entirely. Blocked elements are interactive targets, verbatim
// or code content, headings, and elements this mechanism itself
// produces; nothing inside them is ever altered. Matching on text nodes
// (rather than serialized markup) is what keeps pre-existing anchors
// and code spans structurally out of reach of the substitution
// patterns.
package scanner

import (
	"strings"

	"golang.org/x/net/html"
)

// DefaultBlockedTags lists the elements whose contents must never be
// substituted into.
func DefaultBlockedTags() []string {
	return []string{
		"a", "script", "style", "code", "pre", "textarea",
		"acronym", "abbr", "option",
		"h1", "h2", "h3", "h4", "h5", "h6",
	}
}

// Scanner selects eligible text nodes from a parsed document.
type Scanner struct {
	blocked map[string]struct{}
}

// New creates a scanner with the given blocked tags. An empty list
// falls back to the default set.
func New(blockedTags []string) *Scanner {
	if len(blockedTags) == 0 {
		blockedTags = DefaultBlockedTags()
	}

	blocked := make(map[string]struct{}, len(blockedTags))
	for _, tag := range blockedTags {
		blocked[strings.ToLower(tag)] = struct{}{}
	}

	return &Scanner{blocked: blocked}
}

// Blocked reports whether a tag is in the blocked set.
func (s *Scanner) Blocked(tag string) bool {
	_, ok := s.blocked[strings.ToLower(tag)]
	return ok
}

// Eligible returns the document's substitutable text nodes in document
// order. Subtrees rooted at blocked elements are not descended into, so
// no returned node has a blocked ancestor.
func (s *Scanner) Eligible(doc *html.Node) []*html.Node {
	var nodes []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			// The document head is metadata, not content; titles and
			// meta text are never substitution targets.
			if n.Data == "head" {
				return
			}
			if s.Blocked(n.Data) {
				return
			}
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				nodes = append(nodes, n)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return nodes
}
