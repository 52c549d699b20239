package engine

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseDocument parses HTML content, handling both full documents and
// fragments. Returns the parsed root, whether the content was a
// fragment, and any error.
func parseDocument(content string) (*html.Node, bool, error) {
	trimmed := strings.TrimSpace(content)

	// Full document: starts with <!DOCTYPE or <html
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	return container, true, nil
}

// renderDocument renders the tree back to a string. Fragments render
// their children directly so no <html><body> wrapper is introduced.
func renderDocument(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// spliceFragment parses markup as a fragment and replaces textNode with
// the parsed nodes, keeping the node's position among its siblings. On
// parse failure the tree is left untouched.
func spliceFragment(textNode *html.Node, markup string) error {
	parent := textNode.Parent

	// ParseFragment needs a context node that is not part of a tree;
	// mirror the parent element, falling back to body at a root.
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	if parent != nil && parent.Type == html.ElementNode {
		context = &html.Node{
			Type:     html.ElementNode,
			DataAtom: parent.DataAtom,
			Data:     parent.Data,
		}
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return err
	}

	for _, n := range nodes {
		parent.InsertBefore(n, textNode)
	}
	parent.RemoveChild(textNode)
	return nil
}
