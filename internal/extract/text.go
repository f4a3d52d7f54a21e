package extract

import (
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
)

// PlainText converts a search snippet to plain text.
// Markup is stripped (script/style content dropped), entities are decoded
// and runs of whitespace collapse to a single space.
func PlainText(snippet string) string {
	if !strings.ContainsAny(snippet, "<&") {
		return collapseSpace(snippet)
	}

	if !strings.Contains(snippet, "<") {
		return collapseSpace(html.UnescapeString(snippet))
	}

	doc, err := nethtml.Parse(strings.NewReader(snippet))
	if err != nil {
		return collapseSpace(html.UnescapeString(snippet))
	}
	return collapseSpace(visibleText(doc))
}

// visibleText extracts text nodes, skipping scripts and styles
func visibleText(n *nethtml.Node) string {
	var buf strings.Builder

	var walk func(*nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				buf.WriteString(" ")
			}
		}

		if n.Type == nethtml.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
