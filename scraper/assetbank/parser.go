package assetbank

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// resultColumns is the fixed cell count of one listing row in the rendered
// result table: case number, address, sale date, floor price, area, delivery.
const resultColumns = 6

// ExtractHiddenInputs walks the page markup and collects every
// <input type="hidden" name=... value=...> pair. The anti-forgery tokens the
// query POST must replay all travel as hidden inputs.
func ExtractHiddenInputs(page string) map[string]string {
	tokens := make(map[string]string)

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return tokens
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" {
			var typ, name, value string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "type":
					typ = attr.Val
				case "name":
					name = attr.Val
				case "value":
					value = attr.Val
				}
			}
			if typ == "hidden" && name != "" {
				tokens[name] = value
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tokens
}

// ParseResultTable extracts listing rows from the rendered result page.
// Rows are identified by shape (exactly resultColumns cells) rather than by
// class or id, since the markup offers no stable hooks; the header row is
// skipped by its known label content.
func ParseResultTable(page string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("result page parse: %w", err)
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := cellTexts(n)
			if len(cells) == resultColumns && !isHeaderRow(cells) {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return rows, nil
}

func cellTexts(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, strings.TrimSpace(nodeText(c)))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func isHeaderRow(cells []string) bool {
	for _, c := range cells {
		if strings.Contains(c, "案號") || strings.Contains(c, "標的") {
			return true
		}
	}
	return false
}
