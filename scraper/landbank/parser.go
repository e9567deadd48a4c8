package landbank

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// listingColumns is the fixed cell count of one listing row: case number,
// address, sale date, round, floor price, area (ping), delivery note.
const listingColumns = 7

// headerLabels are strings that only ever appear in header or decoration
// rows. Any row containing one is not a listing.
var headerLabels = []string{"標售案號", "不動產座落", "查詢結果", "注意事項"}

// ParseListingTable extracts listing rows from the decoded page markup.
func ParseListingTable(page string) ([][]string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("listing page parse: %w", err)
	}

	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := cellTexts(n)
			if len(cells) == listingColumns && !isDecorationRow(cells) {
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

func isDecorationRow(cells []string) bool {
	for _, cell := range cells {
		for _, label := range headerLabels {
			if strings.Contains(cell, label) {
				return true
			}
		}
	}
	return false
}
