// Package export converts Marp decks to office documents.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"

	"github.com/dgallion1/deckforge/internal/marp"
)

// Heading sizes in half-points, indexed by level.
var headingSize = map[int]string{1: "36", 2: "32", 3: "28", 4: "26", 5: "24", 6: "24"}

// WriteDOCX writes deck as a Word document, one page per slide. Front matter is
// dropped; headings, paragraphs, list items, table cells and code keep their text.
func WriteDOCX(w io.Writer, deck string) error {
	outline := marp.Inspect(deck)
	doc := docx.New().WithDefaultTheme()

	for i, slide := range outline.Slides {
		rendered, err := marp.RenderHTML(slide.Markdown)
		if err != nil {
			return fmt.Errorf("render slide %d: %w", slide.Index, err)
		}
		root, err := html.Parse(strings.NewReader(rendered))
		if err != nil {
			return fmt.Errorf("parse slide %d: %w", slide.Index, err)
		}
		if body := findBody(root); body != nil {
			root = body
		}
		writeBlocks(doc, root)
		if i < len(outline.Slides)-1 {
			doc.AddParagraph().AddPageBreaks()
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func writeBlocks(doc *docx.Docx, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if level := headingLevel(c.Data); level > 0 {
			if t := textContent(c); t != "" {
				doc.AddParagraph().AddText(t).Size(headingSize[level]).Bold()
			}
			continue
		}
		switch c.Data {
		case "p", "blockquote":
			if t := textContent(c); t != "" {
				doc.AddParagraph().AddText(t)
			}
		case "pre":
			for _, line := range strings.Split(strings.TrimRight(collectText(c), "\n"), "\n") {
				doc.AddParagraph().AddText(line).Size("20")
			}
		case "ul", "ol":
			writeList(doc, c, 0)
		case "table":
			writeTable(doc, c)
		case "hr":
		default:
			writeBlocks(doc, c)
		}
	}
}

func writeList(doc *docx.Docx, list *html.Node, depth int) {
	ordered := list.Data == "ol"
	n := 0
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		n++
		marker := "•"
		if ordered {
			marker = fmt.Sprintf("%d.", n)
		}
		var nested []*html.Node
		var own strings.Builder
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				nested = append(nested, c)
				continue
			}
			own.WriteString(collectText(c))
		}
		text := strings.Join(strings.Fields(own.String()), " ")
		doc.AddParagraph().AddText(strings.Repeat("    ", depth) + marker + " " + text)
		for _, sub := range nested {
			writeList(doc, sub, depth+1)
		}
	}
}

func writeTable(doc *docx.Docx, table *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textContent(c))
				}
			}
			doc.AddParagraph().AddText(strings.Join(cells, " | "))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent returns the whitespace-collapsed text under n.
func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(collectText(n)), " ")
}

func collectText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
