// Package marp reads Marp markdown decks: front matter, slide boundaries and titles.
package marp

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Slide is one page of a deck.
type Slide struct {
	Index    int    // 1-based
	Title    string // text of the first heading, if any
	Markdown string
}

// Outline is the parsed structure of a deck.
type Outline struct {
	FrontMatter string
	Slides      []Slide
}

// Titles returns the non-empty slide titles in order.
func (o Outline) Titles() []string {
	titles := make([]string, 0, len(o.Slides))
	for _, s := range o.Slides {
		if s.Title != "" {
			titles = append(titles, s.Title)
		}
	}
	return titles
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// SplitFrontMatter separates a leading "---" delimited block from the body.
// Without one, front is empty and body is src.
func SplitFrontMatter(src string) (front, body string) {
	s := strings.TrimPrefix(src, "\ufeff")
	if !strings.HasPrefix(s, "---\n") && !strings.HasPrefix(s, "---\r\n") {
		return "", src
	}
	rest := s[strings.Index(s, "\n")+1:]
	for off := 0; off <= len(rest); {
		end := strings.IndexByte(rest[off:], '\n')
		line := rest[off:]
		if end >= 0 {
			line = rest[off : off+end]
		}
		if strings.TrimRight(line, "\r") == "---" {
			front = rest[:off]
			if end < 0 {
				return front, ""
			}
			return front, rest[off+end+1:]
		}
		if end < 0 {
			break
		}
		off += end + 1
	}
	return "", src
}

// Inspect splits a deck into slides. Thematic breaks at the top level separate
// slides; empty slides are skipped.
func Inspect(src string) Outline {
	front, body := SplitFrontMatter(src)
	source := []byte(body)
	doc := md.Parser().Parse(text.NewReader(source))

	out := Outline{FrontMatter: front}
	start := 0
	flush := func(end int) {
		chunk := strings.TrimSpace(string(source[start:end]))
		if chunk == "" {
			return
		}
		out.Slides = append(out.Slides, Slide{
			Index:    len(out.Slides) + 1,
			Title:    firstHeading(chunk),
			Markdown: chunk,
		})
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if _, ok := n.(*ast.ThematicBreak); !ok {
			continue
		}
		from, to := breakSpan(n, source, start)
		flush(from)
		start = to
	}
	flush(len(source))
	return out
}

// breakSpan returns the byte range of the line holding a thematic break. goldmark
// does not record segments for thematic breaks, so the search starts after the
// previous sibling or the previous break, whichever is later.
func breakSpan(n ast.Node, source []byte, after int) (int, int) {
	from := after
	if prev := n.PreviousSibling(); prev != nil {
		from = max(from, blockEnd(prev))
	}
	i := from
	for i < len(source) {
		end := bytes.IndexByte(source[i:], '\n')
		line := source[i:]
		if end >= 0 {
			line = source[i : i+end]
		}
		if isBreakLine(line) {
			if end < 0 {
				return i, len(source)
			}
			return i, i + end + 1
		}
		if end < 0 {
			break
		}
		i += end + 1
	}
	return from, from
}

func isBreakLine(line []byte) bool {
	trimmed := strings.TrimSpace(string(line))
	if len(trimmed) < 3 {
		return false
	}
	c := trimmed[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	for _, r := range trimmed {
		if byte(r) != c && r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

// blockEnd returns the offset just past the last line of a block node.
func blockEnd(n ast.Node) int {
	end := 0
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			if lines.Len() > 0 {
				if stop := lines.At(lines.Len() - 1).Stop; stop > end {
					end = stop
				}
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return end
}

func firstHeading(slide string) string {
	source := []byte(slide)
	doc := md.Parser().Parse(text.NewReader(source))
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title = inlineText(h, source)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, source))
		}
	}
	return strings.TrimSpace(buf.String())
}

// RenderHTML renders slide markdown to an HTML fragment.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
