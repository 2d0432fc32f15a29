package pipeline

import (
	"fmt"
	"strings"
)

// SlideHead identifies the company behind the deck, read from slide 1.
type SlideHead struct {
	CompanyName string
	Topic       string
}

// SlidePageDescription is the structured reading of one body slide.
type SlidePageDescription struct {
	MainTopic      string   `json:"main_topic"`
	Body           string   `json:"body"`
	VisualElements []string `json:"visual_elements"`
	Summary        string   `json:"summary"`
}

// SlideCorpus is the textual evidence passed to idea generation.
type SlideCorpus string

// BuildCorpus flattens the head and body descriptions, keeping slide order.
// pages[i] describes slide i+2.
func BuildCorpus(head SlideHead, pages []SlidePageDescription) SlideCorpus {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company Name: %s\nDescription: %s\n", head.CompanyName, head.Topic)
	total := len(pages) + 1
	for i, page := range pages {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "Slide %d/%d\n", i+2, total)
		fmt.Fprintf(&sb, "Main Topic: %s\n", page.MainTopic)
		fmt.Fprintf(&sb, "Body: %s\n", page.Body)
		fmt.Fprintf(&sb, "Visual Elements: %s\n", strings.Join(page.VisualElements, ", "))
		fmt.Fprintf(&sb, "Summary: %s\n", page.Summary)
	}
	return SlideCorpus(sb.String())
}

// BusinessIdea is a SWOT-annotated idea.
type BusinessIdea struct {
	MainIdea      string `json:"main_idea"`
	Strengths     string `json:"strengths"`
	Weaknesses    string `json:"weaknesses"`
	Opportunities string `json:"opportunities"`
	Threats       string `json:"threats"`
}

func (b BusinessIdea) equal(o BusinessIdea) bool {
	norm := strings.TrimSpace
	return norm(b.MainIdea) == norm(o.MainIdea) &&
		norm(b.Strengths) == norm(o.Strengths) &&
		norm(b.Weaknesses) == norm(o.Weaknesses) &&
		norm(b.Opportunities) == norm(o.Opportunities) &&
		norm(b.Threats) == norm(o.Threats)
}

// IdeaSet is the output of idea generation.
type IdeaSet struct {
	AssetValuation string         `json:"assetValuation"`
	BusinessIdeas  []BusinessIdea `json:"businessIdeas"`
	BestIdea       BusinessIdea   `json:"bestIdea"`
}

// BestIsMember reports whether BestIdea structurally equals one of BusinessIdeas.
func (s IdeaSet) BestIsMember() bool {
	for _, idea := range s.BusinessIdeas {
		if idea.equal(s.BestIdea) {
			return true
		}
	}
	return false
}

// TopicCategoryAnswer is the refined prose for one taxonomy category.
type TopicCategoryAnswer struct {
	Category string
	Answer   string
}

// SlideFragment is one rendered slide.
type SlideFragment struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FragmentGroup holds the fragments generated for one category.
type FragmentGroup struct {
	Category  string
	Fragments []SlideFragment
}

// Markdown joins the group's fragments into one slide body.
func (g FragmentGroup) Markdown() string {
	parts := make([]string, 0, len(g.Fragments))
	for _, f := range g.Fragments {
		parts = append(parts, fmt.Sprintf("# %s\n%s", f.Title, f.Content))
	}
	return strings.Join(parts, "\n\n")
}

// Deck is the draft before the final normalization pass. TOC[i] names Groups[i].
type Deck struct {
	Header     string
	TOCHeading string
	TOC        []string
	Groups     []FragmentGroup
}

// SlideSeparator separates slide groups in Marp markdown.
const SlideSeparator = "\n\n---\n\n"

// Markdown renders the draft deck.
func (d Deck) Markdown() string {
	var sb strings.Builder
	sb.WriteString(d.Header)
	sb.WriteString("\n## ")
	sb.WriteString(d.TOCHeading)
	sb.WriteString("\n")
	for i, entry := range d.TOC {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, entry)
	}

	bodies := make([]string, 0, len(d.Groups))
	for _, g := range d.Groups {
		bodies = append(bodies, g.Markdown())
	}
	if len(bodies) > 0 {
		sb.WriteString(SlideSeparator)
		sb.WriteString(strings.Join(bodies, SlideSeparator))
		sb.WriteString("\n")
	}
	return sb.String()
}
