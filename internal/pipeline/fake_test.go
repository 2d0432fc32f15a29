package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/dgallion1/deckforge/internal/llm"
)

var errTransport = errors.New("connection reset")

// fakeLLM answers by schema name and prompt content. Failure knobs select which
// calls come back unusable.
type fakeLLM struct {
	mu    sync.Mutex
	calls []string

	failHead      bool
	failSlide     int // 1-based slide position
	failIdeas     bool
	failRefine    string
	failSlidesFor map[string]error
	emptyFinal    bool
	panicOnIdeas  bool
	foreignBest   bool
	slidesPerCat  int
}

var (
	slidePattern    = regexp.MustCompile(`slide (\d+) out of`)
	categoryPattern = regexp.MustCompile(`category: (.+)\.\n`)
	detailPattern   = regexp.MustCompile(`about \*\*(.+?)\*\*`)
	deckPattern     = regexp.MustCompile(`(?s)<deck>\n(.*)\n</deck>`)
)

func (f *fakeLLM) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeLLM) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeLLM) StructuredComplete(ctx context.Context, p llm.Prompt, s *llm.Schema, out any) error {
	var v any
	switch s.Name {
	case "headResponse":
		f.record("head")
		if f.failHead {
			return fmt.Errorf("%w: no JSON", llm.ErrUnusable)
		}
		v = headResponse{CompanyName: "Acme", Description: "Robotics"}
	case "pageResponse":
		m := slidePattern.FindStringSubmatch(p.Text)
		f.record("page " + m[1])
		if m[1] == fmt.Sprint(f.failSlide) {
			return fmt.Errorf("%w: missing field", llm.ErrUnusable)
		}
		v = SlidePageDescription{
			MainTopic:      "topic of " + p.Images[0].Name,
			Body:           "body",
			VisualElements: []string{"chart", "logo"},
			Summary:        "summary",
		}
	case "BusinessIdeas":
		f.record("ideas")
		if f.panicOnIdeas {
			panic("boom")
		}
		if f.failIdeas {
			return fmt.Errorf("%w: bad json", llm.ErrUnusable)
		}
		ideas := []BusinessIdea{idea("A"), idea("B"), idea("C")}
		best := ideas[1]
		if f.foreignBest {
			best = idea("Z")
		}
		v = IdeaSet{AssetValuation: "strong IP", BusinessIdeas: ideas, BestIdea: best}
	case "MarpSlides":
		cat := detailPattern.FindStringSubmatch(p.Text)[1]
		f.record("slides " + cat)
		if err, ok := f.failSlidesFor[cat]; ok {
			return err
		}
		n := f.slidesPerCat
		if n == 0 {
			n = 1
		}
		var resp slidesResponse
		for i := range n {
			resp.Slides = append(resp.Slides, SlideFragment{
				Title:   fmt.Sprintf("%s %d", cat, i+1),
				Content: "- point for " + cat,
			})
		}
		v = resp
	default:
		return fmt.Errorf("unexpected schema %q", s.Name)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeLLM) FreeTextComplete(ctx context.Context, p llm.Prompt) (string, error) {
	if m := deckPattern.FindStringSubmatch(p.Text); m != nil {
		f.record("final")
		if f.emptyFinal {
			return "", fmt.Errorf("%w: empty completion", llm.ErrUnusable)
		}
		return m[1], nil
	}
	cat := categoryPattern.FindStringSubmatch(p.Text)[1]
	f.record("refine " + cat)
	if cat == f.failRefine {
		return "   ", nil
	}
	return "Detailed answer for " + cat, nil
}

func idea(name string) BusinessIdea {
	return BusinessIdea{
		MainIdea:      "Idea " + name,
		Strengths:     "s" + name,
		Weaknesses:    "w" + name,
		Opportunities: "o" + name,
		Threats:       "t" + name,
	}
}

// recordingSink keeps every emitted line.
type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Emit(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *recordingSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *recordingSink) Contains(sub string) bool {
	for _, l := range s.Lines() {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

// countingStream is a Stream that counts Close calls.
type countingStream struct {
	recordingSink
	delivered []string
	closes    int
}

func (s *countingStream) Deliver(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, text)
}

func (s *countingStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

// memArtifacts records writes in memory.
type memArtifacts struct {
	mu       sync.Mutex
	corpus   map[string]string
	decks    map[string]string
	failDeck error
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{corpus: map[string]string{}, decks: map[string]string{}}
}

func (m *memArtifacts) WriteCorpus(runID, corpus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corpus[runID] = corpus
	return nil
}

func (m *memArtifacts) WriteDeck(runID, markdown string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDeck != nil {
		return m.failDeck
	}
	m.decks[runID] = markdown
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testImages(n int) []llm.Image {
	images := make([]llm.Image, n)
	for i := range images {
		images[i] = llm.NewImage(fmt.Sprintf("slide-%d.png", i+1), []byte{0x89, 'P', 'N', 'G', byte(i)}, "image/png")
	}
	return images
}

func newTestPipeline(f *fakeLLM, a ArtifactWriter) *Pipeline {
	return New(f, a, LocaleFor("en"), testLogger())
}
