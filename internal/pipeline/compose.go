package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dgallion1/deckforge/internal/llm"
)

// maxFragmentsPerCategory caps what one category may contribute to the deck.
const maxFragmentsPerCategory = 2

func slideInstruction(a TopicCategoryAnswer, idea BusinessIdea, l Locale) string {
	return fmt.Sprintf(`The following is detailed information about **%s** in a business plan.
%s

Based on this content, create one or two slide pages of the business plan for **%s**.
Summarize the information appropriately, in Marp format, written in %s.
Do not lose concrete details such as numbers, names and examples. Avoid vague summaries.`,
		a.Category, a.Answer, idea.MainIdea, l.Language)
}

func finalInstruction(draft string, l Locale) string {
	return fmt.Sprintf(`Rewrite the following Marp business plan so that it works better as a slide deck.

<deck>
%s
</deck>

Output **only** the Marp text, without code blocks. Follow these rules:
1. Keep every concrete detail.
2. Never let text overflow a slide: split lists of four or more bullets, or long text, onto the next page.
3. Write natural %s.
4. Make the table of contents match the slide contents.
`, draft, l.Language)
}

// ComposeDeck turns the refined answers into the final Marp deck.
//
// Slides for each category are generated concurrently. A category whose slides cannot
// be generated is reported on the sink and left out of the deck, along with its table
// of contents entry. The draft is then sent through one normalization pass whose
// output is returned unchanged.
func (p *Pipeline) ComposeDeck(ctx context.Context, idea BusinessIdea, answers []TopicCategoryAnswer, sink ProgressSink) (string, error) {
	sink.Emit("Creating Marp text...")

	groups := p.synthesizeSlides(ctx, idea, answers, sink)
	deck := Deck{
		Header:     p.locale.Header(),
		TOCHeading: p.locale.TOCHeading,
	}
	for _, g := range groups {
		if len(g.Fragments) == 0 {
			continue
		}
		deck.TOC = append(deck.TOC, g.Category)
		deck.Groups = append(deck.Groups, g)
	}
	sink.Emit("Marp text created successfully")

	text, err := p.llm.FreeTextComplete(ctx, llm.Prompt{Text: finalInstruction(deck.Markdown(), p.locale)})
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrUnusable
	}
	if err != nil {
		sink.Emit("Failed to refine Marp text")
		return "", stageErr(StageCompose, ErrCompose, "failed to create Marp text", err)
	}
	return text, nil
}

// synthesizeSlides fans out one request per answer and waits for all of them.
// groups[i] always belongs to answers[i]; failed categories come back empty.
func (p *Pipeline) synthesizeSlides(ctx context.Context, idea BusinessIdea, answers []TopicCategoryAnswer, sink ProgressSink) []FragmentGroup {
	sink = syncSink(sink)
	groups := make([]FragmentGroup, len(answers))

	var wg sync.WaitGroup
	for i, a := range answers {
		groups[i].Category = a.Category
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					emitf(sink, "Error creating slide for %s: %v", a.Category, r)
				}
			}()

			var resp slidesResponse
			err := p.llm.StructuredComplete(ctx, llm.Prompt{Text: slideInstruction(a, idea, p.locale)}, slidesSchema, &resp)
			switch {
			case err != nil && llm.IsUnusable(err):
				emitf(sink, "Failed to create slide for %s", a.Category)
				return
			case err != nil:
				emitf(sink, "Error creating slide for %s: %v", a.Category, err)
				return
			case len(resp.Slides) == 0:
				emitf(sink, "Failed to create slide for %s", a.Category)
				return
			}

			frags := resp.Slides
			if len(frags) > maxFragmentsPerCategory {
				p.log.Debug("truncating slides", "category", a.Category, "got", len(frags))
				frags = frags[:maxFragmentsPerCategory]
			}
			groups[i].Fragments = frags
		}()
	}
	wg.Wait()
	return groups
}
