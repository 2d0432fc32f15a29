package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/deckforge/internal/llm"
)

// IdeaCount is the number of candidate ideas requested per run.
const IdeaCount = 3

func ideasInstruction(corpus SlideCorpus, condition string, n int) string {
	return fmt.Sprintf(`The following is the text of the slides.
%s
Evaluate the assets of this company and come up with new %d business ideas based on that evaluation and the following condition:
%s

Return exactly %d ideas in businessIdeas. bestIdea must be a copy of the strongest entry of businessIdeas.`, corpus, n, condition, n)
}

// GenerateIdeas evaluates the company's assets and proposes n ideas, one of them marked best.
func (p *Pipeline) GenerateIdeas(ctx context.Context, corpus SlideCorpus, condition string, n int, sink ProgressSink) (IdeaSet, error) {
	sink.Emit("Generating business ideas...")

	var set IdeaSet
	prompt := llm.Prompt{Text: ideasInstruction(corpus, condition, n)}
	if err := p.llm.StructuredComplete(ctx, prompt, ideasSchema, &set); err != nil {
		sink.Emit("Failed to generate business ideas")
		return IdeaSet{}, stageErr(StageIdeas, ErrIdeation, "failed to generate business ideas", err)
	}

	if len(set.BusinessIdeas) != n {
		p.log.Warn("unexpected idea count", "requested", n, "got", len(set.BusinessIdeas))
	}
	if !set.BestIsMember() {
		// Accepted as returned.
		p.log.Warn("best idea is not one of the generated ideas", "best_idea", set.BestIdea.MainIdea)
	}

	lines := make([]string, 0, len(set.BusinessIdeas))
	for i, idea := range set.BusinessIdeas {
		lines = append(lines, fmt.Sprintf("Idea %d: %s", i+1, idea.MainIdea))
	}
	sink.Emit("Business ideas generated:\n" + strings.Join(lines, "\n"))
	emitf(sink, "%s %s", SignalBestIdea, set.BestIdea.MainIdea)
	return set, nil
}
