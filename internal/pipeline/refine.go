package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/deckforge/internal/llm"
)

func refineInstruction(idea BusinessIdea, assetValuation string, c Category) string {
	topics := make([]string, len(c.Topics))
	for i, t := range c.Topics {
		topics[i] = fmt.Sprintf("%d. %s", i+1, t)
	}
	return fmt.Sprintf(`We are currently analyzing a **fixed business idea**:
Main Idea: %s
Strengths: %s
Weaknesses: %s
Opportunities: %s
Threats: %s

The business idea is based on the following asset valuation:
%s

In this category, we will focus on the following topics:
%s


You are working for top business consultant firm.
Please provide detailed answers and insights for each topic in the category: %s.
Answers must be detailed and specific to the business idea.
Detailed and specific answers may include numerical data, examples, and explanations.
`, idea.MainIdea, idea.Strengths, idea.Weaknesses, idea.Opportunities, idea.Threats,
		assetValuation, strings.Join(topics, "\n"), c.Name)
}

// RefineIdea expands the idea across every Taxonomy category, in order, one request
// per category. The first empty or failed answer aborts the stage.
func (p *Pipeline) RefineIdea(ctx context.Context, idea BusinessIdea, assetValuation string, sink ProgressSink) ([]TopicCategoryAnswer, error) {
	sink.Emit("Refining business idea...")

	answers := make([]TopicCategoryAnswer, 0, len(Taxonomy))
	for _, c := range Taxonomy {
		emitf(sink, "Refining %s...", c.Name)

		text, err := p.llm.FreeTextComplete(ctx, llm.Prompt{Text: refineInstruction(idea, assetValuation, c)})
		if err == nil && strings.TrimSpace(text) == "" {
			err = llm.ErrUnusable
		}
		if err != nil {
			emitf(sink, "Failed to refine %s", c.Name)
			se := stageErr(StageRefine, ErrRefinement, "failed to refine the idea", err)
			se.Category = c.Name
			return nil, se
		}

		answers = append(answers, TopicCategoryAnswer{Category: c.Name, Answer: text})
		emitf(sink, "Refined %s successfully", c.Name)
	}
	return answers, nil
}
