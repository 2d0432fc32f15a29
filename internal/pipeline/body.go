package pipeline

import (
	"context"
	"fmt"

	"github.com/dgallion1/deckforge/internal/llm"
)

func bodyInstruction(slide, total int, head SlideHead) string {
	return fmt.Sprintf(`This image represents slide %d out of %d from the presentation by %s. The slide focuses on the topic: %s. Please extract and present the following information:
- Main Topic
- Body Text
- Visual Elements
- Summary`, slide, total, head.CompanyName, head.Topic)
}

// ExtractBody describes every slide after the first, one request at a time.
// The result is index-aligned with images[1:]. A single unreadable slide fails the
// whole stage and nothing is returned.
func (p *Pipeline) ExtractBody(ctx context.Context, head SlideHead, images []llm.Image, sink ProgressSink) ([]SlidePageDescription, error) {
	sink.Emit("Reading slide body...")

	total := len(images)
	if total <= 1 {
		return []SlidePageDescription{}, nil
	}

	pages := make([]SlidePageDescription, 0, total-1)
	for i := 1; i < total; i++ {
		slide := i + 1
		emitf(sink, "Processing slide %d/%d...", slide, total)

		var page SlidePageDescription
		prompt := llm.Prompt{Text: bodyInstruction(slide, total, head), Images: images[i : i+1]}
		if err := p.llm.StructuredComplete(ctx, prompt, pageSchema, &page); err != nil {
			emitf(sink, "Failed to parse slide %d", slide)
			se := stageErr(StageBody, ErrExtraction, "failed to read slide body", err)
			se.Slide = slide
			return nil, se
		}
		if page.VisualElements == nil {
			page.VisualElements = []string{}
		}
		pages = append(pages, page)
		emitf(sink, "Slide %d processed.", slide)
	}
	return pages, nil
}
