package pipeline

import (
	"context"

	"github.com/dgallion1/deckforge/internal/llm"
)

const headInstruction = `This image is the first page of the slide deck. Please provide the following information:
- Company Name: Identify the company that created this slide deck.
- Slide Content Description: Offer a brief overview of the main content or focus of the slides.`

// ExtractHead reads the company name and deck topic from the first slide.
func (p *Pipeline) ExtractHead(ctx context.Context, images []llm.Image, sink ProgressSink) (SlideHead, error) {
	if len(images) == 0 {
		return SlideHead{}, stageErr(StageHead, ErrExtraction, "no slide images", nil)
	}
	sink.Emit("Reading slide head...")

	var resp headResponse
	prompt := llm.Prompt{Text: headInstruction, Images: images[:1]}
	if err := p.llm.StructuredComplete(ctx, prompt, headSchema, &resp); err != nil {
		sink.Emit("Failed to parse slide head")
		return SlideHead{}, stageErr(StageHead, ErrExtraction, "failed to read slide head", err)
	}

	emitf(sink, "Company: %s, Description: %s", resp.CompanyName, resp.Description)
	return SlideHead{CompanyName: resp.CompanyName, Topic: resp.Description}, nil
}
