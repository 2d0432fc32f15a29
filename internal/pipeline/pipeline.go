package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/deckforge/internal/llm"
	"github.com/dgallion1/deckforge/internal/marp"
)

// ArtifactWriter persists the by-products of a run.
type ArtifactWriter interface {
	WriteCorpus(runID, corpus string) error
	WriteDeck(runID, markdown string) error
}

// Pipeline runs the five generation stages against one LLM client.
type Pipeline struct {
	llm       llm.Client
	artifacts ArtifactWriter
	locale    Locale
	log       *slog.Logger
}

// New creates a Pipeline. artifacts may be nil, in which case nothing is written.
func New(client llm.Client, artifacts ArtifactWriter, locale Locale, log *slog.Logger) *Pipeline {
	return &Pipeline{
		llm:       client,
		artifacts: artifacts,
		locale:    locale,
		log:       log,
	}
}

// Generate runs every stage for run in order, advancing its state as each stage
// completes, and returns the final deck text. The first failing stage ends the run.
func (p *Pipeline) Generate(ctx context.Context, run *Run, sink ProgressSink) (string, error) {
	log := p.log.With("run_id", run.ID)
	images := run.Images()

	head, err := p.ExtractHead(ctx, images, sink)
	if err != nil {
		return "", err
	}
	run.Advance(StateHeadExtracted)
	log.Info("slide head extracted", "company", head.CompanyName)

	pages, err := p.ExtractBody(ctx, head, images, sink)
	if err != nil {
		return "", err
	}
	run.Advance(StateBodyExtracted)

	corpus := BuildCorpus(head, pages)
	if p.artifacts != nil {
		if err := p.artifacts.WriteCorpus(run.ID, string(corpus)); err != nil {
			return "", stageErr(StagePersist, ErrPersist, "failed to write slide text", err)
		}
	}
	sink.Emit(SignalSlidesRead)
	log.Info("slides read", "slides", len(images))

	ideas, err := p.GenerateIdeas(ctx, corpus, run.Condition, IdeaCount, sink)
	if err != nil {
		return "", err
	}
	run.Advance(StateIdeasGenerated)

	answers, err := p.RefineIdea(ctx, ideas.BestIdea, ideas.AssetValuation, sink)
	if err != nil {
		return "", err
	}
	run.Advance(StateIdeaRefined)

	deck, err := p.ComposeDeck(ctx, ideas.BestIdea, answers, sink)
	if err != nil {
		return "", err
	}
	run.Advance(StateDeckComposed)

	if p.artifacts != nil {
		if err := p.artifacts.WriteDeck(run.ID, deck); err != nil {
			return "", stageErr(StagePersist, ErrPersist, "failed to write deck", err)
		}
	}

	outline := marp.Inspect(deck)
	log.Info("deck composed", "slides", len(outline.Slides), "titles", outline.Titles())
	run.Advance(StateDone)
	return deck, nil
}
