package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Worker executes queued runs one at a time.
type Worker struct {
	pipeline *Pipeline
	log      *slog.Logger
}

func NewWorker(p *Pipeline, log *slog.Logger) *Worker {
	return &Worker{pipeline: p, log: log}
}

// Process runs the pipeline for run and reports to its stream. The stream ends with
// either "Processing complete." plus the deck text or a single "Error: ..." line,
// and is closed exactly once on every path.
func (w *Worker) Process(ctx context.Context, run *Run) {
	log := w.log.With("run_id", run.ID)
	stream := run.Stream()
	defer stream.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Error("run panicked", "panic", r)
			reason := fmt.Sprintf("internal error: %v", r)
			run.Fail("", reason)
			stream.Emit(ErrorPrefix + reason)
		}
	}()

	log.Info("run started", "slides", run.SlideCount)
	deck, err := w.pipeline.Generate(ctx, run, stream)
	if err != nil {
		run.Fail(StageOf(err), err.Error())
		snap := run.Snapshot()
		log.Error("run failed", "stage", snap.FailedStage, "error", err)
		stream.Emit(ErrorPrefix + err.Error())
		return
	}

	stream.Emit(SignalComplete)
	stream.Deliver(deck)
	log.Info("run completed")
}
