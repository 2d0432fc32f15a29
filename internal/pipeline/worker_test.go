package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/deckforge/internal/config"
	"github.com/dgallion1/deckforge/internal/llm"
)

func TestWorker_Success(t *testing.T) {
	f := &fakeLLM{}
	w := NewWorker(newTestPipeline(f, newMemArtifacts()), testLogger())
	stream := &countingStream{}
	run := NewRun("focus on SaaS pivots", testImages(3), stream)

	w.Process(context.Background(), run)

	if stream.closes != 1 {
		t.Errorf("expected exactly one close, got %d", stream.closes)
	}
	if len(stream.delivered) != 1 {
		t.Fatalf("expected one delivered deck, got %d", len(stream.delivered))
	}
	deck := stream.delivered[0]
	if n := strings.Count(deck, "\n---\n"); n < 11 {
		t.Errorf("expected at least 11 separators, got %d", n)
	}

	lines := stream.Lines()
	if lines[len(lines)-1] != SignalComplete {
		t.Errorf("expected %q last, got %q", SignalComplete, lines[len(lines)-1])
	}
	order := []string{"Company: Acme", SignalSlidesRead, SignalBestIdea, "Refined Growth Strategy", "Marp text created successfully", SignalComplete}
	pos := 0
	for _, l := range lines {
		if pos < len(order) && strings.Contains(l, order[pos]) {
			pos++
		}
	}
	if pos != len(order) {
		t.Errorf("expected signals in order %q, got lines %q", order, lines)
	}
	if run.Snapshot().State != StateDone {
		t.Errorf("expected done, got %q", run.Snapshot().State)
	}
}

func TestWorker_HeadOnlyDeck(t *testing.T) {
	f := &fakeLLM{}
	arts := newMemArtifacts()
	w := NewWorker(newTestPipeline(f, arts), testLogger())
	stream := &countingStream{}
	run := NewRun("", testImages(1), stream)

	w.Process(context.Background(), run)

	if run.Snapshot().State != StateDone {
		t.Fatalf("expected done, got %q (%s)", run.Snapshot().State, run.Snapshot().Reason)
	}
	if got := arts.corpus[run.ID]; got != "Company Name: Acme\nDescription: Robotics\n" {
		t.Errorf("expected head-only corpus, got %q", got)
	}
	if !stream.Contains(SignalSlidesRead) {
		t.Error("expected slides read signal")
	}
}

func TestWorker_BodyFailureStopsRun(t *testing.T) {
	f := &fakeLLM{failSlide: 2}
	arts := newMemArtifacts()
	w := NewWorker(newTestPipeline(f, arts), testLogger())
	stream := &countingStream{}
	run := NewRun("", testImages(4), stream)

	w.Process(context.Background(), run)

	snap := run.Snapshot()
	if snap.State != StateFailed || snap.FailedStage != StageBody {
		t.Errorf("expected failed at body, got %q at %q", snap.State, snap.FailedStage)
	}
	if !stream.Contains("slide 2") {
		t.Errorf("expected a line naming slide 2, got %q", stream.Lines())
	}
	if stream.Contains(SignalSlidesRead) {
		t.Error("expected no slides read signal")
	}
	if len(arts.corpus) != 0 {
		t.Error("expected no corpus to be built")
	}
	lines := stream.Lines()
	if !strings.HasPrefix(lines[len(lines)-1], ErrorPrefix) {
		t.Errorf("expected error line last, got %q", lines[len(lines)-1])
	}
	if len(stream.delivered) != 0 {
		t.Error("expected nothing delivered")
	}
}

func TestWorker_ClosesOnceOnEveryPath(t *testing.T) {
	cases := []struct {
		name  string
		fake  *fakeLLM
		stage Stage
	}{
		{"success", &fakeLLM{}, ""},
		{"head", &fakeLLM{failHead: true}, StageHead},
		{"body", &fakeLLM{failSlide: 3}, StageBody},
		{"ideas", &fakeLLM{failIdeas: true}, StageIdeas},
		{"refine", &fakeLLM{failRefine: Taxonomy[0].Name}, StageRefine},
		{"compose", &fakeLLM{emptyFinal: true}, StageCompose},
		{"panic", &fakeLLM{panicOnIdeas: true}, StageIdeas},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWorker(newTestPipeline(tc.fake, nil), testLogger())
			stream := &countingStream{}
			run := NewRun("", testImages(3), stream)

			w.Process(context.Background(), run)

			if stream.closes != 1 {
				t.Errorf("expected exactly one close, got %d", stream.closes)
			}
			snap := run.Snapshot()
			if tc.stage == "" {
				if snap.State != StateDone {
					t.Errorf("expected done, got %q", snap.State)
				}
				return
			}
			if snap.State != StateFailed || snap.FailedStage != tc.stage {
				t.Errorf("expected failure at %q, got %q at %q", tc.stage, snap.State, snap.FailedStage)
			}
			errLines := 0
			for _, l := range stream.Lines() {
				if strings.HasPrefix(l, ErrorPrefix) {
					errLines++
				}
			}
			if errLines != 1 {
				t.Errorf("expected one error line, got %d", errLines)
			}
		})
	}
}

func TestChanStream(t *testing.T) {
	s := NewChanStream(8)
	s.Emit("hello")
	s.Deliver("deck")
	s.Close()
	s.Close()

	var got []string
	for chunk := range s.Chunks() {
		got = append(got, chunk)
	}
	if len(got) != 2 || got[0] != "hello\n" || got[1] != "deck" {
		t.Errorf("expected [hello\\n deck], got %q", got)
	}
}

func TestChanStream_AbandonDropsChunks(t *testing.T) {
	s := NewChanStream(0)
	s.Abandon()

	done := make(chan struct{})
	go func() {
		s.Emit("nobody listening")
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected emit to return after abandon")
	}
}

func testConfig(workers, queue int) config.Config {
	return config.Config{WorkerCount: workers, MaxQueueSize: queue, RunTTL: time.Hour}
}

func TestOrchestrator_RunsToCompletion(t *testing.T) {
	o := NewOrchestrator(testConfig(2, 4), newTestPipeline(&fakeLLM{}, nil), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	stream := NewChanStream(64)
	run := NewRun("", testImages(2), stream)
	if err := o.Submit(run); err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	var last string
	for chunk := range stream.Chunks() {
		last = chunk
	}
	if !strings.Contains(last, "## Table of Contents") {
		t.Errorf("expected deck as last chunk, got %q", last)
	}
	if o.GetRun(run.ID) == nil {
		t.Error("expected run to be registered")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started: nothing drains the queue.
	o := NewOrchestrator(testConfig(1, 1), newTestPipeline(&fakeLLM{}, nil), testLogger())

	first := NewRun("", testImages(1), &countingStream{})
	if err := o.Submit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := NewRun("", testImages(1), &countingStream{})
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if o.GetRun(second.ID) != nil {
		t.Error("expected rejected run not to be registered")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}

	o.Stop()
	stream := first.Stream().(*countingStream)
	if stream.closes != 1 {
		t.Errorf("expected queued run to be closed on stop, got %d", stream.closes)
	}
	if err := o.Submit(NewRun("", testImages(1), &countingStream{})); err != ErrStopped {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

var _ llm.Client = (*fakeLLM)(nil)
