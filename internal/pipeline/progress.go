package pipeline

import (
	"fmt"
	"sync"
)

// Observers match these substrings to follow a run; keep them verbatim.
const (
	SignalSlidesRead = "Slides read successfully"
	SignalBestIdea   = "Best business idea:"
	SignalComplete   = "Processing complete."
	ErrorPrefix      = "Error: "
)

// ProgressSink receives human-readable status lines in order.
type ProgressSink interface {
	Emit(line string)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(line string)

func (f SinkFunc) Emit(line string) { f(line) }

// Stream is the transport of one run: progress lines, then the final deck text,
// then Close. Close is called exactly once per run.
type Stream interface {
	ProgressSink
	Deliver(text string)
	Close()
}

// lockedSink serializes Emit calls from concurrent goroutines.
type lockedSink struct {
	mu   sync.Mutex
	next ProgressSink
}

func (s *lockedSink) Emit(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next.Emit(line)
}

func syncSink(s ProgressSink) ProgressSink {
	if _, ok := s.(*lockedSink); ok {
		return s
	}
	return &lockedSink{next: s}
}

func emitf(s ProgressSink, format string, args ...any) {
	s.Emit(fmt.Sprintf(format, args...))
}
