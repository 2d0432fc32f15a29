package pipeline

import "sync"

// ChanStream is a Stream backed by a channel of text chunks. Progress lines are
// newline-terminated; the delivered deck text is sent as-is.
type ChanStream struct {
	ch        chan string
	gone      chan struct{}
	closeOnce sync.Once
	goneOnce  sync.Once
}

func NewChanStream(buffer int) *ChanStream {
	return &ChanStream{
		ch:   make(chan string, buffer),
		gone: make(chan struct{}),
	}
}

func (s *ChanStream) Emit(line string) { s.send(line + "\n") }

func (s *ChanStream) Deliver(text string) { s.send(text) }

func (s *ChanStream) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Chunks is closed after the last chunk of the run.
func (s *ChanStream) Chunks() <-chan string { return s.ch }

// Abandon tells the stream its reader has gone. Later chunks are dropped and the
// run keeps going.
func (s *ChanStream) Abandon() {
	s.goneOnce.Do(func() { close(s.gone) })
}

func (s *ChanStream) send(chunk string) {
	select {
	case s.ch <- chunk:
	case <-s.gone:
	}
}
