package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/deckforge/internal/llm"
)

// State is a point in the life of one run.
type State string

const (
	StateIdle           State = "idle"
	StateHeadExtracted  State = "head_extracted"
	StateBodyExtracted  State = "body_extracted"
	StateIdeasGenerated State = "ideas_generated"
	StateIdeaRefined    State = "idea_refined"
	StateDeckComposed   State = "deck_composed"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

var nextState = map[State]State{
	StateIdle:           StateHeadExtracted,
	StateHeadExtracted:  StateBodyExtracted,
	StateBodyExtracted:  StateIdeasGenerated,
	StateIdeasGenerated: StateIdeaRefined,
	StateIdeaRefined:    StateDeckComposed,
	StateDeckComposed:   StateDone,
}

// pendingStage is the stage that runs while in the given state.
var pendingStage = map[State]Stage{
	StateIdle:           StageHead,
	StateHeadExtracted:  StageBody,
	StateBodyExtracted:  StageIdeas,
	StateIdeasGenerated: StageRefine,
	StateIdeaRefined:    StageCompose,
	StateDeckComposed:   StagePersist,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Run tracks one deck generation from submission to Done or Failed.
type Run struct {
	mu sync.Mutex

	ID         string `json:"run_id"`
	Condition  string `json:"condition"`
	SlideCount int    `json:"slide_count"`

	State       State  `json:"state"`
	FailedStage Stage  `json:"failed_stage,omitempty"`
	Reason      string `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	images []llm.Image
	stream Stream
}

// NewRun creates an idle run. stream receives its progress and result.
func NewRun(condition string, images []llm.Image, stream Stream) *Run {
	now := time.Now()
	return &Run{
		ID:         uuid.NewString(),
		Condition:  condition,
		SlideCount: len(images),
		State:      StateIdle,
		CreatedAt:  now,
		UpdatedAt:  now,
		images:     images,
		stream:     stream,
	}
}

// Images returns the slide images in upload order.
func (r *Run) Images() []llm.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images
}

// Stream returns the transport the run reports to.
func (r *Run) Stream() Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream
}

// Advance moves the run to next. Only the immediate successor of the current
// state is accepted; anything else leaves the run unchanged and returns false.
func (r *Run) Advance(next State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if nextState[r.State] != next {
		return false
	}
	r.State = next
	r.UpdatedAt = time.Now()
	if next == StateDone {
		r.images = nil
	}
	return true
}

// Fail moves the run to Failed. A terminal run is left unchanged. An empty stage
// is attributed to whatever stage was running.
func (r *Run) Fail(stage Stage, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State.Terminal() {
		return
	}
	if stage == "" {
		stage = pendingStage[r.State]
	}
	r.State = StateFailed
	r.FailedStage = stage
	r.Reason = reason
	r.UpdatedAt = time.Now()
	r.images = nil
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID          string    `json:"run_id"`
	Condition   string    `json:"condition"`
	SlideCount  int       `json:"slide_count"`
	State       State     `json:"state"`
	FailedStage Stage     `json:"failed_stage,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunSnapshot{
		ID:          r.ID,
		Condition:   r.Condition,
		SlideCount:  r.SlideCount,
		State:       r.State,
		FailedStage: r.FailedStage,
		Reason:      r.Reason,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Len returns the number of tracked runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes finished runs that have not changed within the TTL.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		snap := run.Snapshot()
		if snap.State.Terminal() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.runs, id)
		}
	}
}
