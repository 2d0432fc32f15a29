package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageHead    Stage = "head"
	StageBody    Stage = "body"
	StageIdeas   Stage = "ideas"
	StageRefine  Stage = "refine"
	StageCompose Stage = "compose"
	StagePersist Stage = "persist"
)

// Failure kinds. Every stage error wraps exactly one of these.
var (
	ErrExtraction = errors.New("extraction failure")
	ErrIdeation   = errors.New("ideation failure")
	ErrRefinement = errors.New("refinement failure")
	ErrCompose    = errors.New("compose failure")
	ErrPersist    = errors.New("persist failure")
)

// StageError is a terminal pipeline failure attributed to one stage.
type StageError struct {
	Stage    Stage
	Kind     error
	Message  string
	Category string // refine only
	Slide    int    // body only, 1-based slide position
	Err      error
}

func (e *StageError) Error() string {
	msg := e.Message
	if e.Category != "" {
		msg = fmt.Sprintf("%s (category %q)", msg, e.Category)
	}
	if e.Slide > 0 {
		msg = fmt.Sprintf("%s (slide %d)", msg, e.Slide)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageErr(stage Stage, kind error, msg string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: msg, Err: err}
}

// StageOf reports the stage an error is attributed to, or "" if none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
