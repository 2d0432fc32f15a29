// Package artifact persists run outputs under the upload directory.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	corpusFile = "text.txt"
	deckFile   = "marp.md"
	runsDir    = "runs"
)

var (
	ErrNotFound  = errors.New("artifact not found")
	ErrInvalidID = errors.New("invalid run id")
)

// Store keeps the latest corpus and deck in dir, plus a copy of every deck keyed by
// run ID.
type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, runsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// WriteCorpus stores the slide text of a run as the latest text.txt.
func (s *Store) WriteCorpus(runID, corpus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(filepath.Join(s.dir, corpusFile), corpus)
}

// WriteDeck stores the final deck as the latest marp.md and under runs/.
func (s *Store) WriteDeck(runID, markdown string) error {
	if _, err := uuid.Parse(runID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFile(filepath.Join(s.dir, runsDir, runID+".md"), markdown); err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, deckFile), markdown)
}

// DeckPath returns the path of a run's deck, or of the latest deck when runID is
// empty.
func (s *Store) DeckPath(runID string) (string, error) {
	path := filepath.Join(s.dir, deckFile)
	if runID != "" {
		if _, err := uuid.Parse(runID); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidID, runID)
		}
		path = filepath.Join(s.dir, runsDir, runID+".md")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// ReadDeck returns the deck text for runID, or the latest deck when runID is empty.
func (s *Store) ReadDeck(runID string) (string, error) {
	path, err := s.DeckPath(runID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read deck: %w", err)
	}
	return string(data), nil
}

// writeFile replaces path atomically.
func writeFile(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
