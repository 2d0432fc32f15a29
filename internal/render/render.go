// Package render turns Marp markdown into PDF with the Marp CLI.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrRendererMissing is returned when the Marp binary cannot be found.
var ErrRendererMissing = errors.New("marp renderer not found")

// Renderer shells out to the Marp CLI.
type Renderer struct {
	bin    string
	verify bool
	log    *slog.Logger
}

// New returns a Renderer using bin. With verify set, the produced file must parse
// as a PDF with at least one page.
func New(bin string, verify bool, log *slog.Logger) *Renderer {
	return &Renderer{bin: bin, verify: verify, log: log}
}

// PDF renders the markdown file at src and returns the PDF bytes. The temporary
// output file is removed after it has been read.
func (r *Renderer) PDF(ctx context.Context, src string) ([]byte, error) {
	bin, err := exec.LookPath(r.bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRendererMissing, r.bin)
	}

	dir, err := os.MkdirTemp("", "deckforge-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "slide.pdf")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, src, "--pdf", "--allow-local-files", "-o", out)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("marp: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read rendered pdf: %w", err)
	}
	if err := os.Remove(out); err != nil {
		r.log.Warn("remove rendered pdf", "path", out, "error", err)
	}

	if r.verify {
		pages, err := PageCount(data)
		if err != nil {
			return nil, fmt.Errorf("verify rendered pdf: %w", err)
		}
		r.log.Info("rendered pdf", "bytes", len(data), "pages", pages)
	}
	return data, nil
}

// PageCount parses data as a PDF and returns its page count.
func PageCount(data []byte) (n int, err error) {
	defer func() {
		// The parser panics on some malformed input.
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	n = reader.NumPage()
	if n == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return n, nil
}
