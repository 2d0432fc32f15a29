package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/dgallion1/deckforge/internal/pipeline"
)

var (
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	signalColor  = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgBlue)
)

// stepLine reports whether a progress line marks one finished unit of work.
func stepLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "Company: "),
		strings.HasPrefix(line, "Slide ") && strings.HasSuffix(line, " processed."),
		strings.Contains(line, pipeline.SignalBestIdea),
		strings.HasPrefix(line, "Refined ") && strings.HasSuffix(line, " successfully"),
		line == "Marp text created successfully",
		strings.Contains(line, pipeline.SignalComplete):
		return true
	}
	return false
}

// totalSteps is the number of step lines a successful run over n slides emits.
func totalSteps(slides int) int {
	// head, one per body slide, best idea, every category, draft, completion
	return 1 + max(slides-1, 0) + 1 + len(pipeline.Taxonomy) + 1 + 1
}

// terminal is a pipeline.Stream that drives a progress bar and prints the
// observer signals as they arrive.
type terminal struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	out  io.Writer
	deck string
	err  string
}

func newTerminal(slides int, out io.Writer) *terminal {
	bar := progressbar.NewOptions(
		totalSteps(slides),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Starting..."),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &terminal{bar: bar, out: out}
}

func (t *terminal) Emit(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	first, _, _ := strings.Cut(line, "\n")
	t.bar.Describe(first)
	switch {
	case strings.HasPrefix(line, pipeline.ErrorPrefix):
		t.err = strings.TrimPrefix(line, pipeline.ErrorPrefix)
		t.printAbove(errorColor.Sprint("✗ " + line))
	case strings.Contains(line, pipeline.SignalSlidesRead),
		strings.Contains(line, pipeline.SignalBestIdea):
		t.printAbove(signalColor.Sprint("→ " + line))
	case strings.HasPrefix(line, "Failed ") || strings.HasPrefix(line, "Error creating"):
		t.printAbove(errorColor.Sprint("⚠ " + line))
	}
	if stepLine(line) {
		_ = t.bar.Add(1)
	}
}

func (t *terminal) printAbove(s string) {
	_ = t.bar.Clear()
	fmt.Fprintln(t.out, s)
}

func (t *terminal) Deliver(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deck = text
}

func (t *terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == "" {
		_ = t.bar.Finish()
	} else {
		fmt.Fprintln(t.out)
	}
}

func stderr() io.Writer {
	if color.NoColor {
		return os.Stderr
	}
	return color.Error
}
