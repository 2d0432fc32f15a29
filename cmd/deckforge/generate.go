package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckforge/internal/artifact"
	"github.com/dgallion1/deckforge/internal/llm"
	"github.com/dgallion1/deckforge/internal/marp"
	"github.com/dgallion1/deckforge/internal/pipeline"
)

var (
	generateCondition string
	generateOutput    string
	generateLocale    string
)

var generateCmd = &cobra.Command{
	Use:   "generate <slide-image>...",
	Short: "Generate a business-plan deck from slide images",
	Long: `Generate reads slide images in the order given (the first one must be the
title slide), runs the full pipeline and writes the resulting Marp deck.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateCondition, "condition", "c", "", "constraints the business ideas must satisfy")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the deck here (default: <upload dir>/marp.md only)")
	generateCmd.Flags().StringVar(&generateLocale, "locale", "", "deck language, ja or en (default from DECK_LOCALE)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if generateLocale != "" {
		cfg.DeckLocale = generateLocale
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	images, err := readImages(args)
	if err != nil {
		return err
	}

	client, err := llm.NewFromConfig(ctx, cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}
	store, err := artifact.NewStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	p := pipeline.New(client, store, pipeline.LocaleFor(cfg.DeckLocale), log)
	out := stderr()
	term := newTerminal(len(images), out)
	run := pipeline.NewRun(generateCondition, images, term)

	infoColor.Fprintf(out, "ℹ %d slides, model %s, run %s\n", len(images), client.Model(), run.ID)
	pipeline.NewWorker(p, log).Process(ctx, run)

	if term.err != "" {
		return errors.New(term.err)
	}

	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(term.deck), 0o644); err != nil {
			return fmt.Errorf("write deck: %w", err)
		}
	}
	path, err := store.DeckPath(run.ID)
	if err != nil {
		return err
	}
	outline := marp.Inspect(term.deck)
	successColor.Fprintf(out, "✓ %d slides written to %s\n", len(outline.Slides), path)
	if generateOutput != "" {
		successColor.Fprintf(out, "✓ copy written to %s\n", generateOutput)
	}
	snap := client.Stats.Snapshot()
	infoColor.Fprintf(out, "ℹ %d LLM calls, p50 %.0fms, p95 %.0fms\n", snap.Count, snap.P50Ms, snap.P95Ms)
	return nil
}

func readImages(paths []string) ([]llm.Image, error) {
	images := make([]llm.Image, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read slide: %w", err)
		}
		img := llm.NewImage(filepath.Base(path), data, "")
		if !strings.HasPrefix(img.MIMEType, "image/") {
			return nil, fmt.Errorf("%s is not an image (%s)", path, img.MIMEType)
		}
		images = append(images, img)
	}
	return images, nil
}
