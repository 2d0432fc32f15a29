package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckforge/internal/export"
	"github.com/dgallion1/deckforge/internal/marp"
	"github.com/dgallion1/deckforge/internal/render"
)

var convertOutput string

var renderCmd = &cobra.Command{
	Use:   "render <deck.md>",
	Short: "Render a Marp deck to PDF with the Marp CLI",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var exportCmd = &cobra.Command{
	Use:   "export <deck.md>",
	Short: "Export a Marp deck to DOCX",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <deck.md>",
	Short: "List the slides of a Marp deck",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	renderCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output path (default: deck name with .pdf)")
	exportCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output path (default: deck name with .docx)")
	rootCmd.AddCommand(renderCmd, exportCmd, inspectCmd)
}

func outputPath(src, ext string) string {
	if convertOutput != "" {
		return convertOutput
	}
	return strings.TrimSuffix(src, filepath.Ext(src)) + ext
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	r := render.New(cfg.MarpBin, cfg.VerifyPDF, newLogger(cfg))

	data, err := r.PDF(context.Background(), args[0])
	if err != nil {
		return err
	}
	dst := outputPath(args[0], ".pdf")
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	successColor.Fprintf(cmd.OutOrStdout(), "✓ %s (%d bytes)\n", dst, len(data))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	deck, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read deck: %w", err)
	}
	var buf bytes.Buffer
	if err := export.WriteDOCX(&buf, string(deck)); err != nil {
		return err
	}
	dst := outputPath(args[0], ".docx")
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	successColor.Fprintf(cmd.OutOrStdout(), "✓ %s (%d bytes)\n", dst, buf.Len())
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	deck, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read deck: %w", err)
	}
	outline := marp.Inspect(string(deck))
	out := cmd.OutOrStdout()
	signalColor.Fprintf(out, "%d slides\n", len(outline.Slides))
	for _, s := range outline.Slides {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(out, "%3d  %s\n", s.Index, title)
	}
	return nil
}
