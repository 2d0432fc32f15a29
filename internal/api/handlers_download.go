package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dgallion1/deckforge/internal/artifact"
	"github.com/dgallion1/deckforge/internal/export"
	"github.com/dgallion1/deckforge/internal/render"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleDownload serves a stored deck. Without ?run it serves the latest one.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	switch format {
	case "pdf":
		path, err := s.decks.DeckPath(runID)
		if err != nil {
			s.deckError(w, err)
			return
		}
		data, err := s.renderer.PDF(r.Context(), path)
		if err != nil {
			s.log.Error("render pdf", "run_id", runID, "error", err)
			if errors.Is(err, render.ErrRendererMissing) {
				jsonError(w, "pdf renderer unavailable", http.StatusServiceUnavailable)
				return
			}
			jsonError(w, "failed to render pdf", http.StatusInternalServerError)
			return
		}
		writeAttachment(w, "application/pdf", "slide.pdf", data)

	case "docx":
		deck, err := s.decks.ReadDeck(runID)
		if err != nil {
			s.deckError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := export.WriteDOCX(&buf, deck); err != nil {
			s.log.Error("export docx", "run_id", runID, "error", err)
			jsonError(w, "failed to export docx", http.StatusInternalServerError)
			return
		}
		writeAttachment(w, docxContentType, "slide.docx", buf.Bytes())

	case "md":
		deck, err := s.decks.ReadDeck(runID)
		if err != nil {
			s.deckError(w, err)
			return
		}
		writeAttachment(w, "text/markdown; charset=utf-8", "marp.md", []byte(deck))

	default:
		jsonError(w, "unsupported format: "+format, http.StatusBadRequest)
	}
}

func (s *Server) deckError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, artifact.ErrNotFound):
		jsonError(w, "deck not found", http.StatusNotFound)
	case errors.Is(err, artifact.ErrInvalidID):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("read deck", "error", err)
		jsonError(w, "failed to read deck", http.StatusInternalServerError)
	}
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
