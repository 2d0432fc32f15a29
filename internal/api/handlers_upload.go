package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/deckforge/internal/llm"
	"github.com/dgallion1/deckforge/internal/pipeline"
)

const slideFieldPrefix = "file_"

// errNoSlides is reported before any run state is created.
var errNoSlides = errors.New("no files uploaded")

// noFilesMessage is the wire text clients match on.
const noFilesMessage = "No files uploaded"

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := s.readSlides(r.MultipartForm)
	if err != nil {
		if errors.Is(err, errNoSlides) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": noFilesMessage})
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	stream := pipeline.NewChanStream(64)
	run := pipeline.NewRun(r.FormValue("text"), images, stream)
	if err := s.runner.Submit(run); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("run submitted", "run_id", run.ID, "slides", len(images))

	s.streamRun(w, r, run, stream)
}

// readSlides collects the file_<n> parts ordered by n. Parts without a numeric
// suffix sort after numbered ones, by name.
func (s *Server) readSlides(form *multipart.Form) ([]llm.Image, error) {
	var keys []string
	for key, files := range form.File {
		if strings.HasPrefix(key, slideFieldPrefix) && len(files) > 0 {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, errNoSlides
	}
	if len(keys) > s.cfg.MaxSlides {
		return nil, fmt.Errorf("too many slides: %d (max %d)", len(keys), s.cfg.MaxSlides)
	}
	sort.Slice(keys, func(i, j int) bool { return slideLess(keys[i], keys[j]) })

	images := make([]llm.Image, 0, len(keys))
	var total int64
	for _, key := range keys {
		fh := form.File[key][0]
		name := sanitizeFilename(fh.Filename)

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		total += int64(len(data))
		if total > s.cfg.MaxUploadBytes {
			return nil, fmt.Errorf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		}

		img := llm.NewImage(name, data, fh.Header.Get("Content-Type"))
		if !strings.HasPrefix(img.MIMEType, "image/") {
			return nil, fmt.Errorf("%s is not an image (%s)", name, img.MIMEType)
		}
		images = append(images, img)
	}
	return images, nil
}

func slideIndex(key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(key, slideFieldPrefix))
	return n, err == nil
}

func slideLess(a, b string) bool {
	na, okA := slideIndex(a)
	nb, okB := slideIndex(b)
	switch {
	case okA && okB:
		return na < nb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

// streamRun copies the run's chunks to the response as they arrive. If the client
// goes away the stream is abandoned and the run carries on.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, run *pipeline.Run, stream *pipeline.ChanStream) {
	log := s.log.With("run_id", run.ID)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Run-ID", run.ID)
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Warn("clear write deadline", "error", err)
	}
	_ = rc.Flush()

	for {
		select {
		case chunk, ok := <-stream.Chunks():
			if !ok {
				return
			}
			if _, err := io.WriteString(w, chunk); err != nil {
				log.Warn("client write failed, abandoning stream", "error", err)
				stream.Abandon()
				return
			}
			_ = rc.Flush()
		case <-r.Context().Done():
			log.Info("client disconnected, run continues")
			stream.Abandon()
			return
		}
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
