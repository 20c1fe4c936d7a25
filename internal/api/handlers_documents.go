package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/papersum/internal/parser"
	"github.com/dgallion1/papersum/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// documentResponse is the metadata returned for a stored document.
type documentResponse struct {
	pipeline.StoredDocument
	Segments int `json:"segments"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := parser.Parse(data, filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Warn("extraction failed", "filename", filename, "error", err)
		jsonError(w, "text extraction failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = doc.Title
	}

	stored := s.orchestrator.Documents().Put(pipeline.StoredDocument{
		ID:       pipeline.DocumentID(data),
		Title:    title,
		Filename: filename,
		Format:   doc.Format,
		Pages:    doc.Pages,
		Text:     doc.Text,
	})
	if stored.Chars == 0 {
		s.log.Warn("document has no extractable text", "doc_id", stored.ID, "filename", filename)
	}
	s.log.Info("document stored",
		"doc_id", stored.ID,
		"format", stored.Format,
		"pages", stored.Pages,
		"chars", stored.Chars,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(s.describe(stored))
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.orchestrator.Documents().Get(chi.URLParam(r, "docID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.describe(doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.orchestrator.Documents().Delete(docID) {
		jsonError(w, pipeline.ErrDocumentNotFound.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"doc_id": docID, "deleted": true})
}

// describe adds the segment count under the server's default policy.
func (s *Server) describe(doc pipeline.StoredDocument) documentResponse {
	segments, err := s.cfg.SegmentPolicy.Apply(doc.Text, s.cfg.SegmentMaxChars)
	if err != nil {
		s.log.Warn("segment count failed", "doc_id", doc.ID, "error", err)
	}
	return documentResponse{StoredDocument: doc, Segments: len(segments)}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
