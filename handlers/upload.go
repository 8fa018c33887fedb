package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/smoreau/docforge/export"
	"github.com/smoreau/docforge/job"
	"github.com/smoreau/docforge/objectstore"
)

type UploadHandler struct {
	tracker        *job.Tracker
	store          *objectstore.FSStore
	logger         *slog.Logger
	maxUploadBytes int64
	defaultChunk   int
	defaultOverlap int
}

func NewUploadHandler(tracker *job.Tracker, store *objectstore.FSStore, logger *slog.Logger, maxUploadBytes int64, defaultChunk, defaultOverlap int) *UploadHandler {
	return &UploadHandler{
		tracker:        tracker,
		store:          store,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		defaultChunk:   defaultChunk,
		defaultOverlap: defaultOverlap,
	}
}

// ServeHTTP accepts a multipart document upload plus generation options,
// stores the bytes, and starts a detached job. The response carries the job
// id for polling.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received document upload request")

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			mimeType = byExt
		}
	}

	ref := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(header.Filename))
	if err := h.store.Put(r.Context(), ref, buf.Bytes()); err != nil {
		h.logger.Error("Failed to store uploaded document",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to store document", http.StatusInternalServerError)
		return
	}

	req := h.requestFromForm(r, ref, mimeType)

	h.logger.Debug("Starting generation job",
		slog.String("filename", header.Filename),
		slog.String("content_type", mimeType),
		slog.Int64("size", header.Size),
		slog.String("dataset", string(req.Dataset)))

	jobID := h.tracker.Start(req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"job_id": jobID,
		"status": string(job.StatusPending),
	})
}

func (h *UploadHandler) requestFromForm(r *http.Request, ref, mimeType string) job.Request {
	req := job.Request{
		DocumentRef:       ref,
		MIMEType:          mimeType,
		Dataset:           job.Dataset(r.FormValue("dataset")),
		ChunkSize:         formInt(r, "chunk_size", h.defaultChunk),
		OverlapSize:       formInt(r, "overlap_size", h.defaultOverlap),
		RecordCount:       formInt(r, "record_count", 100),
		OutputFormat:      export.Format(r.FormValue("output_format")),
		Shape:             export.Shape(r.FormValue("shape")),
		UseOCR:            formBool(r, "use_ocr"),
		DetectTables:      formBool(r, "detect_tables"),
		AttemptAllMethods: formBool(r, "attempt_all_methods"),
	}
	if req.Dataset == "" {
		req.Dataset = job.DatasetVariants
	}
	return req
}

func formInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.FormValue(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func formBool(r *http.Request, key string) bool {
	v := strings.ToLower(r.FormValue(key))
	return v == "1" || v == "true" || v == "yes"
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
