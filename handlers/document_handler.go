package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"docfields/pipeline"
	"docfields/services/llm_service"
	"docfields/session"
)

// DocumentHandler resolves the session named in the request and runs the
// extraction pipeline over the uploaded files. Processing for one session
// id is serialized through the key lock; a failed request leaves the
// session untouched and reusable.
type DocumentHandler struct {
	store         session.Store
	locks         *session.KeyLock
	orchestrator  *pipeline.Orchestrator
	maxUploadSize int64
	logger        *slog.Logger
}

func NewDocumentHandler(store session.Store, locks *session.KeyLock, orchestrator *pipeline.Orchestrator, maxUploadSize int64, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		store:         store,
		locks:         locks,
		orchestrator:  orchestrator,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (h *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeJSONError(w, "Session ID required", http.StatusBadRequest)
		return
	}

	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSONError(w, "Invalid or expired session ID", http.StatusBadRequest)
			return
		}
		h.logger.Error("Session lookup failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		writeJSONError(w, "Session lookup failed", http.StatusInternalServerError)
		return
	}

	var fileHeaders []*multipart.FileHeader
	if r.MultipartForm != nil {
		fileHeaders = r.MultipartForm.File["document_files"]
	}
	if len(fileHeaders) == 0 {
		writeJSONError(w, "No documents uploaded", http.StatusBadRequest)
		return
	}

	uploads, err := readUploads(fileHeaders)
	if err != nil {
		writeJSONError(w, "Failed to read uploaded files", http.StatusInternalServerError)
		return
	}
	if len(uploads) == 0 {
		writeJSONError(w, "No selected files", http.StatusBadRequest)
		return
	}

	h.locks.Lock(sessionID)
	defer h.locks.Unlock(sessionID)

	outcome, err := h.orchestrator.Process(r.Context(), sess.Config, uploads)
	if err != nil {
		h.respondProcessError(w, sessionID, err)
		return
	}

	if outcome.Status == pipeline.StatusPartialSuccess {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":       pipeline.StatusPartialSuccess,
			"raw_response": outcome.RawResponse,
			"message":      outcome.Message,
		})
		return
	}

	response := map[string]interface{}{
		"status":      pipeline.StatusSuccess,
		"data":        outcome.Data,
		"text_sample": outcome.TextSample,
	}
	if outcome.Report != nil && len(outcome.Report.Skipped) > 0 {
		response["skipped_files"] = outcome.Report.Skipped
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *DocumentHandler) respondProcessError(w http.ResponseWriter, sessionID string, err error) {
	var extractionErr *pipeline.ExtractionError
	if errors.As(err, &extractionErr) {
		writeJSONError(w, extractionErr.Message, http.StatusBadRequest)
		return
	}

	var backendErr *llm_service.BackendError
	if errors.As(err, &backendErr) {
		h.logger.Error("Completion backend call failed",
			slog.String("session_id", sessionID),
			slog.String("error", backendErr.Error()))
		writeJSONError(w, "Analysis failed: "+backendErr.Message, http.StatusBadGateway)
		return
	}

	h.logger.Error("Document processing failed",
		slog.String("session_id", sessionID),
		slog.String("error", err.Error()))
	writeJSONError(w, "Analysis failed", http.StatusInternalServerError)
}

func readUploads(fileHeaders []*multipart.FileHeader) ([]pipeline.Upload, error) {
	var uploads []pipeline.Upload
	for _, header := range fileHeaders {
		if header.Filename == "" {
			continue
		}
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, pipeline.Upload{
			Filename: header.Filename,
			Data:     data,
		})
	}
	return uploads, nil
}
