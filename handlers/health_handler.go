package handlers

import (
	"net/http"
	"time"

	"docfields/session"
)

type HealthHandler struct {
	store session.Store
}

func NewHealthHandler(store session.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		writeJSONError(w, "Session store unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().Format(time.RFC3339),
		"active_sessions": count,
	})
}

func Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Document Analysis API",
		"endpoints": map[string]string{
			"/upload_config":    "POST - Upload configuration",
			"/upload_documents": "POST - Upload documents with session_id",
			"/session/{id}":     "GET - Check session status",
			"/health":           "GET - Service health",
		},
	})
}
