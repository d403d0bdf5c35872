package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"docfields/session"
)

// SessionHandler reports whether a session is still active and which fields
// its configuration declares.
type SessionHandler struct {
	store  session.Store
	logger *slog.Logger
}

func NewSessionHandler(store session.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSONError(w, "Session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Session lookup failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		writeJSONError(w, "Session lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "active",
		"expires_at": sess.Expiry.Format(time.RFC3339),
		"fields":     sess.Config.FieldNames(),
	})
}
