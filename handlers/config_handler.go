package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docfields/fieldconfig"
	"docfields/session"
)

var allowedConfigExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// ConfigHandler accepts a field-extraction schema and opens a session for
// it. The session id comes back to the client and keys later document
// uploads.
type ConfigHandler struct {
	validator  *fieldconfig.Validator
	store      session.Store
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewConfigHandler(validator *fieldconfig.Validator, store session.Store, sessionTTL time.Duration, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		validator:  validator,
		store:      store,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(2 << 20); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("config_file")
	if err != nil {
		writeJSONError(w, "No config file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" || !allowedConfigExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		writeJSONError(w, "Invalid config file type", http.StatusBadRequest)
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, "Failed to read config file", http.StatusInternalServerError)
		return
	}

	cfg, err := h.validator.Validate(raw, header.Filename)
	if err != nil {
		var cfgErr *fieldconfig.ConfigError
		if errors.As(err, &cfgErr) {
			writeJSONError(w, cfgErr.Message, http.StatusBadRequest)
			return
		}
		writeJSONError(w, "Config validation failed", http.StatusBadRequest)
		return
	}

	sess := &session.Session{
		ID:     uuid.NewString(),
		Config: cfg,
		Expiry: time.Now().Add(h.sessionTTL),
	}
	if err := h.store.Put(r.Context(), sess); err != nil {
		h.logger.Error("Failed to store session",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Session created",
		slog.String("session_id", sess.ID),
		slog.Int("fields", len(cfg.Fields)))

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"session_id": sess.ID,
		"expires_at": sess.Expiry.Format(time.RFC3339),
	})
}
