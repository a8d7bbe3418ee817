package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jobtrackr/importer/internal/engine"
	"github.com/jobtrackr/importer/internal/logging"
	"github.com/jobtrackr/importer/internal/tokenizer"
)

// MaxResponseErrors caps the error list returned to clients; the full
// list stays in the server log.
const MaxResponseErrors = 10

// sessionResponse is the body returned when a session is created or
// its preview is fetched.
type sessionResponse struct {
	SessionID string                `json:"sessionId"`
	State     string                `json:"state"`
	Preview   *engine.ImportPreview `json:"preview,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateImport accepts a multipart file upload, tokenizes and
// normalizes it, and opens a preview session.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	schema := engine.Schema(chi.URLParam(r, "schema"))
	if !schema.Valid() {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown import schema %q", schema))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.importCfg.MaxFileSize)
	if err := r.ParseMultipartForm(s.importCfg.MaxFileSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to read file")
		return
	}

	rows, err := tokenizer.Read(header.Filename, data)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	detector := &engine.GroupDetector{
		MaxIndex: s.importCfg.MaxGroupIndex,
		Strict:   s.importCfg.StrictGroupIndex,
	}
	normalizer := engine.NewNormalizer(schema, detector)

	logger := logging.WithFields(r.Context(), "schema", schema, "file", header.Filename)
	session := engine.NewSession(schema, normalizer, s.committer, logger)

	preview, err := session.Load(rows)
	if err != nil {
		if errors.Is(err, engine.ErrNoData) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id := s.sessions.Put(session)
	logger.Info("import session opened",
		"session_id", id,
		"total_rows", preview.TotalRows,
		"skipped_rows", preview.SkippedRows,
	)

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: id.String(),
		State:     string(session.State()),
		Preview:   preview,
	})
}

// handlePreview returns the stored preview for an open session.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	preview, err := session.Preview()
	if err != nil {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: id.String(),
		State:     string(session.State()),
		Preview:   preview,
	})
}

// handleConfirm commits the session's full record set.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if s.importCfg.CommitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.importCfg.CommitTimeout)
		defer cancel()
	}

	result, err := session.Confirm(ctx)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrCommitInFlight):
			writeError(w, r, http.StatusConflict, err.Error())
		case errors.Is(err, engine.ErrNoPreview):
			writeError(w, r, http.StatusConflict, err.Error())
		default:
			// Commit failed; the result still carries the counts.
			writeJSON(w, http.StatusBadGateway, truncateResultErrors(result))
		}
		return
	}

	s.sessions.Delete(id)
	writeJSON(w, http.StatusOK, truncateResultErrors(result))
}

// handleCancel discards an unconfirmed session.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	if err := session.Cancel(); err != nil {
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	s.sessions.Delete(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// lookupSession resolves the sessionID path parameter. On failure it
// writes the error response and returns ok=false.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, *engine.Session, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid session id")
		return uuid.UUID{}, nil, false
	}

	session, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found or expired")
		return uuid.UUID{}, nil, false
	}
	return id, session, true
}

// truncateResultErrors caps the error list in an outgoing result.
func truncateResultErrors(result *engine.ImportResult) *engine.ImportResult {
	if result == nil || len(result.Errors) <= MaxResponseErrors {
		return result
	}
	capped := *result
	capped.Errors = capped.Errors[:MaxResponseErrors]
	return &capped
}

// writeError writes a JSON error response. The full message is logged
// server-side; the client receives a sanitized copy.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", message,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, sanitizeErrorMessage(message))
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// sanitizeErrorMessage strips connection strings and driver noise
// before a message leaves the server.
func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, marker := range []string{"postgres://", "password=", "sqlstate"} {
		if strings.Contains(lower, marker) {
			return "internal storage error"
		}
	}
	return message
}
