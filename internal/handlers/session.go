package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"explorers-backend/internal/middleware"
	"explorers-backend/internal/models"
	"explorers-backend/internal/session"
)

type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.manager.Register(r.Context(), req)
	if err != nil {
		handleSessionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	resp, err := h.manager.Login(r.Context(), req)
	if err != nil {
		handleSessionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me answers the offline-first bootstrap: it consults only the cache, so a
// plain page reload never costs a durable-store round trip.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	user, err := h.manager.Restore(r.Context(), sessionID)
	if err != nil {
		handleSessionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"session_id": sessionID,
	})
}

func handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *session.ValidationError
	var rerr *session.RemoteError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Please check the highlighted fields", verr.Fields, r))
	case errors.Is(err, session.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("USER_NOT_FOUND", "No learner found with that name", r))
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("SESSION_NOT_FOUND", "No active session on this server, please log in", r))
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusBadGateway, errorResp("REMOTE_ERROR", "Could not reach the progress store, please try again", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Something went wrong", r))
	}
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}
