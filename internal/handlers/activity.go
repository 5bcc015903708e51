package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"explorers-backend/internal/middleware"
	"explorers-backend/internal/models"
	"explorers-backend/internal/repository"
)

// ActivityHandler records activity telemetry: one row per run of an
// interactive activity, with an append-only interaction log.
type ActivityHandler struct {
	repo *repository.ActivityRepo
}

func NewActivityHandler(repo *repository.ActivityRepo) *ActivityHandler {
	return &ActivityHandler{repo: repo}
}

func (h *ActivityHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req models.StartActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	req.ActivityID = strings.TrimSpace(req.ActivityID)
	if req.ActivityID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "activity_id is required", r))
		return
	}

	activity := &models.ActivitySession{
		SessionID:  sessionID,
		ActivityID: req.ActivityID,
	}
	if err := h.repo.Start(r.Context(), activity); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start activity", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"activity": activity})
}

func (h *ActivityHandler) Interact(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid activity session ID", r))
		return
	}

	var req models.InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Type) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Interaction type is required", r))
		return
	}

	interaction := models.Interaction{Type: req.Type, Data: req.Data}
	if err := h.repo.AppendInteraction(r.Context(), id, sessionID, interaction); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Activity session not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record interaction", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Interaction recorded"})
}

func (h *ActivityHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid activity session ID", r))
		return
	}

	var req models.CompleteActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.FinalScore != nil && *req.FinalScore < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "final_score cannot be negative", r))
		return
	}

	if err := h.repo.Complete(r.Context(), id, sessionID, req.FinalScore); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Activity session not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to complete activity", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Activity completed"})
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid activity session ID", r))
		return
	}

	activity, err := h.repo.Get(r.Context(), id, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Activity session not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load activity", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": activity})
}
