package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"explorers-backend/internal/middleware"
	"explorers-backend/internal/progress"
)

type ProgressHandler struct {
	syncer *progress.Syncer
}

func NewProgressHandler(syncer *progress.Syncer) *ProgressHandler {
	return &ProgressHandler{syncer: syncer}
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": h.syncer.Get(r.Context(), sessionID),
	})
}

func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	lessonID := strings.TrimSpace(chi.URLParam(r, "id"))
	if lessonID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Lesson id is required", r))
		return
	}

	p := h.syncer.MarkLessonComplete(r.Context(), sessionID, lessonID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": p})
}

func (h *ProgressHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	activityID := strings.TrimSpace(chi.URLParam(r, "id"))
	if activityID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Activity id is required", r))
		return
	}

	var req struct {
		Score int `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Score < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Score cannot be negative", r))
		return
	}

	p := h.syncer.UpdateActivityScore(r.Context(), sessionID, activityID, req.Score)
	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": p})
}

func (h *ProgressHandler) EarnBadge(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	badgeID := strings.TrimSpace(chi.URLParam(r, "id"))
	if badgeID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Badge id is required", r))
		return
	}

	p := h.syncer.EarnBadge(r.Context(), sessionID, badgeID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": p})
}

func (h *ProgressHandler) SaveReflection(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	activityID := strings.TrimSpace(chi.URLParam(r, "id"))

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if activityID == "" || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Activity id and text are required", r))
		return
	}

	h.syncer.SaveReflection(r.Context(), sessionID, activityID, req.Text)
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Reflection saved"})
}

// Reset wipes the cache entry only, and only with an explicit confirmation.
// The durable record is untouched; a later login restores it.
func (h *ProgressHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Confirm {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Reset requires confirm: true", r))
		return
	}

	if err := h.syncer.ResetLocal(r.Context(), sessionID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to reset progress", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Local progress cleared"})
}
