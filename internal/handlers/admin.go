package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"explorers-backend/internal/models"
	"explorers-backend/internal/repository"
)

// AdminHandler serves the teacher-facing reporting endpoints. These read
// the durable store directly; the cache tier is a per-learner concern.
type AdminHandler struct {
	users    *repository.UserRepo
	progress *repository.ProgressRepo
}

func NewAdminHandler(users *repository.UserRepo, progress *repository.ProgressRepo) *AdminHandler {
	return &AdminHandler{users: users, progress: progress}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list users", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	entries, err := h.progress.ListAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list progress", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": entries})
}

// ExportCSV streams one row per learner with their progress summary.
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list users", r))
		return
	}
	entries, err := h.progress.ListAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list progress", r))
		return
	}

	bySession := make(map[string]repository.ProgressEntry, len(entries))
	for _, e := range entries {
		bySession[e.SessionID] = e
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=ai-explorers-report-%s.csv", time.Now().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	cw.Write([]string{
		"first_name", "last_name", "grade", "school", "session_id",
		"registered_at", "lessons_completed", "badges", "total_score",
	})

	for _, u := range users {
		e := bySession[u.SessionID]
		cw.Write([]string{
			u.FirstName,
			u.LastName,
			u.Grade,
			u.School,
			u.SessionID,
			u.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(len(e.Progress.CompletedLessons)),
			strings.Join(e.Progress.Badges, ";"),
			strconv.Itoa(e.Progress.TotalScore),
		})
	}

	cw.Flush()
}

// Certificate returns the data a certificate render needs. Layout is the
// frontend's job.
func (h *AdminHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	user, err := h.users.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("USER_NOT_FOUND", "No learner with that session id", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}

	p, err := h.progress.Get(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load progress", r))
		return
	}
	if p == nil {
		p = models.NewProgress()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"certificate": map[string]interface{}{
			"student_name":      user.FirstName + " " + user.LastName,
			"grade":             user.Grade,
			"school":            user.School,
			"lessons_completed": len(p.CompletedLessons),
			"badges":            p.Badges,
			"total_score":       p.TotalScore,
			"issued_at":         time.Now().UTC(),
		},
	})
}
