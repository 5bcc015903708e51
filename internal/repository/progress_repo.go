package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"explorers-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

// ProgressEntry pairs a progress document with its owning session for admin
// listings.
type ProgressEntry struct {
	SessionID string          `json:"session_id"`
	Progress  models.Progress `json:"progress"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// Get returns (nil, nil) for a missing document; only transport or scan
// failures surface as errors.
func (r *ProgressRepo) Get(ctx context.Context, sessionID string) (*models.Progress, error) {
	p := models.NewProgress()
	var scoresRaw []byte

	err := r.pool.QueryRow(ctx, `
		SELECT completed_lessons, activity_scores, badges, total_score
		FROM user_progress WHERE session_id = $1`,
		sessionID,
	).Scan(&p.CompletedLessons, &scoresRaw, &p.Badges, &p.TotalScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scoresRaw, &p.ActivityScores); err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert stores the full document as final values. Merge arithmetic happens
// on models.Progress before the job is enqueued; this tier never recomputes.
// syncedAt is the snapshot's enqueue time: the conditional update makes the
// write monotonic, so a delayed older snapshot can never clobber a newer one
// no matter how jobs interleave across workers.
func (r *ProgressRepo) Upsert(ctx context.Context, sessionID string, p *models.Progress, syncedAt time.Time) error {
	scoresJSON, err := json.Marshal(p.ActivityScores)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_progress (session_id, completed_lessons, activity_scores, badges, total_score, synced_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (session_id) DO UPDATE
		SET completed_lessons = EXCLUDED.completed_lessons,
			activity_scores = EXCLUDED.activity_scores,
			badges = EXCLUDED.badges,
			total_score = EXCLUDED.total_score,
			synced_at = EXCLUDED.synced_at,
			updated_at = NOW()
		WHERE user_progress.synced_at <= EXCLUDED.synced_at`,
		sessionID, p.CompletedLessons, scoresJSON, p.Badges, p.TotalScore, syncedAt,
	)
	return err
}

func (r *ProgressRepo) SaveReflection(ctx context.Context, sessionID, activityID, text string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_progress
		SET reflections = COALESCE(reflections, '{}'::jsonb) ||
			jsonb_build_object($2::text, jsonb_build_object(
				'text', $3::text,
				'timestamp', to_jsonb(NOW())
			)),
			updated_at = NOW()
		WHERE session_id = $1`,
		sessionID, activityID, text,
	)
	return err
}

// SaveFeedback attaches a generated feedback sentence to an existing
// reflection. A no-op when the reflection is gone.
func (r *ProgressRepo) SaveFeedback(ctx context.Context, sessionID, activityID, feedback string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_progress
		SET reflections = jsonb_set(reflections, ARRAY[$2::text, 'feedback'], to_jsonb($3::text), true),
			updated_at = NOW()
		WHERE session_id = $1 AND reflections ? $2`,
		sessionID, activityID, feedback,
	)
	return err
}

func (r *ProgressRepo) ListAll(ctx context.Context) ([]ProgressEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, completed_lessons, activity_scores, badges, total_score, updated_at
		FROM user_progress
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]ProgressEntry, 0)
	for rows.Next() {
		var e ProgressEntry
		var scoresRaw []byte
		e.Progress = *models.NewProgress()
		if err := rows.Scan(&e.SessionID, &e.Progress.CompletedLessons, &scoresRaw,
			&e.Progress.Badges, &e.Progress.TotalScore, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(scoresRaw, &e.Progress.ActivityScores); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
