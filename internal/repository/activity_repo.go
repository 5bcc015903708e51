package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"explorers-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Start(ctx context.Context, session *models.ActivitySession) error {
	session.ID = uuid.New()
	session.InteractionsJSON = json.RawMessage("[]")

	return r.pool.QueryRow(ctx, `
		INSERT INTO activity_sessions (id, session_id, activity_id)
		VALUES ($1, $2, $3)
		RETURNING started_at`,
		session.ID, session.SessionID, session.ActivityID,
	).Scan(&session.StartedAt)
}

// AppendInteraction adds one event to the interaction log. The session id
// guard keeps learners from writing into each other's telemetry.
func (r *ActivityRepo) AppendInteraction(ctx context.Context, id uuid.UUID, sessionID string, interaction models.Interaction) error {
	interaction.Timestamp = time.Now().UTC()
	data, err := json.Marshal(interaction)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE activity_sessions
		SET interactions = interactions || $3::jsonb
		WHERE id = $1 AND session_id = $2`,
		id, sessionID, data,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ActivityRepo) Complete(ctx context.Context, id uuid.UUID, sessionID string, finalScore *int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE activity_sessions
		SET ended_at = NOW(),
			completed = TRUE,
			final_score = $3,
			time_spent_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::int
		WHERE id = $1 AND session_id = $2`,
		id, sessionID, finalScore,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ActivityRepo) Get(ctx context.Context, id uuid.UUID, sessionID string) (*models.ActivitySession, error) {
	s := &models.ActivitySession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, activity_id, started_at, ended_at, interactions,
			final_score, completed, time_spent_seconds
		FROM activity_sessions
		WHERE id = $1 AND session_id = $2`,
		id, sessionID,
	).Scan(&s.ID, &s.SessionID, &s.ActivityID, &s.StartedAt, &s.EndedAt,
		&s.InteractionsJSON, &s.FinalScore, &s.Completed, &s.TimeSpentSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
