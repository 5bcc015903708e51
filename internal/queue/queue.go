// Package queue puts typed sync jobs onto Redis lists for the worker pool.
// Delivery is best-effort and at-most-once; the max-merge and set-insert
// semantics of the progress document make replays harmless anyway.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"explorers-backend/internal/models"
)

const (
	ProgressSyncQueue = "queue:progress-sync"
	ReflectionQueue   = "queue:reflection-save"
)

// SyncEventChannel is the pub/sub channel prefix for per-session sync
// confirmations consumed by the websocket hub.
const SyncEventChannel = "sync_events:"

type Queue struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

func (q *Queue) EnqueueProgressSync(ctx context.Context, sessionID string, p *models.Progress) error {
	return q.push(ctx, ProgressSyncQueue, models.SyncJob{
		ID:         uuid.New(),
		Type:       models.JobProgressSync,
		SessionID:  sessionID,
		Progress:   p,
		EnqueuedAt: time.Now().UTC(),
	})
}

func (q *Queue) EnqueueReflection(ctx context.Context, sessionID, activityID, text string) error {
	return q.push(ctx, ReflectionQueue, models.SyncJob{
		ID:         uuid.New(),
		Type:       models.JobReflectionSave,
		SessionID:  sessionID,
		ActivityID: activityID,
		Reflection: text,
		EnqueuedAt: time.Now().UTC(),
	})
}

func (q *Queue) push(ctx context.Context, queueName string, job models.SyncJob) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queueName, string(jobBytes)).Err()
}
