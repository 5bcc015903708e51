package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"explorers-backend/internal/models"
	"explorers-backend/internal/queue"
	"explorers-backend/internal/services"
)

// progressStore is the durable side of the sync pipeline
// (*repository.ProgressRepo in production).
type progressStore interface {
	Upsert(ctx context.Context, sessionID string, p *models.Progress, syncedAt time.Time) error
	SaveReflection(ctx context.Context, sessionID, activityID, text string) error
	SaveFeedback(ctx context.Context, sessionID, activityID, feedback string) error
}

// Pool drains the sync queues and mirrors progress documents into Postgres.
// Jobs carry final values; a failed job is logged and dropped (at-most-once
// delivery — the merge semantics make the next mutation re-deliver state).
type Pool struct {
	redis        *redis.Client
	progressRepo progressStore
	feedback     *services.FeedbackService // nil when no API key is configured
	workerCount  int
	stopChan     chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	progressRepo progressStore,
	feedback *services.FeedbackService,
	workerCount int,
) *Pool {
	return &Pool{
		redis:        redisClient,
		progressRepo: progressRepo,
		feedback:     feedback,
		workerCount:  workerCount,
		stopChan:     make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		queue.ProgressSyncQueue,
		queue.ReflectionQueue,
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d sync worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Sync worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// Producers LPUSH, so BRPOP drains oldest-first. Snapshot jobs are
		// last-write-wins at the durable tier and must not arrive reversed.
		result, err := p.redis.BRPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.SyncJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Sync worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Per-job lock so overlapping workers never double-apply
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		p.handle(ctx, id, job)
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, job models.SyncJob) {
	switch job.Type {
	case models.JobProgressSync:
		p.handleProgressSync(ctx, workerID, job)
	case models.JobReflectionSave:
		p.handleReflection(ctx, workerID, job)
	default:
		log.Printf("Sync worker %d: unknown job type %q", workerID, job.Type)
	}
}

func (p *Pool) handleProgressSync(ctx context.Context, workerID int, job models.SyncJob) {
	if job.Progress == nil {
		log.Printf("Sync worker %d: progress job %s carries no document", workerID, job.ID)
		return
	}

	syncedAt := job.EnqueuedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now().UTC()
	}

	if err := p.progressRepo.Upsert(ctx, job.SessionID, job.Progress, syncedAt); err != nil {
		// Best-effort mirror: the cache tier still holds the learner's
		// progress, so this is logged and dropped.
		log.Printf("Sync worker %d: progress sync failed for %s: %v", workerID, job.SessionID, err)
		return
	}

	p.publishSyncEvent(ctx, job.SessionID, job.Progress.TotalScore)
}

func (p *Pool) handleReflection(ctx context.Context, workerID int, job models.SyncJob) {
	if err := p.progressRepo.SaveReflection(ctx, job.SessionID, job.ActivityID, job.Reflection); err != nil {
		log.Printf("Sync worker %d: reflection save failed for %s: %v", workerID, job.SessionID, err)
		return
	}

	if p.feedback == nil {
		return
	}

	reply, err := p.feedback.ForReflection(ctx, job.ActivityID, job.Reflection)
	if err != nil {
		log.Printf("Sync worker %d: feedback generation failed for %s: %v", workerID, job.SessionID, err)
		return
	}
	if err := p.progressRepo.SaveFeedback(ctx, job.SessionID, job.ActivityID, reply); err != nil {
		log.Printf("Sync worker %d: feedback save failed for %s: %v", workerID, job.SessionID, err)
	}
}

func (p *Pool) publishSyncEvent(ctx context.Context, sessionID string, totalScore int) {
	event := models.WSMessage{
		Type: "progress_synced",
		Payload: models.SyncEvent{
			SessionID:  sessionID,
			TotalScore: totalScore,
			SyncedAt:   time.Now().UTC(),
		},
	}
	data, err := json.Marshal(event)
	if err != nil || p.redis == nil {
		return
	}
	p.redis.Publish(ctx, queue.SyncEventChannel+sessionID, string(data))
}
