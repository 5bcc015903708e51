// Package progress keeps the cache tier and the durable store consistent
// under best-score-wins semantics. Every mutation lands in the cache
// synchronously and is queued for the durable store; queue and cache
// failures are logged, never surfaced — the learner's in-flight progress
// must not depend on either backend being up.
package progress

import (
	"context"
	"log"

	"explorers-backend/internal/models"
)

type cacheStore interface {
	GetProgress(ctx context.Context, sessionID string) (*models.Progress, error)
	SaveProgress(ctx context.Context, sessionID string, p *models.Progress) error
	Reset(ctx context.Context, sessionID string) error
}

type syncQueue interface {
	EnqueueProgressSync(ctx context.Context, sessionID string, p *models.Progress) error
	EnqueueReflection(ctx context.Context, sessionID, activityID, text string) error
}

type Syncer struct {
	cache cacheStore
	queue syncQueue
}

func NewSyncer(cache cacheStore, queue syncQueue) *Syncer {
	return &Syncer{cache: cache, queue: queue}
}

// Get reads the cached document. A cache failure degrades to the empty
// default rather than erroring; the durable copy is untouched either way.
func (s *Syncer) Get(ctx context.Context, sessionID string) *models.Progress {
	p, err := s.cache.GetProgress(ctx, sessionID)
	if err != nil {
		log.Printf("progress: cache read failed for %s: %v", sessionID, err)
	}
	return p
}

// MarkLessonComplete is an idempotent set-insert: a repeat completion is a
// no-op and enqueues nothing.
func (s *Syncer) MarkLessonComplete(ctx context.Context, sessionID, lessonID string) *models.Progress {
	p := s.Get(ctx, sessionID)
	if !p.CompleteLesson(lessonID) {
		return p
	}
	s.persist(ctx, sessionID, p)
	return p
}

// UpdateActivityScore keeps max(existing, score) and the recomputed total.
// Replays and out-of-order submissions cannot regress the stored value.
func (s *Syncer) UpdateActivityScore(ctx context.Context, sessionID, activityID string, score int) *models.Progress {
	p := s.Get(ctx, sessionID)
	p.ApplyScore(activityID, score)
	s.persist(ctx, sessionID, p)
	return p
}

func (s *Syncer) EarnBadge(ctx context.Context, sessionID, badgeID string) *models.Progress {
	p := s.Get(ctx, sessionID)
	if !p.AwardBadge(badgeID) {
		return p
	}
	s.persist(ctx, sessionID, p)
	return p
}

// SaveReflection queues a reflection append for the durable store.
// Reflections live only in the remote document, so there is no cache write.
func (s *Syncer) SaveReflection(ctx context.Context, sessionID, activityID, text string) {
	if err := s.queue.EnqueueReflection(ctx, sessionID, activityID, text); err != nil {
		log.Printf("progress: failed to enqueue reflection for %s: %v", sessionID, err)
	}
}

// ResetLocal wipes the cache entry only. The durable record survives, so a
// later login restores everything.
func (s *Syncer) ResetLocal(ctx context.Context, sessionID string) error {
	return s.cache.Reset(ctx, sessionID)
}

// persist writes the cache synchronously and queues the final document for
// the durable store. Both failures degrade to in-memory-only progress for
// this request; neither reaches the caller.
func (s *Syncer) persist(ctx context.Context, sessionID string, p *models.Progress) {
	if err := s.cache.SaveProgress(ctx, sessionID, p); err != nil {
		log.Printf("progress: cache write failed for %s: %v", sessionID, err)
	}
	if err := s.queue.EnqueueProgressSync(ctx, sessionID, p); err != nil {
		log.Printf("progress: failed to enqueue sync for %s: %v", sessionID, err)
	}
}
