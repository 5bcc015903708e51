package progress

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"explorers-backend/internal/models"
)

// fakeCache serializes documents like the real Redis store so mutations
// only stick after SaveProgress.
type fakeCache struct {
	docs     map[string][]byte
	getErr   error
	saveErr  error
	resetErr error
	saves    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{docs: make(map[string][]byte)}
}

func (c *fakeCache) GetProgress(ctx context.Context, sessionID string) (*models.Progress, error) {
	if c.getErr != nil {
		return models.NewProgress(), c.getErr
	}
	data, ok := c.docs[sessionID]
	if !ok {
		return models.NewProgress(), nil
	}
	p := models.NewProgress()
	json.Unmarshal(data, p)
	return p, nil
}

func (c *fakeCache) SaveProgress(ctx context.Context, sessionID string, p *models.Progress) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	data, _ := json.Marshal(p)
	c.docs[sessionID] = data
	c.saves++
	return nil
}

func (c *fakeCache) Reset(ctx context.Context, sessionID string) error {
	if c.resetErr != nil {
		return c.resetErr
	}
	delete(c.docs, sessionID)
	return nil
}

type enqueued struct {
	sessionID  string
	progress   *models.Progress
	activityID string
	reflection string
}

type fakeQueue struct {
	syncs       []enqueued
	reflections []enqueued
	err         error
}

func (q *fakeQueue) EnqueueProgressSync(ctx context.Context, sessionID string, p *models.Progress) error {
	if q.err != nil {
		return q.err
	}
	q.syncs = append(q.syncs, enqueued{sessionID: sessionID, progress: p})
	return nil
}

func (q *fakeQueue) EnqueueReflection(ctx context.Context, sessionID, activityID, text string) error {
	if q.err != nil {
		return q.err
	}
	q.reflections = append(q.reflections, enqueued{sessionID: sessionID, activityID: activityID, reflection: text})
	return nil
}

// ─── Mutation Tests ───

func TestUpdateActivityScore_BestScoreWins(t *testing.T) {
	cache := newFakeCache()
	queue := &fakeQueue{}
	s := NewSyncer(cache, queue)
	ctx := context.Background()

	s.UpdateActivityScore(ctx, "sess-1", "real-or-ai", 60)
	s.UpdateActivityScore(ctx, "sess-1", "real-or-ai", 40)

	p := s.Get(ctx, "sess-1")
	if p.ActivityScores["real-or-ai"] != 60 {
		t.Errorf("Expected 60, got %d", p.ActivityScores["real-or-ai"])
	}
	if p.TotalScore != 60 {
		t.Errorf("Expected total 60, got %d", p.TotalScore)
	}
}

func TestUpdateActivityScore_TotalAcrossActivities(t *testing.T) {
	cache := newFakeCache()
	s := NewSyncer(cache, &fakeQueue{})
	ctx := context.Background()

	s.UpdateActivityScore(ctx, "sess-1", "quiz", 30)
	s.UpdateActivityScore(ctx, "sess-1", "word-cloud", 50)
	p := s.UpdateActivityScore(ctx, "sess-1", "quiz", 10)

	if p.TotalScore != 80 {
		t.Errorf("Expected total 80, got %d", p.TotalScore)
	}
}

func TestMarkLessonComplete_RepeatIsNoOp(t *testing.T) {
	cache := newFakeCache()
	queue := &fakeQueue{}
	s := NewSyncer(cache, queue)
	ctx := context.Background()

	s.MarkLessonComplete(ctx, "sess-1", "lesson-1")
	s.MarkLessonComplete(ctx, "sess-1", "lesson-1")

	p := s.Get(ctx, "sess-1")
	if len(p.CompletedLessons) != 1 {
		t.Errorf("Expected 1 completed lesson, got %d", len(p.CompletedLessons))
	}
	// The repeat must not re-persist or re-enqueue
	if cache.saves != 1 {
		t.Errorf("Expected 1 cache save, got %d", cache.saves)
	}
	if len(queue.syncs) != 1 {
		t.Errorf("Expected 1 sync job, got %d", len(queue.syncs))
	}
}

func TestEarnBadge_RepeatIsNoOp(t *testing.T) {
	cache := newFakeCache()
	queue := &fakeQueue{}
	s := NewSyncer(cache, queue)
	ctx := context.Background()

	s.EarnBadge(ctx, "sess-1", "myth-buster")
	s.EarnBadge(ctx, "sess-1", "myth-buster")

	p := s.Get(ctx, "sess-1")
	if len(p.Badges) != 1 {
		t.Errorf("Expected 1 badge, got %d", len(p.Badges))
	}
	if len(queue.syncs) != 1 {
		t.Errorf("Expected 1 sync job, got %d", len(queue.syncs))
	}
}

// ─── Failure Semantics Tests ───

func TestUpdateActivityScore_QueueFailureDoesNotSurface(t *testing.T) {
	cache := newFakeCache()
	queue := &fakeQueue{err: errors.New("redis down")}
	s := NewSyncer(cache, queue)
	ctx := context.Background()

	p := s.UpdateActivityScore(ctx, "sess-1", "quiz", 75)

	// Local state must still be correct
	if p.ActivityScores["quiz"] != 75 {
		t.Errorf("Expected 75, got %d", p.ActivityScores["quiz"])
	}
	stored := s.Get(ctx, "sess-1")
	if stored.ActivityScores["quiz"] != 75 {
		t.Errorf("Cache should hold 75, got %d", stored.ActivityScores["quiz"])
	}
}

func TestUpdateActivityScore_CacheFailureStillReturnsUpdatedDoc(t *testing.T) {
	cache := newFakeCache()
	cache.saveErr = errors.New("cache down")
	s := NewSyncer(cache, &fakeQueue{})

	p := s.UpdateActivityScore(context.Background(), "sess-1", "quiz", 75)
	if p.ActivityScores["quiz"] != 75 {
		t.Errorf("In-memory doc should hold 75, got %d", p.ActivityScores["quiz"])
	}
}

func TestGet_CacheReadFailureDegradesToDefault(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("cache down")
	s := NewSyncer(cache, &fakeQueue{})

	p := s.Get(context.Background(), "sess-1")
	if p == nil || p.TotalScore != 0 {
		t.Error("Expected empty default progress on cache failure")
	}
}

// ─── Reset Tests ───

func TestResetLocal_ClearsCacheOnly(t *testing.T) {
	cache := newFakeCache()
	queue := &fakeQueue{}
	s := NewSyncer(cache, queue)
	ctx := context.Background()

	s.UpdateActivityScore(ctx, "sess-1", "quiz", 90)
	syncsBefore := len(queue.syncs)

	if err := s.ResetLocal(ctx, "sess-1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	p := s.Get(ctx, "sess-1")
	if p.TotalScore != 0 || len(p.ActivityScores) != 0 {
		t.Error("Expected empty default after reset")
	}
	// Reset must not talk to the durable store
	if len(queue.syncs) != syncsBefore {
		t.Error("Reset must not enqueue sync jobs")
	}
}

func TestSaveReflection_Enqueues(t *testing.T) {
	queue := &fakeQueue{}
	s := NewSyncer(newFakeCache(), queue)

	s.SaveReflection(context.Background(), "sess-1", "wrap-up", "I learned AI needs data")

	if len(queue.reflections) != 1 {
		t.Fatalf("Expected 1 reflection job, got %d", len(queue.reflections))
	}
	if queue.reflections[0].activityID != "wrap-up" {
		t.Errorf("Expected activity wrap-up, got %q", queue.reflections[0].activityID)
	}
}
