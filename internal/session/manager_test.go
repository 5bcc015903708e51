package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"explorers-backend/internal/models"
	"explorers-backend/internal/repository"
)

type fakeUserStore struct {
	users     []*models.User
	createErr error
	findErr   error
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	user.CreatedAt = time.Now().UTC()
	s.users = append(s.users, user)
	return nil
}

func (s *fakeUserStore) FindByName(ctx context.Context, firstName, lastName string) (*models.User, int, error) {
	if s.findErr != nil {
		return nil, 0, s.findErr
	}
	var matches []*models.User
	for _, u := range s.users {
		if u.FirstName == firstName && u.LastName == lastName {
			matches = append(matches, u)
		}
	}
	if len(matches) == 0 {
		return nil, 0, repository.ErrNotFound
	}
	return matches[0], len(matches), nil
}

type fakeProgressStore struct {
	docs   map[string]*models.Progress
	getErr error
}

func (s *fakeProgressStore) Get(ctx context.Context, sessionID string) (*models.Progress, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.docs[sessionID], nil
}

type fakeSessionCache struct {
	users    map[string]*models.User
	progress map[string]*models.Progress
	saveErr  error
	getErr   error
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		users:    make(map[string]*models.User),
		progress: make(map[string]*models.Progress),
	}
}

func (c *fakeSessionCache) SaveUser(ctx context.Context, user *models.User) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.users[user.SessionID] = user
	return nil
}

func (c *fakeSessionCache) GetUser(ctx context.Context, sessionID string) (*models.User, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.users[sessionID], nil
}

func (c *fakeSessionCache) SaveProgress(ctx context.Context, sessionID string, p *models.Progress) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.progress[sessionID] = p
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(sessionID string) (string, error) {
	return "token-for-" + sessionID, nil
}

func newTestManager() (*Manager, *fakeUserStore, *fakeProgressStore, *fakeSessionCache) {
	users := &fakeUserStore{}
	progress := &fakeProgressStore{docs: make(map[string]*models.Progress)}
	cache := newFakeSessionCache()
	return NewManager(users, progress, cache, fakeTokens{}), users, progress, cache
}

func adaRequest() models.RegisterRequest {
	return models.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Grade:     "Grade 10",
		School:    "Analytical Engine HS",
	}
}

// ─── Register Tests ───

func TestRegister_CreatesSessionWithEmptyProgress(t *testing.T) {
	m, users, _, cache := newTestManager()

	resp, err := m.Register(context.Background(), adaRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if resp.SessionID == "" {
		t.Error("Expected a generated session id")
	}
	if resp.AccessToken == "" {
		t.Error("Expected an access token")
	}
	if len(users.users) != 1 {
		t.Fatalf("Expected 1 durable user, got %d", len(users.users))
	}

	cached := cache.progress[resp.SessionID]
	if cached == nil {
		t.Fatal("Expected empty progress in cache")
	}
	if cached.TotalScore != 0 || len(cached.CompletedLessons) != 0 {
		t.Error("Initial progress should be empty")
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RegisterRequest)
	}{
		{"missing first name", func(r *models.RegisterRequest) { r.FirstName = "" }},
		{"missing last name", func(r *models.RegisterRequest) { r.LastName = "" }},
		{"whitespace-only school", func(r *models.RegisterRequest) { r.School = "   " }},
		{"bad grade", func(r *models.RegisterRequest) { r.Grade = "Grade 13" }},
		{"missing grade", func(r *models.RegisterRequest) { r.Grade = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, users, _, _ := newTestManager()
			req := adaRequest()
			tc.mutate(&req)

			_, err := m.Register(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(users.users) != 0 {
				t.Error("Nothing should be persisted on validation failure")
			}
		})
	}
}

func TestRegister_RemoteFailureLeavesNothingCached(t *testing.T) {
	m, users, _, cache := newTestManager()
	users.createErr = errors.New("store unreachable")

	_, err := m.Register(context.Background(), adaRequest())
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
	if len(cache.users) != 0 || len(cache.progress) != 0 {
		t.Error("Cache must stay empty when the durable write fails")
	}
}

// ─── Login Tests ───

func TestLogin_NotFound(t *testing.T) {
	m, _, _, _ := newTestManager()

	_, err := m.Login(context.Background(), models.LoginRequest{FirstName: "Grace", LastName: "Hopper"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestLogin_TrimsNames(t *testing.T) {
	m, _, _, _ := newTestManager()
	if _, err := m.Register(context.Background(), adaRequest()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp, err := m.Login(context.Background(), models.LoginRequest{FirstName: "  Ada ", LastName: " Lovelace  "})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.User.FirstName != "Ada" {
		t.Errorf("Expected Ada, got %q", resp.User.FirstName)
	}
}

func TestLogin_RemoteProgressOverwritesCache(t *testing.T) {
	m, _, progress, cache := newTestManager()
	resp, err := m.Register(context.Background(), adaRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Stale local copy, richer remote copy
	stale := models.NewProgress()
	stale.ApplyScore("quiz", 10)
	cache.progress[resp.SessionID] = stale

	remote := models.NewProgress()
	remote.CompleteLesson("what-is-ai")
	remote.ApplyScore("quiz", 85)
	remote.AwardBadge("explorer")
	progress.docs[resp.SessionID] = remote

	if _, err := m.Login(context.Background(), models.LoginRequest{FirstName: "Ada", LastName: "Lovelace"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	cached := cache.progress[resp.SessionID]
	if cached.ActivityScores["quiz"] != 85 {
		t.Errorf("Remote must win on login: expected 85, got %d", cached.ActivityScores["quiz"])
	}
	if len(cached.CompletedLessons) != 1 || len(cached.Badges) != 1 {
		t.Error("Remote lessons and badges must replace local state")
	}
}

func TestLogin_MissingRemoteProgressCachesEmptyDefault(t *testing.T) {
	m, _, _, cache := newTestManager()
	resp, err := m.Register(context.Background(), adaRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	delete(cache.progress, resp.SessionID)

	if _, err := m.Login(context.Background(), models.LoginRequest{FirstName: "Ada", LastName: "Lovelace"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	cached := cache.progress[resp.SessionID]
	if cached == nil || cached.TotalScore != 0 {
		t.Error("Expected empty default progress when remote document is missing")
	}
}

func TestLogin_LookupFailureSurfacesRemoteError(t *testing.T) {
	m, users, _, _ := newTestManager()
	users.findErr = errors.New("store unreachable")

	_, err := m.Login(context.Background(), models.LoginRequest{FirstName: "Ada", LastName: "Lovelace"})
	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
}

// ─── Restore Tests ───

func TestRestore_CacheHit(t *testing.T) {
	m, _, _, _ := newTestManager()
	resp, err := m.Register(context.Background(), adaRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, err := m.Restore(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if user.SessionID != resp.SessionID {
		t.Errorf("Expected session %s, got %s", resp.SessionID, user.SessionID)
	}
}

func TestRestore_CacheMiss(t *testing.T) {
	m, _, _, _ := newTestManager()

	_, err := m.Restore(context.Background(), "session_123_unknown")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

// ─── Durability Tests ───

func TestResetThenLogin_RemoteSurvives(t *testing.T) {
	// A local wipe clears the cache tier only; an explicit login pulls the
	// durable copy back down.
	m, _, progress, cache := newTestManager()
	resp, err := m.Register(context.Background(), adaRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	remote := models.NewProgress()
	remote.ApplyScore("build-ai", 95)
	progress.docs[resp.SessionID] = remote

	// Simulated local reset
	delete(cache.progress, resp.SessionID)

	if _, err := m.Login(context.Background(), models.LoginRequest{FirstName: "Ada", LastName: "Lovelace"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	cached := cache.progress[resp.SessionID]
	if cached == nil || cached.ActivityScores["build-ai"] != 95 {
		t.Error("Login after reset must restore the durable progress")
	}
}
