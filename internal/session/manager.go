// Package session owns "who is using the app right now": registration,
// name-based login, and cache-only restore. The manager is constructed once
// in main and injected wherever it is needed; per-request identity travels
// in the session token, never in package state.
package session

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"explorers-backend/internal/models"
	"explorers-backend/internal/repository"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByName(ctx context.Context, firstName, lastName string) (*models.User, int, error)
}

type progressStore interface {
	Get(ctx context.Context, sessionID string) (*models.Progress, error)
}

type cacheStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, sessionID string) (*models.User, error)
	SaveProgress(ctx context.Context, sessionID string, p *models.Progress) error
}

type tokenIssuer interface {
	GenerateToken(sessionID string) (string, error)
}

type Manager struct {
	users    userStore
	progress progressStore
	cache    cacheStore
	tokens   tokenIssuer
	validate *validator.Validate
}

func NewManager(users userStore, progress progressStore, cache cacheStore, tokens tokenIssuer) *Manager {
	v := validator.New()
	v.RegisterValidation("grade_level", func(fl validator.FieldLevel) bool {
		return models.IsGradeLevel(fl.Field().String())
	})

	return &Manager{
		users:    users,
		progress: progress,
		cache:    cache,
		tokens:   tokens,
		validate: v,
	}
}

// Register creates the user record and its empty progress document in the
// durable store, then seeds the cache and issues a token. The durable write
// is all-or-nothing; nothing is cached if it fails.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.SessionResponse, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.School = strings.TrimSpace(req.School)

	if err := m.validate.Struct(req); err != nil {
		return nil, &ValidationError{Fields: fieldErrors(err)}
	}

	user := &models.User{
		SessionID: models.NewSessionID(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Grade:     req.Grade,
		School:    req.School,
	}

	if err := m.users.Create(ctx, user); err != nil {
		return nil, &RemoteError{Op: "create user", Err: err}
	}

	// The durable write succeeded; cache seeding is best-effort.
	if err := m.cache.SaveUser(ctx, user); err != nil {
		log.Printf("session: failed to cache user %s: %v", user.SessionID, err)
	}
	if err := m.cache.SaveProgress(ctx, user.SessionID, models.NewProgress()); err != nil {
		log.Printf("session: failed to cache progress for %s: %v", user.SessionID, err)
	}

	return m.respond(user)
}

// Login looks a learner up by trimmed exact name. Outcomes are tri-state:
// a session, ErrUserNotFound, or a RemoteError. On success the remote
// progress document overwrites whatever the cache held for that session.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (*models.SessionResponse, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := m.validate.Struct(req); err != nil {
		return nil, &ValidationError{Fields: fieldErrors(err)}
	}

	user, matches, err := m.users.FindByName(ctx, req.FirstName, req.LastName)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, &RemoteError{Op: "find user", Err: err}
	}
	if matches > 1 {
		// Known product gap: duplicate names resolve to the earliest
		// registration with no disambiguation.
		log.Printf("session: %d users named %s %s, using earliest registration %s",
			matches, req.FirstName, req.LastName, user.SessionID)
	}

	remote, err := m.progress.Get(ctx, user.SessionID)
	if err != nil {
		// Login still succeeds; the cache keeps whatever it had and the
		// next explicit login retries the pull.
		log.Printf("session: failed to pull progress for %s: %v", user.SessionID, err)
	} else {
		if remote == nil {
			remote = models.NewProgress()
		}
		if err := m.cache.SaveProgress(ctx, user.SessionID, remote); err != nil {
			log.Printf("session: failed to cache progress for %s: %v", user.SessionID, err)
		}
	}

	if err := m.cache.SaveUser(ctx, user); err != nil {
		log.Printf("session: failed to cache user %s: %v", user.SessionID, err)
	}

	return m.respond(user)
}

// Restore answers "is this session still known here" from the cache alone.
// A plain reload never touches the durable store; only an explicit login
// re-pulls remote progress.
func (m *Manager) Restore(ctx context.Context, sessionID string) (*models.User, error) {
	user, err := m.cache.GetUser(ctx, sessionID)
	if err != nil {
		return nil, &RemoteError{Op: "read session cache", Err: err}
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

func (m *Manager) respond(user *models.User) (*models.SessionResponse, error) {
	token, err := m.tokens.GenerateToken(user.SessionID)
	if err != nil {
		return nil, &RemoteError{Op: "issue token", Err: err}
	}
	return &models.SessionResponse{
		User:        user,
		SessionID:   user.SessionID,
		AccessToken: token,
	}, nil
}

func fieldErrors(err error) map[string]string {
	fields := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["request"] = "invalid request"
		return fields
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "This field is required"
		case "grade_level":
			fields[fe.Field()] = "Must be one of the twelve grade levels"
		case "max":
			fields[fe.Field()] = "Too long"
		default:
			fields[fe.Field()] = "Invalid value"
		}
	}
	return fields
}
