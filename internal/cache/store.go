// Package cache is the fast tier: a Redis copy of user and progress
// documents keyed by session id. It mirrors the browser's local storage
// role — working storage for the active session, never the durable ledger.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"

	"explorers-backend/internal/models"
)

const (
	userKeyPrefix     = "explorers:user:"
	progressKeyPrefix = "explorers:progress:"
)

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, userKeyPrefix+user.SessionID, data, 0).Err()
}

// GetUser returns (nil, nil) on a cache miss.
func (s *Store) GetUser(ctx context.Context, sessionID string) (*models.User, error) {
	data, err := s.rdb.Get(ctx, userKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user := &models.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) SaveProgress(ctx context.Context, sessionID string, p *models.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, progressKeyPrefix+sessionID, data, 0).Err()
}

// GetProgress always hands back a usable document: a miss or a corrupt
// entry yields the empty default, matching how the frontend treated its
// local store. Only transport failures return an error, and even then the
// default accompanies it so callers can degrade instead of failing.
func (s *Store) GetProgress(ctx context.Context, sessionID string) (*models.Progress, error) {
	data, err := s.rdb.Get(ctx, progressKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.NewProgress(), nil
	}
	if err != nil {
		return models.NewProgress(), err
	}

	p := models.NewProgress()
	if err := json.Unmarshal(data, p); err != nil {
		log.Printf("cache: corrupt progress entry for %s, using empty default: %v", sessionID, err)
		return models.NewProgress(), nil
	}
	return p, nil
}

// Reset clears the progress entry only. The user entry and the Postgres
// record stay put; a later login pulls the durable copy back down.
func (s *Store) Reset(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, progressKeyPrefix+sessionID).Err()
}
