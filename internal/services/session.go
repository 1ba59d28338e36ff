package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aqibcreates/teachreach-backend/internal/lifecycle"
	"github.com/aqibcreates/teachreach-backend/internal/models"
)

const (
	// SessionDuration is 7 days.
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix maps token -> account snapshot (JSON).
	SessionKeyPrefix = "session:"
	// AccountSessionKeyPrefix maps account id -> current token.
	AccountSessionKeyPrefix = "account_session:"
)

// RedisSessions implements lifecycle.SessionStore on Redis. Tokens survive
// process restarts, which is how a client reconstructs its session at
// startup. Each account holds at most one session: creating a new one
// invalidates the old, so the 7-day timer always resets from the last login.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func (s *RedisSessions) Create(ctx context.Context, account *models.Account) (*lifecycle.Session, error) {
	_ = s.InvalidateAccount(ctx, account.ID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	snapshot, err := json.Marshal(account)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, SessionKeyPrefix+token, snapshot, SessionDuration).Err(); err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, AccountSessionKeyPrefix+account.ID, token, SessionDuration).Err(); err != nil {
		return nil, err
	}

	return &lifecycle.Session{Token: token, Account: account}, nil
}

func (s *RedisSessions) Get(ctx context.Context, token string) (*lifecycle.Session, error) {
	if token == "" {
		return nil, lifecycle.ErrNotFound
	}

	raw, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, lifecycle.ErrNotFound
		}
		return nil, err
	}

	var account models.Account
	if err := json.Unmarshal([]byte(raw), &account); err != nil {
		return nil, err
	}
	return &lifecycle.Session{Token: token, Account: &account}, nil
}

// Refresh replaces the cached snapshot without touching the expiry.
func (s *RedisSessions) Refresh(ctx context.Context, token string, account *models.Account) error {
	snapshot, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, SessionKeyPrefix+token, snapshot, redis.KeepTTL).Err()
}

func (s *RedisSessions) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	// Drop the account -> token mapping alongside the session itself.
	if raw, err := s.client.Get(ctx, SessionKeyPrefix+token).Result(); err == nil {
		var account models.Account
		if json.Unmarshal([]byte(raw), &account) == nil && account.ID != "" {
			s.client.Del(ctx, AccountSessionKeyPrefix+account.ID)
		}
	}

	return s.client.Del(ctx, SessionKeyPrefix+token).Err()
}

// InvalidateAccount removes whatever session the account currently holds.
func (s *RedisSessions) InvalidateAccount(ctx context.Context, accountID string) error {
	key := AccountSessionKeyPrefix + accountID

	token, err := s.client.Get(ctx, key).Result()
	if err == nil && token != "" {
		s.client.Del(ctx, SessionKeyPrefix+token)
	}

	return s.client.Del(ctx, key).Err()
}

// TokenForAccount returns the account's current session token, if any.
// Used by the account-event subscriber to refresh cached snapshots.
func (s *RedisSessions) TokenForAccount(ctx context.Context, accountID string) (string, error) {
	token, err := s.client.Get(ctx, AccountSessionKeyPrefix+accountID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", lifecycle.ErrNotFound
		}
		return "", err
	}
	return token, nil
}
