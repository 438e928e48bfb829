package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound means the code was never issued, already consumed, or expired.
var ErrCodeNotFound = errors.New("login code not found or expired")

// LoginCodeStore is the handoff channel between the messaging bot and the API:
// the bot saves a short-lived code for an identity, the login endpoint consumes
// it exactly once.
type LoginCodeStore interface {
	Save(ctx context.Context, code string, telegramID string, ttl time.Duration) error
	Consume(ctx context.Context, code string) (string, error)
}

const loginCodePrefix = "login_code:"

type redisLoginCodeStore struct {
	client *redis.Client
}

func NewRedisLoginCodeStore(client *redis.Client) LoginCodeStore {
	return &redisLoginCodeStore{client: client}
}

func (s *redisLoginCodeStore) Save(ctx context.Context, code string, telegramID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, loginCodePrefix+code, telegramID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save login code: %w", err)
	}
	return nil
}

// Consume uses GETDEL so a code can be redeemed at most once even under
// concurrent login attempts.
func (s *redisLoginCodeStore) Consume(ctx context.Context, code string) (string, error) {
	telegramID, err := s.client.GetDel(ctx, loginCodePrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to consume login code: %w", err)
	}
	return telegramID, nil
}
