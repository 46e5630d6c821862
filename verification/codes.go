package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Код привязки Telegram живёт 10 минут и гасится при первом использовании.
const codeTTL = 10 * time.Minute

const keyPrefix = "telegram_auth:"

var ErrCodeNotFound = errors.New("verification code not found or expired")

// CodeStore выдаёт и гасит одноразовые коды привязки Telegram-аккаунта.
type CodeStore interface {
	Issue(ctx context.Context, telegramID int64) (string, error)
	// Consume возвращает telegram id и удаляет код; повторный вызов с тем же
	// кодом возвращает ErrCodeNotFound.
	Consume(ctx context.Context, code string) (int64, error)
}

type redisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) CodeStore {
	return &redisCodeStore{client: client}
}

func (s *redisCodeStore) Issue(ctx context.Context, telegramID int64) (string, error) {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	key := keyPrefix + code
	if err := s.client.Set(ctx, key, telegramID, codeTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

func (s *redisCodeStore) Consume(ctx context.Context, code string) (int64, error) {
	key := keyPrefix + code
	value, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCodeNotFound
		}
		return 0, fmt.Errorf("failed to consume verification code: %w", err)
	}
	telegramID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupted verification code payload: %w", err)
	}
	return telegramID, nil
}
