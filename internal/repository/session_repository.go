package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"stress-guru-go/internal/assessment"
)

// SessionRepository 按对话保存评估状态机的状态。
type SessionRepository interface {
	// Get 返回对话的评估状态，不存在时返回 nil。
	Get(ctx context.Context, conversationID string) (*assessment.Session, error)
	Save(ctx context.Context, conversationID string, sess *assessment.Session) error
	Delete(ctx context.Context, conversationID string) error
}

type redisSessionRepository struct {
	redisClient *redis.Client
}

func NewSessionRepository(redisClient *redis.Client) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient}
}

func sessionKey(conversationID string) string {
	return fmt.Sprintf("session:%s", conversationID)
}

func (r *redisSessionRepository) Get(ctx context.Context, conversationID string) (*assessment.Session, error) {
	data, err := r.redisClient.Get(ctx, sessionKey(conversationID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var sess assessment.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (r *redisSessionRepository) Save(ctx context.Context, conversationID string, sess *assessment.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.redisClient.Set(ctx, sessionKey(conversationID), data, conversationTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, conversationID string) error {
	return r.redisClient.Del(ctx, sessionKey(conversationID)).Err()
}
