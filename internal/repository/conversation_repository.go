// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"stress-guru-go/internal/model"
)

const conversationTTL = 7 * 24 * time.Hour

// ConversationRepository 定义了对话记录的操作接口。对话记录只追加，不做截断。
type ConversationRepository interface {
	GetOrCreateConversationID(ctx context.Context, userID uint) (string, error)
	// ResetConversation 为用户开启新的对话，旧对话随 TTL 过期。
	ResetConversation(ctx context.Context, userID uint) (string, error)
	GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	UpdateConversationHistory(ctx context.Context, conversationID string, messages []model.ChatMessage) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func userConversationKey(userID uint) string {
	return fmt.Sprintf("user:%d:current_conversation", userID)
}

func conversationKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s", conversationID)
}

// GetOrCreateConversationID 获取或创建一个新的对话ID。
func (r *redisConversationRepository) GetOrCreateConversationID(ctx context.Context, userID uint) (string, error) {
	convID, err := r.redisClient.Get(ctx, userConversationKey(userID)).Result()
	if err == redis.Nil {
		return r.ResetConversation(ctx, userID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get conversation id: %w", err)
	}
	// 续期，活跃用户的对话不会中途过期
	_ = r.redisClient.Expire(ctx, userConversationKey(userID), conversationTTL).Err()
	return convID, nil
}

func (r *redisConversationRepository) ResetConversation(ctx context.Context, userID uint) (string, error) {
	convID := uuid.NewString()
	if err := r.redisClient.Set(ctx, userConversationKey(userID), convID, conversationTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to set conversation id: %w", err)
	}
	return convID, nil
}

// GetConversationHistory 从 Redis 获取对话记录。
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, conversationKey(conversationID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// UpdateConversationHistory 在 Redis 中覆盖保存完整的对话记录。
func (r *redisConversationRepository) UpdateConversationHistory(ctx context.Context, conversationID string, messages []model.ChatMessage) error {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, conversationKey(conversationID), jsonData, conversationTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}
