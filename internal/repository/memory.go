package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/model"
)

// 进程内实现，供离线命令行使用。数据按 JSON 存储，与 Redis/Mongo 实现的拷贝语义一致。

type memoryConversationRepository struct {
	mu       sync.Mutex
	current  map[uint]string
	messages map[string][]byte
}

func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{current: make(map[uint]string), messages: make(map[string][]byte)}
}

func (r *memoryConversationRepository) GetOrCreateConversationID(ctx context.Context, userID uint) (string, error) {
	r.mu.Lock()
	convID, ok := r.current[userID]
	r.mu.Unlock()
	if ok {
		return convID, nil
	}
	return r.ResetConversation(ctx, userID)
}

func (r *memoryConversationRepository) ResetConversation(_ context.Context, userID uint) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.current[userID]; ok {
		delete(r.messages, old)
	}
	convID := uuid.NewString()
	r.current[userID] = convID
	return convID, nil
}

func (r *memoryConversationRepository) GetConversationHistory(_ context.Context, conversationID string) ([]model.ChatMessage, error) {
	r.mu.Lock()
	data, ok := r.messages[conversationID]
	r.mu.Unlock()
	if !ok {
		return []model.ChatMessage{}, nil
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *memoryConversationRepository) UpdateConversationHistory(_ context.Context, conversationID string, messages []model.ChatMessage) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.messages[conversationID] = data
	r.mu.Unlock()
	return nil
}

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string][]byte)}
}

func (r *memorySessionRepository) Get(_ context.Context, conversationID string) (*assessment.Session, error) {
	r.mu.Lock()
	data, ok := r.sessions[conversationID]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var sess assessment.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *memorySessionRepository) Save(_ context.Context, conversationID string, sess *assessment.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[conversationID] = data
	r.mu.Unlock()
	return nil
}

func (r *memorySessionRepository) Delete(_ context.Context, conversationID string) error {
	r.mu.Lock()
	delete(r.sessions, conversationID)
	r.mu.Unlock()
	return nil
}

type memoryKnowledgeBaseRepository struct {
	mu    sync.Mutex
	bases map[string][]byte
}

func NewMemoryKnowledgeBaseRepository() KnowledgeBaseRepository {
	return &memoryKnowledgeBaseRepository{bases: make(map[string][]byte)}
}

func (r *memoryKnowledgeBaseRepository) Get(_ context.Context, userID string) (*model.KnowledgeBase, error) {
	r.mu.Lock()
	data, ok := r.bases[userID]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var kb model.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

func (r *memoryKnowledgeBaseRepository) Save(_ context.Context, kb *model.KnowledgeBase) error {
	data, err := json.Marshal(kb)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.bases[kb.UserID] = data
	r.mu.Unlock()
	return nil
}

func (r *memoryKnowledgeBaseRepository) Insert(_ context.Context, kb *model.KnowledgeBase) (bool, error) {
	data, err := json.Marshal(kb)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bases[kb.UserID]; ok {
		return false, nil
	}
	r.bases[kb.UserID] = data
	return true, nil
}
