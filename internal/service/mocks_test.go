package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"stress-guru-go/internal/model"
	"stress-guru-go/pkg/tasks"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(user *model.User) error {
	args := m.Called(user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *mockUserRepo) FindByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByID(userID uint) (*model.User, error) {
	args := m.Called(userID)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Update(user *model.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUserRepo) Delete(userID uint) error {
	return m.Called(userID).Error(0)
}

type mockKBRepo struct {
	mock.Mock
}

func (m *mockKBRepo) Get(ctx context.Context, userID string) (*model.KnowledgeBase, error) {
	args := m.Called(ctx, userID)
	if kb, ok := args.Get(0).(*model.KnowledgeBase); ok {
		return kb, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockKBRepo) Save(ctx context.Context, kb *model.KnowledgeBase) error {
	return m.Called(ctx, kb).Error(0)
}

func (m *mockKBRepo) Insert(ctx context.Context, kb *model.KnowledgeBase) (bool, error) {
	args := m.Called(ctx, kb)
	return args.Bool(0), args.Error(1)
}

type mockAssessmentRepo struct {
	mock.Mock
}

func (m *mockAssessmentRepo) Create(record *model.AssessmentRecord) error {
	args := m.Called(record)
	if args.Error(0) == nil {
		record.ID = 42
	}
	return args.Error(0)
}

func (m *mockAssessmentRepo) ListByUser(userID uint, scheme string, limit int) ([]model.AssessmentRecord, error) {
	args := m.Called(userID, scheme, limit)
	if rs, ok := args.Get(0).([]model.AssessmentRecord); ok {
		return rs, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, task tasks.LearningTask) error {
	return m.Called(ctx, task).Error(0)
}

func testNow() time.Time {
	return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
}
