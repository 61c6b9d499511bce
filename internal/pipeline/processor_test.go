package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress-guru-go/internal/adaptive"
	"stress-guru-go/internal/model"
	"stress-guru-go/pkg/tasks"
)

type memoryKB struct {
	kbs     map[string]*model.KnowledgeBase
	getErr  error
	saveErr error
}

func (m *memoryKB) Get(_ context.Context, userID string) (*model.KnowledgeBase, error) {
	return m.kbs[userID], m.getErr
}

func (m *memoryKB) Save(_ context.Context, kb *model.KnowledgeBase) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.kbs[kb.UserID] = kb
	return nil
}

func (m *memoryKB) Insert(_ context.Context, kb *model.KnowledgeBase) (bool, error) {
	if _, ok := m.kbs[kb.UserID]; ok {
		return false, nil
	}
	m.kbs[kb.UserID] = kb
	return true, nil
}

func highStressTask() tasks.LearningTask {
	return tasks.LearningTask{
		AssessmentID: 5,
		UserID:       11,
		Responses: []model.PSSResponse{
			{Index: 0, Label: "very often"},
			{Index: 1, Label: "very often"},
			{Index: 2, Label: "fairly often"},
			{Index: 3, Label: "almost never"},
			{Index: 4, Label: "almost never"},
		},
		StressLevel: adaptive.LevelHigh,
		Score:       34,
	}
}

func TestProcess_BumpsMatchingPattern(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &memoryKB{kbs: map[string]*model.KnowledgeBase{"11": adaptive.SeedKnowledgeBase("11", now)}}
	p := NewProcessor(repo)

	require.NoError(t, InlinePublisher{Processor: p}.Publish(context.Background(), highStressTask()))

	kb := repo.kbs["11"]
	require.Len(t, kb.Patterns, 2)
	assert.Equal(t, 6, kb.Patterns[0].Frequency)
	require.Len(t, kb.HistoricalData, 1)
	assert.Equal(t, 34.0, kb.HistoricalData[0].Score)
}

func TestProcess_SeedsMissingKnowledgeBase(t *testing.T) {
	repo := &memoryKB{kbs: map[string]*model.KnowledgeBase{}}
	task := highStressTask()
	task.StressLevel = adaptive.LevelModerate

	require.NoError(t, NewProcessor(repo).Process(context.Background(), task))
	kb := repo.kbs["11"]
	require.NotNil(t, kb)
	require.Len(t, kb.Patterns, 3)
	assert.Equal(t, adaptive.LevelModerate, kb.Patterns[2].StressLevel)
	assert.Equal(t, 1, kb.Patterns[2].Frequency)
}

func TestProcess_Errors(t *testing.T) {
	p := NewProcessor(&memoryKB{kbs: map[string]*model.KnowledgeBase{}, getErr: errors.New("timeout")})
	assert.Error(t, p.Process(context.Background(), highStressTask()))

	p = NewProcessor(&memoryKB{kbs: map[string]*model.KnowledgeBase{}, saveErr: errors.New("timeout")})
	assert.Error(t, p.Process(context.Background(), highStressTask()))
}
