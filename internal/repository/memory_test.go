package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/model"
)

func TestMemoryConversationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()

	id, err := repo.GetOrCreateConversationID(ctx, 1)
	require.NoError(t, err)
	again, err := repo.GetOrCreateConversationID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	msgs := []model.ChatMessage{{Seq: 0, Role: "system", Content: "hi"}}
	require.NoError(t, repo.UpdateConversationHistory(ctx, id, msgs))
	msgs[0].Content = "mutated"
	got, err := repo.GetConversationHistory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hi", got[0].Content)

	fresh, err := repo.ResetConversation(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, id, fresh)
	got, err = repo.GetConversationHistory(ctx, fresh)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	sess, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, sess)

	s := assessment.NewSession(assessment.SchemePSS)
	require.NoError(t, repo.Save(ctx, "c1", s))
	sess, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, assessment.SchemePSS, sess.Scheme)

	require.NoError(t, repo.Delete(ctx, "c1"))
	sess, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemoryKnowledgeBaseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryKnowledgeBaseRepository()

	inserted, err := repo.Insert(ctx, &model.KnowledgeBase{UserID: "7"})
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = repo.Insert(ctx, &model.KnowledgeBase{UserID: "7", QuestionWeights: map[string]float64{"0": 2}})
	require.NoError(t, err)
	assert.False(t, inserted)

	kb, err := repo.Get(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, kb.QuestionWeights)

	kb.QuestionWeights = map[string]float64{"0": 2}
	require.NoError(t, repo.Save(ctx, kb))
	kb, err = repo.Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 2.0, kb.QuestionWeights["0"])

	missing, err := repo.Get(ctx, "8")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
