package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.AssessmentRecord{}))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	u := &model.User{Email: "a@b.com", Username: "a", Password: "hash", Role: model.RoleUser}
	require.NoError(t, repo.Create(u))
	require.NotZero(t, u.ID)

	got, err := repo.FindByEmail("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.FindByEmail("missing@b.com")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, repo.Create(&model.User{Email: "a@b.com", Username: "dup", Password: "x"}))

	got.Password = "new-hash"
	require.NoError(t, repo.Update(got))
	byID, err := repo.FindByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", byID.Password)

	require.NoError(t, repo.Delete(u.ID))
	_, err = repo.FindByID(u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssessmentRepository_ListByUser(t *testing.T) {
	repo := NewAssessmentRepository(newTestDB(t))
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	conf := 0.8
	for i := 0; i < 7; i++ {
		scheme := model.SchemePSS
		if i%2 == 1 {
			scheme = model.SchemeDASS
		}
		require.NoError(t, repo.Create(&model.AssessmentRecord{
			UserID:            1,
			Scheme:            scheme,
			Responses:         []model.ResponseItem{{Index: 0, Label: "never"}},
			CategoryScores:    []model.CategoryScore{{Category: "Stress", Score: i, Label: "Normal"}},
			Score:             float64(i),
			StressLevel:       "low stress",
			Confidence:        &conf,
			QuestionsAnswered: 1,
			CreatedAt:         base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Create(&model.AssessmentRecord{UserID: 2, Scheme: model.SchemePSS, StressLevel: "x", CreatedAt: base}))

	all, err := repo.ListByUser(1, "", 5)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 6.0, all[0].Score)
	assert.Equal(t, 2.0, all[4].Score)
	assert.Equal(t, "never", all[0].Responses[0].Label)
	assert.Equal(t, 6, all[0].CategoryScores[0].Score)

	pss, err := repo.ListByUser(1, model.SchemePSS, 0)
	require.NoError(t, err)
	assert.Len(t, pss, 4)
	for _, r := range pss {
		assert.Equal(t, model.SchemePSS, r.Scheme)
	}
}

func TestConversationRepository(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewConversationRepository(rdb)
	ctx := context.Background()

	id1, err := repo.GetOrCreateConversationID(ctx, 9)
	require.NoError(t, err)
	id2, err := repo.GetOrCreateConversationID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	history, err := repo.GetConversationHistory(ctx, id1)
	require.NoError(t, err)
	assert.Empty(t, history)

	var msgs []model.ChatMessage
	for i := 0; i < 30; i++ {
		msgs = append(msgs, model.ChatMessage{Seq: i, Role: "user", Content: "hi"})
	}
	require.NoError(t, repo.UpdateConversationHistory(ctx, id1, msgs))
	history, err = repo.GetConversationHistory(ctx, id1)
	require.NoError(t, err)
	assert.Len(t, history, 30)
	assert.Greater(t, mr.TTL("conversation:"+id1).Hours(), 24.0)

	id3, err := repo.ResetConversation(ctx, 9)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
	current, err := repo.GetOrCreateConversationID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, id3, current)
}

func TestSessionRepository(t *testing.T) {
	_, rdb := newTestRedis(t)
	repo := NewSessionRepository(rdb)
	ctx := context.Background()

	sess, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, sess)

	q := assessment.Question{Index: 3, Text: "q", Category: "Stress"}
	in := &assessment.Session{
		Phase:         assessment.PhaseInProgress,
		Scheme:        assessment.SchemeDASS,
		QuestionIndex: 3,
		Current:       &q,
		Responses:     []assessment.Response{{Index: 0, Category: "Stress", Score: 2}},
	}
	require.NoError(t, repo.Save(ctx, "c1", in))

	out, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, repo.Delete(ctx, "c1"))
	out, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, out)
}
