package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stress-guru-go/internal/adaptive"
	"stress-guru-go/internal/model"
	"stress-guru-go/pkg/tasks"
)

func newPSSService() (PSSService, *mockKBRepo, *mockAssessmentRepo, *mockPublisher) {
	kbs := &mockKBRepo{}
	records := &mockAssessmentRepo{}
	pub := &mockPublisher{}
	return NewPSSService(kbs, records, pub), kbs, records, pub
}

func allAnswered(label string) []model.PSSResponse {
	out := make([]model.PSSResponse, len(adaptive.Questions))
	for i := range out {
		out[i] = model.PSSResponse{Index: i, Label: label}
	}
	return out
}

func TestPSSQuestions(t *testing.T) {
	svc, _, _, _ := newPSSService()
	q := svc.Questions()
	assert.Len(t, q.Questions, 10)
	assert.Equal(t, []int{3, 4, 6, 7}, q.ReverseScoreQuestions)

	q.ReverseScoreQuestions[0] = 99
	assert.Equal(t, 3, adaptive.ReverseScored[0])
}

func TestPSSNextQuestion(t *testing.T) {
	svc, kbs, _, _ := newPSSService()
	ctx := context.Background()
	kbs.On("Get", mock.Anything, "3").Return(adaptive.SeedKnowledgeBase("3", testNow()), nil)

	next, err := svc.NextQuestion(ctx, 3, nil)
	require.NoError(t, err)
	require.NotNil(t, next.QuestionIndex)
	assert.Equal(t, 0, *next.QuestionIndex)
	assert.Equal(t, adaptive.Questions[0], next.Question)
	assert.False(t, next.Complete)

	next, err = svc.NextQuestion(ctx, 3, allAnswered("never"))
	require.NoError(t, err)
	assert.True(t, next.Complete)
	assert.Nil(t, next.QuestionIndex)

	_, err = svc.NextQuestion(ctx, 3, []model.PSSResponse{{Index: 0, Label: "always"}})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Invalid response value: always", vErr.Message)
}

func TestPSSNextQuestion_KnowledgeBaseUnavailable(t *testing.T) {
	svc, kbs, _, _ := newPSSService()
	kbs.On("Get", mock.Anything, "3").Return(nil, errors.New("mongo down"))

	next, err := svc.NextQuestion(context.Background(), 3, []model.PSSResponse{{Index: 0, Label: "never"}})
	require.NoError(t, err)
	require.NotNil(t, next.QuestionIndex)
	assert.NotEqual(t, 0, *next.QuestionIndex)
}

func TestPSSAssess(t *testing.T) {
	svc, kbs, records, pub := newPSSService()
	kbs.On("Get", mock.Anything, "3").Return(nil, nil)
	records.On("Create", mock.MatchedBy(func(r *model.AssessmentRecord) bool {
		return r.UserID == 3 && r.Scheme == model.SchemePSS && r.QuestionsAnswered == 10 && r.Confidence != nil
	})).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(task tasks.LearningTask) bool {
		return task.AssessmentID == 42 && task.UserID == 3 && len(task.Responses) == 10
	})).Return(nil)

	res, err := svc.Assess(context.Background(), 3, allAnswered("Never"))
	require.NoError(t, err)
	// 6 道正向题记 0 分，4 道反向题各记 4 分
	assert.Equal(t, 16.0, res.Score)
	assert.Equal(t, 10, res.QuestionsAnswered)
	assert.NotEmpty(t, res.StressLevel)
	require.NotNil(t, res.Confidence)
	assert.Greater(t, *res.Confidence, 0.0)
	records.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestPSSAssess_PartialScaling(t *testing.T) {
	svc, kbs, records, pub := newPSSService()
	kbs.On("Get", mock.Anything, "3").Return(nil, nil)
	records.On("Create", mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	res, err := svc.Assess(context.Background(), 3, []model.PSSResponse{
		{Index: 0, Label: "very often"},
		{Index: 3, Label: "never"},
	})
	require.NoError(t, err, "publish failures do not fail the assessment")
	assert.Equal(t, 40.0, res.Score)
	assert.Equal(t, 2, res.QuestionsAnswered)
}

func TestPSSAssess_Validation(t *testing.T) {
	svc, _, records, _ := newPSSService()
	var vErr *ValidationError

	_, err := svc.Assess(context.Background(), 3, nil)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "No responses provided", vErr.Message)

	_, err = svc.Assess(context.Background(), 3, []model.PSSResponse{{Index: 12, Label: "never"}})
	require.True(t, errors.As(err, &vErr))

	records.AssertNotCalled(t, "Create", mock.Anything)
}

func TestPSSAssess_StoreFailure(t *testing.T) {
	svc, kbs, records, pub := newPSSService()
	kbs.On("Get", mock.Anything, "3").Return(nil, nil)
	records.On("Create", mock.Anything).Return(errors.New("mysql down"))

	_, err := svc.Assess(context.Background(), 3, allAnswered("sometimes"))
	assert.Error(t, err)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPSSHistory(t *testing.T) {
	svc, _, records, _ := newPSSService()
	records.On("ListByUser", uint(3), model.SchemePSS, 5).Return([]model.AssessmentRecord{{ID: 2}, {ID: 1}}, nil)

	got, err := svc.History(context.Background(), 3, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
