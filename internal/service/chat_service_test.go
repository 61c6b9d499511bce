package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stress-guru-go/internal/adaptive"
	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/model"
	"stress-guru-go/internal/repository"
)

type fakeGateway struct {
	questions  int
	err        error
	assessed   []model.PSSResponse
	confidence *float64
}

func (f *fakeGateway) NextQuestion(_ context.Context, answered []model.PSSResponse) (*model.PSSNextQuestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(answered) >= f.questions {
		return &model.PSSNextQuestion{Complete: true}, nil
	}
	idx := len(answered)
	return &model.PSSNextQuestion{Question: adaptive.Questions[idx], QuestionIndex: &idx}, nil
}

func (f *fakeGateway) Assess(_ context.Context, responses []model.PSSResponse) (*model.PSSAssessment, error) {
	f.assessed = responses
	return &model.PSSAssessment{Score: 20, StressLevel: adaptive.LevelModerate, Confidence: f.confidence, QuestionsAnswered: len(responses)}, nil
}

func (f *fakeGateway) History(context.Context) ([]model.AssessmentRecord, error) {
	return nil, nil
}

var defaultConfidence = 0.75

type chatFixture struct {
	svc     ChatService
	records *mockAssessmentRepo
	gw      *fakeGateway
	user    *model.User
}

func newChatFixture(t *testing.T) *chatFixture {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	f := &chatFixture{
		records: &mockAssessmentRepo{},
		gw:      &fakeGateway{questions: 2, confidence: &defaultConfidence},
		user:    &model.User{ID: 9, Email: "sam@example.com", Username: "sam"},
	}
	f.svc = NewChatService(
		assessment.DefaultContent(),
		repository.NewConversationRepository(rdb),
		repository.NewSessionRepository(rdb),
		f.records,
		func(*model.User, string) PSSGateway { return f.gw },
		ChatOptions{DefaultScheme: assessment.SchemeDASS, HistoryLimit: 5},
		assessment.WithClock(testNow),
		assessment.WithPicker(func(int) int { return 0 }),
	)
	return f
}

func texts(entries []assessment.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func (f *chatFixture) say(t *testing.T, msg string) []string {
	t.Helper()
	out, err := f.svc.HandleTurn(context.Background(), f.user, "tok", msg)
	require.NoError(t, err)
	return texts(out)
}

func TestChatStart_GreetsOnce(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	entries, err := f.svc.Start(ctx, f.user, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Good morning! How are you feeling today?"}, texts(entries))

	entries, err = f.svc.Start(ctx, f.user, "tok", "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestChat_GreetingReactionThenConsent(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.svc.Start(context.Background(), f.user, "tok", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"I'm good, thanks", "That's wonderful to hear!", assessment.MsgConsent}, f.say(t, "I'm good, thanks"))
}

func TestChat_DASSFlow(t *testing.T) {
	f := newChatFixture(t)
	f.records.On("Create", mock.MatchedBy(func(r *model.AssessmentRecord) bool {
		return r.Scheme == model.SchemeDASS && r.UserID == 9 && len(r.CategoryScores) == 3 && r.QuestionsAnswered == 21
	})).Return(nil)
	f.records.On("ListByUser", uint(9), model.SchemeDASS, 5).Return([]model.AssessmentRecord{{
		Scheme:         model.SchemeDASS,
		CreatedAt:      testNow(),
		CategoryScores: []model.CategoryScore{{Category: "Stress", Score: 42, Label: "Extremely Severe"}},
	}}, nil)

	out := f.say(t, "yes")
	assert.Equal(t, "Good morning! How are you feeling today?", out[0])
	assert.Contains(t, out, assessment.MsgAccept)
	assert.Equal(t, assessment.DefaultQuestions()[0].Text, out[len(out)-1])

	assert.Equal(t, []string{"hmm", assessment.MsgDASSHint}, f.say(t, "hmm"))

	var last []string
	for i := 0; i < 21; i++ {
		last = f.say(t, "often")
	}
	assert.Contains(t, last, "Stress: 42 - Extremely Severe")
	assert.Equal(t, assessment.MsgOfferHistory, last[len(last)-1])
	f.records.AssertCalled(t, "Create", mock.Anything)

	out = f.say(t, "yes")
	assert.Contains(t, out, assessment.MsgHistoryHeader)
	assert.Equal(t, assessment.MsgOfferRestart, out[len(out)-1])

	assert.Equal(t, []string{"no", assessment.MsgGoodbye}, f.say(t, "no"))

	transcript, err := f.svc.Transcript(context.Background(), f.user)
	require.NoError(t, err)
	for i, e := range transcript {
		assert.Equal(t, i, e.Seq)
	}
}

func TestChat_PSSFlow(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.svc.Start(context.Background(), f.user, "tok", "pss")
	require.NoError(t, err)

	out := f.say(t, "yes")
	assert.Contains(t, out[len(out)-1], "In the last month, have you been upset")

	f.say(t, "never")
	out = f.say(t, "Almost Never")
	assert.Contains(t, out, "Your stress level: moderate stress")
	assert.Contains(t, out, "Score: 20 (based on 2 questions)")
	assert.Contains(t, out, "Confidence: 75%")
	assert.Equal(t, []model.PSSResponse{{Index: 0, Label: "never"}, {Index: 1, Label: "almost never"}}, f.gw.assessed)
}

func TestChat_PSSFlow_NoConfidence(t *testing.T) {
	f := newChatFixture(t)
	f.gw.confidence = nil
	_, err := f.svc.Start(context.Background(), f.user, "tok", "pss")
	require.NoError(t, err)

	f.say(t, "yes")
	f.say(t, "sometimes")
	out := f.say(t, "fairly often")
	assert.Contains(t, out, "Score: 20 (based on 2 questions)")
	for _, line := range out {
		assert.NotContains(t, line, "Confidence")
	}
}

func TestChat_TransportFailureResets(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.svc.Start(context.Background(), f.user, "tok", "pss")
	require.NoError(t, err)
	f.gw.err = errors.New("connection refused")

	out := f.say(t, "yes")
	assert.Equal(t, assessment.MsgApology, out[len(out)-1])

	// 会话已回到 Idle，再次同意时重新开始
	f.gw.err = nil
	out = f.say(t, "yes")
	assert.Contains(t, out[len(out)-1], "have you been upset")
}

func TestChat_ResumeDoesNotRepeatQuestion(t *testing.T) {
	f := newChatFixture(t)
	f.say(t, "yes")

	entries, err := f.svc.Start(context.Background(), f.user, "tok", "pss")
	require.NoError(t, err)
	qs := 0
	for _, e := range entries {
		if e.Text == assessment.DefaultQuestions()[0].Text {
			qs++
		}
	}
	assert.Equal(t, 1, qs)

	// 进行中的评估不切换方案
	out := f.say(t, "never")
	assert.Equal(t, assessment.DefaultQuestions()[1].Text, out[len(out)-1])
}

func TestChat_Reset(t *testing.T) {
	f := newChatFixture(t)
	f.say(t, "yes")

	entries, err := f.svc.Reset(context.Background(), f.user, "tok", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Good morning! How are you feeling today?"}, texts(entries))

	_, err = f.svc.Reset(context.Background(), f.user, "tok", "gad7")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}
