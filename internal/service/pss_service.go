package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"stress-guru-go/internal/adaptive"
	"stress-guru-go/internal/model"
	"stress-guru-go/internal/repository"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/tasks"
)

// PSSQuestions 是题目列表接口的返回结构。
type PSSQuestions struct {
	Questions             []string `json:"questions"`
	ReverseScoreQuestions []int    `json:"reverse_score_questions"`
}

// PSSService 定义了自适应 PSS 评估的业务操作。
type PSSService interface {
	Questions() PSSQuestions
	NextQuestion(ctx context.Context, userID uint, answered []model.PSSResponse) (*model.PSSNextQuestion, error)
	Assess(ctx context.Context, userID uint, responses []model.PSSResponse) (*model.PSSAssessment, error)
	// History 按时间倒序返回用户的 PSS 评估记录，limit <= 0 表示全部。
	History(ctx context.Context, userID uint, limit int) ([]model.AssessmentRecord, error)
}

type pssService struct {
	kbRepo     repository.KnowledgeBaseRepository
	assessRepo repository.AssessmentRepository
	publisher  tasks.Publisher
	now        func() time.Time
}

// NewPSSService 创建 PSSService。publisher 负责把完成的评估交给学习流程。
func NewPSSService(kbRepo repository.KnowledgeBaseRepository, assessRepo repository.AssessmentRepository, publisher tasks.Publisher) PSSService {
	return &pssService{
		kbRepo:     kbRepo,
		assessRepo: assessRepo,
		publisher:  publisher,
		now:        time.Now,
	}
}

// KnowledgeBaseID 是用户知识库在 MongoDB 中的键。
func KnowledgeBaseID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

func (s *pssService) Questions() PSSQuestions {
	reverse := make([]int, len(adaptive.ReverseScored))
	copy(reverse, adaptive.ReverseScored)
	questions := make([]string, len(adaptive.Questions))
	copy(questions, adaptive.Questions)
	return PSSQuestions{Questions: questions, ReverseScoreQuestions: reverse}
}

// loadKnowledgeBase 读取失败或不存在时使用内置知识库，不影响评估。
func (s *pssService) loadKnowledgeBase(ctx context.Context, userID uint) *model.KnowledgeBase {
	id := KnowledgeBaseID(userID)
	kb, err := s.kbRepo.Get(ctx, id)
	if err != nil {
		log.Warnf("[PSSService] 加载知识库失败，使用默认知识库, user: %s, error: %v", id, err)
		return adaptive.DefaultKnowledgeBase(id)
	}
	if kb == nil {
		return adaptive.DefaultKnowledgeBase(id)
	}
	return kb
}

func validateResponses(responses []model.PSSResponse) error {
	for _, r := range responses {
		if r.Index < 0 || r.Index >= len(adaptive.Questions) {
			return invalid(fmt.Sprintf("Invalid question index: %d", r.Index))
		}
		if !adaptive.ValidResponse(r.Label) {
			return invalid(fmt.Sprintf("Invalid response value: %s", r.Label))
		}
	}
	return nil
}

func (s *pssService) NextQuestion(ctx context.Context, userID uint, answered []model.PSSResponse) (*model.PSSNextQuestion, error) {
	if err := validateResponses(answered); err != nil {
		return nil, err
	}
	kb := s.loadKnowledgeBase(ctx, userID)
	idx, done := adaptive.NextQuestion(kb, answered)
	if done {
		return &model.PSSNextQuestion{Complete: true}, nil
	}
	return &model.PSSNextQuestion{Question: adaptive.Questions[idx], QuestionIndex: &idx}, nil
}

// Assess 计算传统得分、预测压力等级并保存记录，随后发布学习任务。
// 学习任务发布失败只记录日志，评估结果仍然有效。
func (s *pssService) Assess(ctx context.Context, userID uint, responses []model.PSSResponse) (*model.PSSAssessment, error) {
	if len(responses) == 0 {
		return nil, invalid("No responses provided")
	}
	if err := validateResponses(responses); err != nil {
		return nil, err
	}

	kb := s.loadKnowledgeBase(ctx, userID)
	score := adaptive.TraditionalScore(responses)
	level, confidence := adaptive.Predict(kb, responses)

	items := make([]model.ResponseItem, len(responses))
	for i, r := range responses {
		items[i] = model.ResponseItem{Index: r.Index, Label: adaptive.Normalize(r.Label), Score: adaptive.ResponseValues[adaptive.Normalize(r.Label)]}
	}
	record := &model.AssessmentRecord{
		UserID:            userID,
		Scheme:            model.SchemePSS,
		Responses:         items,
		Score:             score,
		StressLevel:       level,
		Confidence:        &confidence,
		QuestionsAnswered: len(responses),
	}
	if err := s.assessRepo.Create(record); err != nil {
		return nil, fmt.Errorf("保存评估记录失败: %w", err)
	}

	task := tasks.LearningTask{
		AssessmentID: record.ID,
		UserID:       userID,
		Responses:    responses,
		StressLevel:  level,
		Score:        score,
		CreatedAt:    s.now(),
	}
	if err := s.publisher.Publish(ctx, task); err != nil {
		log.Errorf("[PSSService] 发布学习任务失败: %s, error: %v", task.Key(), err)
	}

	return &model.PSSAssessment{
		Score:             score,
		StressLevel:       level,
		Confidence:        &confidence,
		QuestionsAnswered: len(responses),
	}, nil
}

func (s *pssService) History(_ context.Context, userID uint, limit int) ([]model.AssessmentRecord, error) {
	return s.assessRepo.ListByUser(userID, model.SchemePSS, limit)
}
