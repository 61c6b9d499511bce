package service

import (
	"context"
	"errors"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/model"
	"stress-guru-go/internal/repository"
)

// PSSGateway 是某个用户视角下的 PSS 自适应服务：本进程内的 PSSService 或远程 HTTP 服务。
type PSSGateway interface {
	NextQuestion(ctx context.Context, answered []model.PSSResponse) (*model.PSSNextQuestion, error)
	Assess(ctx context.Context, responses []model.PSSResponse) (*model.PSSAssessment, error)
	History(ctx context.Context) ([]model.AssessmentRecord, error)
}

// PSSBackend 为发起对话的用户构造 PSSGateway，token 用于调用远程服务。
type PSSBackend func(user *model.User, token string) PSSGateway

// LocalPSSBackend 直接调用本进程的 PSSService。
func LocalPSSBackend(svc PSSService, historyLimit int) PSSBackend {
	return func(user *model.User, _ string) PSSGateway {
		return &localPSS{svc: svc, userID: user.ID, limit: historyLimit}
	}
}

type localPSS struct {
	svc    PSSService
	userID uint
	limit  int
}

func (l *localPSS) NextQuestion(ctx context.Context, answered []model.PSSResponse) (*model.PSSNextQuestion, error) {
	return l.svc.NextQuestion(ctx, l.userID, answered)
}

func (l *localPSS) Assess(ctx context.Context, responses []model.PSSResponse) (*model.PSSAssessment, error) {
	return l.svc.Assess(ctx, l.userID, responses)
}

func (l *localPSS) History(ctx context.Context) ([]model.AssessmentRecord, error) {
	return l.svc.History(ctx, l.userID, l.limit)
}

func toPSSResponses(answered []assessment.Response) []model.PSSResponse {
	out := make([]model.PSSResponse, len(answered))
	for i, r := range answered {
		out[i] = model.PSSResponse{Index: r.Index, Label: r.Label}
	}
	return out
}

// pssQuestions 把 PSSGateway 适配为对话引擎的出题来源。
type pssQuestions struct {
	gw PSSGateway
}

func (p pssQuestions) NextQuestion(ctx context.Context, answered []assessment.Response) (assessment.Prompt, error) {
	next, err := p.gw.NextQuestion(ctx, toPSSResponses(answered))
	if err != nil {
		return assessment.Prompt{}, err
	}
	if next.Complete {
		return assessment.Prompt{Done: true}, nil
	}
	if next.QuestionIndex == nil || next.Question == "" {
		return assessment.Prompt{}, errors.New("pss service returned an incomplete question")
	}
	return assessment.Prompt{Question: assessment.Question{Index: *next.QuestionIndex, Text: next.Question}}, nil
}

type pssScorer struct {
	gw PSSGateway
}

func (p pssScorer) Score(ctx context.Context, responses []assessment.Response) (*assessment.Result, error) {
	res, err := p.gw.Assess(ctx, toPSSResponses(responses))
	if err != nil {
		return nil, err
	}
	return &assessment.Result{
		Scheme:            assessment.SchemePSS,
		Score:             res.Score,
		StressLevel:       res.StressLevel,
		QuestionsAnswered: res.QuestionsAnswered,
		Confidence:        res.Confidence,
	}, nil
}

type pssHistory struct {
	gw PSSGateway
}

func (p pssHistory) History(ctx context.Context) ([]assessment.HistoryEntry, error) {
	records, err := p.gw.History(ctx)
	if err != nil {
		return nil, err
	}
	return toHistory(records), nil
}

// dassRecorder 把本地计分的 DASS 结果保存为评估记录。
type dassRecorder struct {
	repo   repository.AssessmentRepository
	userID uint
}

func (d dassRecorder) Record(_ context.Context, responses []assessment.Response, result *assessment.Result) error {
	items := make([]model.ResponseItem, len(responses))
	for i, r := range responses {
		items[i] = model.ResponseItem{Index: r.Index, Category: r.Category, Score: r.Score}
	}
	scores := make([]model.CategoryScore, len(result.Categories))
	for i, c := range result.Categories {
		scores[i] = model.CategoryScore{Category: c.Category, Score: c.Score, Label: c.Label}
	}
	return d.repo.Create(&model.AssessmentRecord{
		UserID:            d.userID,
		Scheme:            model.SchemeDASS,
		Responses:         items,
		CategoryScores:    scores,
		Score:             result.Score,
		StressLevel:       result.StressLevel,
		QuestionsAnswered: result.QuestionsAnswered,
	})
}

// recordHistory 从评估记录表读取某个方案的历史。
type recordHistory struct {
	repo   repository.AssessmentRepository
	userID uint
	scheme string
	limit  int
}

func (h recordHistory) History(_ context.Context) ([]assessment.HistoryEntry, error) {
	records, err := h.repo.ListByUser(h.userID, h.scheme, h.limit)
	if err != nil {
		return nil, err
	}
	return toHistory(records), nil
}

func toHistory(records []model.AssessmentRecord) []assessment.HistoryEntry {
	out := make([]assessment.HistoryEntry, len(records))
	for i, r := range records {
		entry := assessment.HistoryEntry{
			Timestamp:   r.CreatedAt,
			Scheme:      assessment.Scheme(r.Scheme),
			Score:       r.Score,
			StressLevel: r.StressLevel,
			Confidence:  r.Confidence,
		}
		for _, c := range r.CategoryScores {
			entry.Categories = append(entry.Categories, assessment.CategoryResult{Category: c.Category, Score: c.Score, Label: c.Label})
		}
		out[i] = entry
	}
	return out
}

func toEntries(messages []model.ChatMessage) []assessment.Entry {
	out := make([]assessment.Entry, len(messages))
	for i, m := range messages {
		out[i] = assessment.Entry{Seq: m.Seq, Sender: assessment.Sender(m.Role), Text: m.Content, At: m.Timestamp}
	}
	return out
}

func toMessages(entries []assessment.Entry) []model.ChatMessage {
	out := make([]model.ChatMessage, len(entries))
	for i, e := range entries {
		out[i] = model.ChatMessage{Seq: e.Seq, Role: string(e.Sender), Content: e.Text, Timestamp: e.At}
	}
	return out
}
