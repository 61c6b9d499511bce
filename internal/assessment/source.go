package assessment

import (
	"context"
	"time"
)

// Prompt 是下一题的获取结果，Done 为 true 时表示题目已全部作答。
type Prompt struct {
	Question Question
	Done     bool
}

// QuestionSource 决定“下一题是什么”，静态题库和远程自适应服务都实现它。
type QuestionSource interface {
	NextQuestion(ctx context.Context, answered []Response) (Prompt, error)
}

// CategoryResult 是单个类别的得分与分级。
type CategoryResult struct {
	Category        string   `json:"category"`
	Score           int      `json:"score"`
	Label           string   `json:"label"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Result 是一次完整评估的结果。PSS 的 Confidence 由评估服务给出，这里只负责展示。
type Result struct {
	Scheme            Scheme           `json:"scheme"`
	Categories        []CategoryResult `json:"categories,omitempty"`
	Score             float64          `json:"score"`
	StressLevel       string           `json:"stress_level"`
	QuestionsAnswered int              `json:"questions_answered"`
	Confidence        *float64         `json:"confidence,omitempty"`
}

// Scorer 对完整答卷计分。
type Scorer interface {
	Score(ctx context.Context, responses []Response) (*Result, error)
}

// HistoryEntry 是一条历史评估记录。
type HistoryEntry struct {
	Timestamp   time.Time        `json:"timestamp"`
	Scheme      Scheme           `json:"scheme"`
	Score       float64          `json:"score"`
	StressLevel string           `json:"stress_level"`
	Confidence  *float64         `json:"confidence,omitempty"`
	Categories  []CategoryResult `json:"categories,omitempty"`
}

// HistorySource 返回按时间倒序排列的历史记录。
type HistorySource interface {
	History(ctx context.Context) ([]HistoryEntry, error)
}

// Recorder 持久化本地计分的结果。
type Recorder interface {
	Record(ctx context.Context, responses []Response, result *Result) error
}

// StaticSource 按固定顺序出题。
type StaticSource struct {
	questions []Question
}

func NewStaticSource(questions []Question) *StaticSource {
	return &StaticSource{questions: questions}
}

func (s *StaticSource) NextQuestion(_ context.Context, answered []Response) (Prompt, error) {
	if len(answered) >= len(s.questions) {
		return Prompt{Done: true}, nil
	}
	return Prompt{Question: s.questions[len(answered)]}, nil
}

func (s *StaticSource) Len() int { return len(s.questions) }

// DASSScorer 在本地完成聚合、分级和推荐。
type DASSScorer struct {
	content  *Content
	recorder Recorder
}

// NewDASSScorer recorder 可以为 nil。
func NewDASSScorer(content *Content, recorder Recorder) *DASSScorer {
	return &DASSScorer{content: content, recorder: recorder}
}

func (d *DASSScorer) Score(ctx context.Context, responses []Response) (*Result, error) {
	categories := d.content.Categories()
	totals := Aggregate(responses, d.content.Weight, categories...)

	res := &Result{Scheme: SchemeDASS, QuestionsAnswered: len(responses)}
	for _, cat := range categories {
		label, err := d.content.Bands.Classify(cat, totals[cat])
		if err != nil {
			return nil, err
		}
		res.Categories = append(res.Categories, CategoryResult{
			Category:        cat,
			Score:           totals[cat],
			Label:           label,
			Recommendations: d.content.Recommendations.ForSeverity(cat, label),
		})
		if cat == CategoryStress {
			res.Score = float64(totals[cat])
			res.StressLevel = label
		}
	}

	if d.recorder != nil {
		if err := d.recorder.Record(ctx, responses, res); err != nil {
			return nil, &TransportError{Op: "record", Err: err}
		}
	}
	return res, nil
}
