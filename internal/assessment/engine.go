package assessment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const (
	MsgConsent        = "Would you like to answer some questions to help me better understand how you're feeling? (yes/no)"
	MsgAccept         = "Thank you for being willing to share. I'm going to ask you some questions about how you've been feeling."
	MsgDecline        = "That's perfectly fine! Sometimes just chatting is enough. I'm here whenever you need me."
	MsgDASSHint       = "I'm having trouble understanding your response. Could you please rephrase it using terms like 'never', 'sometimes', 'often', or 'frequently'?"
	MsgApology        = "I'm sorry, something went wrong. Please try again."
	MsgClosingComfort = "It's okay to feel how you're feeling. If you need to talk more, I'm here."
	MsgClosingReach   = "If things get tough, please consider reaching out to someone you trust or a professional."
	MsgOfferHistory   = "Would you like to see your previous assessment results? (yes/no)"
	MsgOfferRestart   = "Would you like to take the assessment again? (yes/no)"
	MsgRestart        = "Okay, let's start again from the beginning."
	MsgGoodbye        = "Thank you for chatting with me today. Take care of yourself!"
	MsgYesNo          = "Sorry, I didn't catch that. Please answer yes or no."
	MsgNoHistory      = "I couldn't find any previous assessments yet."
	MsgHistoryHeader  = "Here are your most recent assessments:"
	MsgHighStress     = "Your stress level seems high. Please consider talking to a mental health professional."

	defaultHistoryLimit = 5
)

// Engine 是评估对话的状态机。它本身无状态，状态全部保存在 Session 与 Transcript 中，
// 调用方负责保证同一会话的轮次串行执行。
type Engine struct {
	content      *Content
	questions    QuestionSource
	scorer       Scorer
	history      HistorySource
	historyLimit int
	now          func() time.Time
	pick         func(n int) int
}

type Option func(*Engine)

func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPicker 替换回应语的随机选择，测试中用于固定输出。
func WithPicker(pick func(n int) int) Option {
	return func(e *Engine) { e.pick = pick }
}

// NewEngine history 可以为 nil，此时历史记录视为空。
func NewEngine(content *Content, questions QuestionSource, scorer Scorer, history HistorySource, opts ...Option) *Engine {
	e := &Engine{
		content:      content,
		questions:    questions,
		scorer:       scorer,
		history:      history,
		historyLimit: defaultHistoryLimit,
		now:          time.Now,
		pick:         rand.Intn,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Greeting 根据当前时间返回开场白。
func (e *Engine) Greeting() string {
	switch h := e.now().Hour(); {
	case h >= 5 && h < 12:
		return "Good morning! How are you feeling today?"
	case h >= 12 && h < 18:
		return "Good afternoon! How's everything going?"
	default:
		return "Good evening! I hope your day has been okay so far."
	}
}

// Resume 在客户端（重新）连接时调用：空对话发出问候；进行中的评估在当前题目
// 不是最后一条系统消息时重新发出该题，保证重复渲染是幂等的。
func (e *Engine) Resume(s *Session, tr *Transcript) []Entry {
	start := tr.Len()
	if start == 0 {
		tr.Append(SenderSystem, e.Greeting())
		return tr.Since(start)
	}
	if s.Phase == PhaseInProgress && s.Current != nil {
		text := e.questionText(s.Scheme, *s.Current)
		if last, ok := tr.LastSystem(); !ok || last.Text != text {
			tr.Append(SenderSystem, text)
		}
	}
	return tr.Since(start)
}

// Handle 处理一轮用户输入，返回本轮新增的记录（包括用户消息本身）。
// 返回错误时，道歉消息已经写入记录，会话已重置为 Idle。
func (e *Engine) Handle(ctx context.Context, s *Session, tr *Transcript, text string) ([]Entry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	start := tr.Len()
	tr.Append(SenderUser, text)

	var err error
	switch s.Phase {
	case PhaseInProgress:
		err = e.answer(ctx, s, tr, text)
	case PhaseCompleted:
		err = e.afterResults(ctx, s, tr, text)
	default:
		err = e.consent(ctx, s, tr, text)
	}
	if err != nil {
		s.Reset()
		tr.Append(SenderSystem, MsgApology)
	}
	return tr.Since(start), err
}

func (e *Engine) consent(ctx context.Context, s *Session, tr *Transcript, text string) error {
	switch ClassifyIntent(text) {
	case IntentYes:
		tr.Append(SenderSystem, MsgAccept)
		return e.begin(ctx, s, tr)
	case IntentNo:
		tr.Append(SenderSystem, MsgDecline)
		s.Reset()
		return nil
	default:
		tr.Append(SenderSystem, e.reaction(text))
		tr.Append(SenderSystem, MsgConsent)
		return nil
	}
}

func (e *Engine) begin(ctx context.Context, s *Session, tr *Transcript) error {
	prompt, err := e.questions.NextQuestion(ctx, nil)
	if err != nil {
		return asPipelineError("next question", err)
	}
	if prompt.Done {
		return &ConfigurationError{Reason: "question source has no questions"}
	}
	s.begin(prompt.Question)
	tr.Append(SenderSystem, e.questionText(s.Scheme, prompt.Question))
	return nil
}

func (e *Engine) answer(ctx context.Context, s *Session, tr *Transcript, text string) error {
	if s.Current == nil {
		return &ConfigurationError{Reason: "session in progress without a current question"}
	}
	resp, err := e.classify(s.Scheme, *s.Current, text)
	if errors.Is(err, ErrUnrecognized) || errors.Is(err, ErrInvalidChoice) {
		tr.Append(SenderSystem, e.hint(s.Scheme))
		return nil
	}
	if err != nil {
		return err
	}

	answered := make([]Response, len(s.Responses), len(s.Responses)+1)
	copy(answered, s.Responses)
	answered = append(answered, resp)

	prompt, err := e.questions.NextQuestion(ctx, answered)
	if err != nil {
		return asPipelineError("next question", err)
	}
	if !prompt.Done {
		s.advance(answered, prompt.Question)
		tr.Append(SenderSystem, e.questionText(s.Scheme, prompt.Question))
		return nil
	}

	result, err := e.scorer.Score(ctx, answered)
	if err != nil {
		return asPipelineError("submit", err)
	}
	s.complete(answered)
	for _, line := range e.resultLines(result) {
		tr.Append(SenderSystem, line)
	}
	tr.Append(SenderSystem, MsgOfferHistory)
	return nil
}

func (e *Engine) afterResults(ctx context.Context, s *Session, tr *Transcript, text string) error {
	switch ClassifyIntent(text) {
	case IntentYes:
		if s.HistoryShown {
			tr.Append(SenderSystem, MsgRestart)
			return e.begin(ctx, s, tr)
		}
		var entries []HistoryEntry
		if e.history != nil {
			var err error
			if entries, err = e.history.History(ctx); err != nil {
				return asPipelineError("history", err)
			}
		}
		for _, line := range e.historyLines(entries) {
			tr.Append(SenderSystem, line)
		}
		s.HistoryShown = true
		tr.Append(SenderSystem, MsgOfferRestart)
		return nil
	case IntentNo:
		tr.Append(SenderSystem, MsgGoodbye)
		s.Reset()
		return nil
	default:
		tr.Append(SenderSystem, MsgYesNo)
		return nil
	}
}

func (e *Engine) classify(scheme Scheme, q Question, text string) (Response, error) {
	if scheme == SchemePSS {
		opt, err := e.content.Vocabulary.Classify(text)
		if err != nil {
			return Response{}, err
		}
		return Response{Index: q.Index, Label: opt.Label, Score: opt.Value}, nil
	}
	score, err := e.content.Keywords.Classify(text)
	if err != nil {
		return Response{}, err
	}
	return Response{Index: q.Index, Category: q.Category, Score: score}, nil
}

func (e *Engine) hint(scheme Scheme) string {
	if scheme == SchemePSS {
		return "Please answer with one of: " + strings.Join(e.content.Vocabulary.Labels(), ", ") + "."
	}
	return MsgDASSHint
}

func (e *Engine) questionText(scheme Scheme, q Question) string {
	if scheme == SchemePSS {
		return fmt.Sprintf("In the last month, %s (%s)", lowerFirst(q.Text), strings.Join(e.content.Vocabulary.Labels(), " / "))
	}
	return q.Text
}

func (e *Engine) reaction(text string) string {
	reactions := e.content.GreetingReactions[ClassifySentiment(text)]
	if len(reactions) == 0 {
		reactions = e.content.GreetingReactions[SentimentNeutral]
	}
	if len(reactions) == 0 {
		return "I'm here to listen."
	}
	return reactions[e.pick(len(reactions))]
}

func (e *Engine) resultLines(r *Result) []string {
	var lines []string
	if r.Scheme == SchemePSS {
		lines = append(lines, "Your stress level: "+r.StressLevel)
		lines = append(lines, fmt.Sprintf("Score: %s (based on %d questions)", formatScore(r.Score), r.QuestionsAnswered))
		if r.Confidence != nil {
			lines = append(lines, fmt.Sprintf("Confidence: %.0f%%", *r.Confidence*100))
		}
		lines = append(lines, "Here are some activities that might help:")
		for _, act := range e.content.Recommendations.ForStressLevel(r.StressLevel) {
			lines = append(lines, "• "+act)
		}
		if normalize(r.StressLevel) == "high stress" {
			lines = append(lines, MsgHighStress)
		}
	} else {
		for _, c := range r.Categories {
			lines = append(lines, fmt.Sprintf("%s: %d - %s", c.Category, c.Score, c.Label))
			lines = append(lines, fmt.Sprintf("Here are some activities that could help with %s:", strings.ToLower(c.Category)))
			for _, act := range c.Recommendations {
				lines = append(lines, "• "+act)
			}
		}
	}
	return append(lines, MsgClosingComfort, MsgClosingReach)
}

func (e *Engine) historyLines(entries []HistoryEntry) []string {
	if len(entries) == 0 {
		return []string{MsgNoHistory}
	}
	if len(entries) > e.historyLimit {
		entries = entries[:e.historyLimit]
	}
	lines := []string{MsgHistoryHeader}
	for _, h := range entries {
		lines = append(lines, formatHistory(h))
	}
	return lines
}

func formatHistory(h HistoryEntry) string {
	ts := h.Timestamp.Local().Format("2006-01-02 15:04")
	if len(h.Categories) > 0 {
		parts := make([]string, 0, len(h.Categories))
		for _, c := range h.Categories {
			parts = append(parts, fmt.Sprintf("%s: %d (%s)", c.Category, c.Score, c.Label))
		}
		return ts + " - " + strings.Join(parts, ", ")
	}
	line := fmt.Sprintf("%s - %s, score %s", ts, h.StressLevel, formatScore(h.Score))
	if h.Confidence != nil {
		line += fmt.Sprintf(", confidence %.0f%%", *h.Confidence*100)
	}
	return line
}

func formatScore(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}
