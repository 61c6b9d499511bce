package assessment

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

// Scheme 评估方案
type Scheme string

const (
	SchemeDASS Scheme = "dass"
	SchemePSS  Scheme = "pss"
)

// ParseScheme 解析方案名，无法识别时返回 false。
func ParseScheme(s string) (Scheme, bool) {
	switch Scheme(normalize(s)) {
	case SchemeDASS:
		return SchemeDASS, true
	case SchemePSS:
		return SchemePSS, true
	}
	return "", false
}

// Session 是一个会话的评估状态，可以直接序列化为 JSON 持久化。
// Phase 为 Completed 且 HistoryShown 为 false 时，即处于“等待是否查看历史”的子状态。
type Session struct {
	Phase         Phase      `json:"phase"`
	Scheme        Scheme     `json:"scheme"`
	QuestionIndex int        `json:"question_index"`
	Current       *Question  `json:"current,omitempty"`
	Responses     []Response `json:"responses"`
	HistoryShown  bool       `json:"history_shown"`
	Completed     bool       `json:"completed"`
}

func NewSession(scheme Scheme) *Session {
	return &Session{Phase: PhaseIdle, Scheme: scheme}
}

// Reset 放弃进行中的回答，回到 Idle。
func (s *Session) Reset() {
	s.Phase = PhaseIdle
	s.QuestionIndex = 0
	s.Current = nil
	s.Responses = nil
	s.HistoryShown = false
	s.Completed = false
}

// AwaitingHistoryChoice 表示结果已展示、尚未展示历史。
func (s *Session) AwaitingHistoryChoice() bool {
	return s.Phase == PhaseCompleted && !s.HistoryShown
}

func (s *Session) begin(q Question) {
	s.Reset()
	s.Phase = PhaseInProgress
	s.Current = &q
}

// advance 只在下一题已成功获取后调用。
func (s *Session) advance(answered []Response, next Question) {
	s.Responses = answered
	s.QuestionIndex = len(answered)
	s.Current = &next
}

func (s *Session) complete(answered []Response) {
	s.Responses = answered
	s.QuestionIndex = len(answered)
	s.Current = nil
	s.Phase = PhaseCompleted
	s.Completed = true
	s.HistoryShown = false
}
