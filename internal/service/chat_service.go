package service

import (
	"context"
	"fmt"
	"sync"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/model"
	"stress-guru-go/internal/repository"
	"stress-guru-go/pkg/log"
)

// ChatService 定义了评估对话的操作。同一用户的轮次在本实例内串行执行。
type ChatService interface {
	// Start 打开（或恢复）用户当前的对话，返回完整对话记录。scheme 为空时沿用会话或默认方案。
	Start(ctx context.Context, user *model.User, token, scheme string) ([]assessment.Entry, error)
	// HandleTurn 处理一条用户消息，返回本轮新增的记录。
	HandleTurn(ctx context.Context, user *model.User, token, message string) ([]assessment.Entry, error)
	Transcript(ctx context.Context, user *model.User) ([]assessment.Entry, error)
	// Reset 放弃当前对话并以问候语开启新对话。
	Reset(ctx context.Context, user *model.User, token, scheme string) ([]assessment.Entry, error)
}

// ChatOptions 是对话服务的可配置项。
type ChatOptions struct {
	DefaultScheme assessment.Scheme
	HistoryLimit  int
}

type chatService struct {
	content          *assessment.Content
	conversationRepo repository.ConversationRepository
	sessionRepo      repository.SessionRepository
	assessRepo       repository.AssessmentRepository
	pss              PSSBackend
	opts             ChatOptions
	engineOpts       []assessment.Option
	locks            sync.Map // key: userID, value: *sync.Mutex
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	content *assessment.Content,
	conversationRepo repository.ConversationRepository,
	sessionRepo repository.SessionRepository,
	assessRepo repository.AssessmentRepository,
	pss PSSBackend,
	opts ChatOptions,
	engineOpts ...assessment.Option,
) ChatService {
	if opts.DefaultScheme == "" {
		opts.DefaultScheme = assessment.SchemeDASS
	}
	return &chatService{
		content:          content,
		conversationRepo: conversationRepo,
		sessionRepo:      sessionRepo,
		assessRepo:       assessRepo,
		pss:              pss,
		opts:             opts,
		engineOpts:       append([]assessment.Option{assessment.WithHistoryLimit(opts.HistoryLimit)}, engineOpts...),
	}
}

func (s *chatService) lock(userID uint) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *chatService) engineFor(user *model.User, token string, scheme assessment.Scheme) *assessment.Engine {
	if scheme == assessment.SchemePSS {
		gw := s.pss(user, token)
		return assessment.NewEngine(s.content, pssQuestions{gw: gw}, pssScorer{gw: gw}, pssHistory{gw: gw}, s.engineOpts...)
	}
	return assessment.NewEngine(
		s.content,
		assessment.NewStaticSource(s.content.Questions),
		assessment.NewDASSScorer(s.content, dassRecorder{repo: s.assessRepo, userID: user.ID}),
		recordHistory{repo: s.assessRepo, userID: user.ID, scheme: model.SchemeDASS, limit: s.opts.HistoryLimit},
		s.engineOpts...,
	)
}

// conversation 是一次加载出来的对话状态。
type conversation struct {
	id         string
	session    *assessment.Session
	transcript *assessment.Transcript
}

func (s *chatService) load(ctx context.Context, userID uint) (*conversation, error) {
	convID, err := s.conversationRepo.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadByID(ctx, convID)
}

func (s *chatService) loadByID(ctx context.Context, convID string) (*conversation, error) {
	sess, err := s.sessionRepo.Get(ctx, convID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = assessment.NewSession(s.opts.DefaultScheme)
	}
	history, err := s.conversationRepo.GetConversationHistory(ctx, convID)
	if err != nil {
		return nil, err
	}
	return &conversation{id: convID, session: sess, transcript: assessment.NewTranscript(toEntries(history))}, nil
}

func (s *chatService) save(ctx context.Context, conv *conversation) error {
	if err := s.sessionRepo.Save(ctx, conv.id, conv.session); err != nil {
		return err
	}
	return s.conversationRepo.UpdateConversationHistory(ctx, conv.id, toMessages(conv.transcript.Entries()))
}

func parseScheme(scheme string) (assessment.Scheme, error) {
	if scheme == "" {
		return "", nil
	}
	parsed, ok := assessment.ParseScheme(scheme)
	if !ok {
		return "", invalid(fmt.Sprintf("Unknown assessment scheme: %s", scheme))
	}
	return parsed, nil
}

// applyScheme 只在尚未开始答题时切换方案。
func applyScheme(sess *assessment.Session, scheme assessment.Scheme) {
	if scheme != "" && sess.Phase == assessment.PhaseIdle {
		sess.Scheme = scheme
	}
}

func (s *chatService) Start(ctx context.Context, user *model.User, token, scheme string) ([]assessment.Entry, error) {
	parsed, err := parseScheme(scheme)
	if err != nil {
		return nil, err
	}
	defer s.lock(user.ID)()

	conv, err := s.load(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	applyScheme(conv.session, parsed)
	if len(s.engineFor(user, token, conv.session.Scheme).Resume(conv.session, conv.transcript)) > 0 {
		log.Infof("[ChatService] 恢复对话, user: %d, conversation: %s, phase: %s", user.ID, conv.id, conv.session.Phase)
	}
	if err := s.save(ctx, conv); err != nil {
		return nil, err
	}
	return conv.transcript.Entries(), nil
}

func (s *chatService) HandleTurn(ctx context.Context, user *model.User, token, message string) ([]assessment.Entry, error) {
	defer s.lock(user.ID)()

	conv, err := s.load(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	engine := s.engineFor(user, token, conv.session.Scheme)

	start := conv.transcript.Len()
	if start == 0 {
		engine.Resume(conv.session, conv.transcript)
	}
	if _, err := engine.Handle(ctx, conv.session, conv.transcript, message); err != nil {
		// 引擎已写入道歉消息并重置会话，这里只记录原因
		log.Errorf("[ChatService] 处理对话失败, user: %d, conversation: %s, error: %v", user.ID, conv.id, err)
	}
	if err := s.save(ctx, conv); err != nil {
		return nil, err
	}
	return conv.transcript.Since(start), nil
}

func (s *chatService) Transcript(ctx context.Context, user *model.User) ([]assessment.Entry, error) {
	conv, err := s.load(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return conv.transcript.Entries(), nil
}

func (s *chatService) Reset(ctx context.Context, user *model.User, token, scheme string) ([]assessment.Entry, error) {
	parsed, err := parseScheme(scheme)
	if err != nil {
		return nil, err
	}
	defer s.lock(user.ID)()

	if oldID, err := s.conversationRepo.GetOrCreateConversationID(ctx, user.ID); err == nil {
		if err := s.sessionRepo.Delete(ctx, oldID); err != nil {
			log.Warnf("[ChatService] 删除旧会话失败, conversation: %s, error: %v", oldID, err)
		}
	}
	convID, err := s.conversationRepo.ResetConversation(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	conv, err := s.loadByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	applyScheme(conv.session, parsed)
	s.engineFor(user, token, conv.session.Scheme).Resume(conv.session, conv.transcript)
	if err := s.save(ctx, conv); err != nil {
		return nil, err
	}
	return conv.transcript.Entries(), nil
}
