// Package pipeline 定义了评估完成后的学习流程：把一次 PSS 评估并入用户的自适应知识库。
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"stress-guru-go/internal/adaptive"
	"stress-guru-go/internal/repository"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/tasks"
)

// Processor 封装了学习任务的依赖和逻辑，实现 tasks.Processor。
type Processor struct {
	kbRepo repository.KnowledgeBaseRepository
	now    func() time.Time
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(kbRepo repository.KnowledgeBaseRepository) *Processor {
	return &Processor{kbRepo: kbRepo, now: time.Now}
}

// Process 读取用户知识库、合并本次评估并写回。用户尚无知识库时以初始知识库为起点。
func (p *Processor) Process(ctx context.Context, task tasks.LearningTask) error {
	userID := strconv.FormatUint(uint64(task.UserID), 10)
	log.Infof("[Processor] 开始处理学习任务, Key: %s, UserID: %s, 等级: %s", task.Key(), userID, task.StressLevel)

	// 1. 读取知识库
	kb, err := p.kbRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("读取知识库失败: %w", err)
	}
	if kb == nil {
		log.Warnf("[Processor] 用户 %s 没有知识库，使用初始知识库", userID)
		kb = adaptive.SeedKnowledgeBase(userID, p.now())
	}

	// 2. 合并本次评估
	adaptive.Learn(kb, task.Responses, task.StressLevel, task.Score, p.now())

	// 3. 写回
	if err := p.kbRepo.Save(ctx, kb); err != nil {
		return fmt.Errorf("保存知识库失败: %w", err)
	}
	log.Infof("[Processor] 学习任务处理完成, Key: %s, 模式数: %d", task.Key(), len(kb.Patterns))
	return nil
}

// InlinePublisher 在未启用 Kafka 时直接在进程内同步处理学习任务。
type InlinePublisher struct {
	Processor tasks.Processor
}

func (p InlinePublisher) Publish(ctx context.Context, task tasks.LearningTask) error {
	return p.Processor.Process(ctx, task)
}
