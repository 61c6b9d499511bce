// Package tasks 定义了发送到 Kafka 的任务结构。
package tasks

import (
	"context"
	"strconv"
	"time"

	"stress-guru-go/internal/model"
)

// LearningTask 是一次完成的 PSS 评估，用于更新用户的自适应知识库。
type LearningTask struct {
	AssessmentID uint                `json:"assessment_id"`
	UserID       uint                `json:"user_id"`
	Responses    []model.PSSResponse `json:"responses"`
	StressLevel  string              `json:"stress_level"`
	Score        float64             `json:"score"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Key 用于 Kafka 消息键与失败计数键。
func (t LearningTask) Key() string {
	return "assessment-" + strconv.FormatUint(uint64(t.AssessmentID), 10)
}

// Publisher 发布学习任务。Kafka 生产者与进程内同步实现都满足它。
type Publisher interface {
	Publish(ctx context.Context, task LearningTask) error
}

// Processor 处理学习任务。
type Processor interface {
	Process(ctx context.Context, task LearningTask) error
}
