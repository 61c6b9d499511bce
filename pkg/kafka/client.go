// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"stress-guru-go/internal/config"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/tasks"
)

const (
	// maxAttempts 是单条消息的最大处理次数，超过后提交 offset 放弃重试。
	maxAttempts = 3
	// retryBackoff 是进程内重试的基础间隔，按次数线性增长。
	retryBackoff = time.Second
)

// Producer 把学习任务写入 Kafka，实现 tasks.Publisher。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	p := &Producer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers(cfg)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}}
	log.Info("Kafka 生产者初始化成功")
	return p
}

func (p *Producer) Publish(ctx context.Context, task tasks.LearningTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.Key()),
		Value: taskBytes,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// StartConsumer 启动 Kafka 消费者处理学习任务，ctx 取消后退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor tasks.Processor, rdb *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}
		if consumeMessage(ctx, m.Value, processor, rdb, retryBackoff) {
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

// consumeMessage 在进程内重试同一条消息，直到可以提交 offset 或用完 maxAttempts 次。
// reader 不会重投未提交的消息，所以必须在读取下一条之前处理完。
func consumeMessage(ctx context.Context, value []byte, processor tasks.Processor, rdb *redis.Client, backoff time.Duration) bool {
	for i := 1; i <= maxAttempts; i++ {
		if handleMessage(ctx, value, processor, rdb) {
			return true
		}
		if i == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff * time.Duration(i)):
		}
	}
	return false
}

// handleMessage 处理一条消息并返回是否应该提交 offset。
// 处理失败时使用 Redis 计数，达到 maxAttempts 后提交以终止重试；Redis 异常时不提交，让 Kafka 重投。
func handleMessage(ctx context.Context, value []byte, processor tasks.Processor, rdb *redis.Client) bool {
	var task tasks.LearningTask
	if err := json.Unmarshal(value, &task); err != nil {
		// 消息格式错误，直接提交，避免阻塞队列
		log.Errorf("无法解析 Kafka 消息: %v", err)
		return true
	}

	attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.Key())
	if err := processor.Process(ctx, task); err != nil {
		log.Errorf("处理学习任务失败: %s, Error: %v", task.Key(), err)
		attempts, incErr := rdb.Incr(ctx, attemptsKey).Result()
		if incErr != nil {
			return false
		}
		_ = rdb.Expire(ctx, attemptsKey, 24*time.Hour).Err()
		if attempts >= maxAttempts {
			log.Errorf("学习任务多次失败(>=%d)，提交 offset 终止重试: %s", maxAttempts, task.Key())
			return true
		}
		return false
	}

	log.Infof("学习任务处理成功: %s", task.Key())
	_ = rdb.Del(ctx, attemptsKey).Err()
	return true
}
