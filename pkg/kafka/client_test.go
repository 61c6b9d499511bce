package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress-guru-go/internal/config"
	"stress-guru-go/internal/model"
	"stress-guru-go/pkg/tasks"
)

type countingProcessor struct {
	calls    int
	err      error
	failures int // 大于 0 时只有前 failures 次返回 err
}

func (p *countingProcessor) Process(context.Context, tasks.LearningTask) error {
	p.calls++
	if p.failures > 0 && p.calls > p.failures {
		return nil
	}
	return p.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func taskBytes(t *testing.T) []byte {
	b, err := json.Marshal(tasks.LearningTask{
		AssessmentID: 7,
		UserID:       1,
		Responses:    []model.PSSResponse{{Index: 0, Label: "never"}},
		StressLevel:  "low stress",
	})
	require.NoError(t, err)
	return b
}

func TestHandleMessage_Success(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Set("kafka:attempts:assessment-7", "2")
	p := &countingProcessor{}

	assert.True(t, handleMessage(context.Background(), taskBytes(t), p, rdb))
	assert.Equal(t, 1, p.calls)
	assert.False(t, mr.Exists("kafka:attempts:assessment-7"))
}

func TestHandleMessage_RetriesThenGivesUp(t *testing.T) {
	mr, rdb := newRedis(t)
	p := &countingProcessor{err: errors.New("mongo down")}
	ctx := context.Background()

	assert.False(t, handleMessage(ctx, taskBytes(t), p, rdb))
	assert.False(t, handleMessage(ctx, taskBytes(t), p, rdb))
	assert.True(t, handleMessage(ctx, taskBytes(t), p, rdb))

	v, err := mr.Get("kafka:attempts:assessment-7")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
	assert.Greater(t, mr.TTL("kafka:attempts:assessment-7").Seconds(), 0.0)
}

func TestConsumeMessage_RetriesInProcess(t *testing.T) {
	mr, rdb := newRedis(t)
	p := &countingProcessor{err: errors.New("mongo down"), failures: 2}

	assert.True(t, consumeMessage(context.Background(), taskBytes(t), p, rdb, 0))
	assert.Equal(t, 3, p.calls)
	assert.False(t, mr.Exists("kafka:attempts:assessment-7"))
}

func TestConsumeMessage_GivesUpAfterMaxAttempts(t *testing.T) {
	_, rdb := newRedis(t)
	p := &countingProcessor{err: errors.New("mongo down")}

	assert.True(t, consumeMessage(context.Background(), taskBytes(t), p, rdb, 0))
	assert.Equal(t, maxAttempts, p.calls)
}

func TestConsumeMessage_StopsOnCancel(t *testing.T) {
	_, rdb := newRedis(t)
	p := &countingProcessor{err: errors.New("mongo down")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, consumeMessage(ctx, taskBytes(t), p, rdb, time.Hour))
	assert.Equal(t, 1, p.calls)
}

func TestConsumeMessage_RedisDownLeavesUncommitted(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	p := &countingProcessor{err: errors.New("boom")}

	assert.False(t, consumeMessage(context.Background(), taskBytes(t), p, rdb, 0))
	assert.Equal(t, maxAttempts, p.calls)
}

func TestHandleMessage_Malformed(t *testing.T) {
	_, rdb := newRedis(t)
	p := &countingProcessor{}
	assert.True(t, handleMessage(context.Background(), []byte("{"), p, rdb))
	assert.Zero(t, p.calls)
}

func TestHandleMessage_RedisDown(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	p := &countingProcessor{err: errors.New("boom")}
	assert.False(t, handleMessage(context.Background(), taskBytes(t), p, rdb))
}

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, brokers(config.KafkaConfig{Brokers: " a:9092, ,b:9092"}))
}
