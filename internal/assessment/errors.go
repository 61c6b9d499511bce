// Package assessment 实现了对话式压力自评的核心逻辑：
// 回答分类、分数聚合、严重程度分级、活动推荐，以及驱动整个对话的会话状态机。
package assessment

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognized 表示自由文本回答中没有命中任何关键词。
	ErrUnrecognized = errors.New("assessment: unrecognized response")
	// ErrInvalidChoice 表示回答不在固定的 Likert 选项之内。
	ErrInvalidChoice = errors.New("assessment: invalid choice")
	// ErrNoMatchingRange 表示分数没有落在任何严重程度区间内，只可能由配置错误引起。
	ErrNoMatchingRange = errors.New("assessment: no matching severity range")
)

// ConfigurationError 表示静态内容（关键词表、区间表、题库）配置有误。
// 这类错误无法在单轮对话内恢复。
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assessment configuration error: %s: %v", e.Reason, e.Err)
	}
	return "assessment configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransportError 表示获取下一题、提交答卷或读取历史记录的外部调用失败。
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("assessment %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// asPipelineError 保留已分类的错误，其余统一包装为 TransportError。
func asPipelineError(op string, err error) error {
	var cfgErr *ConfigurationError
	var trErr *TransportError
	if errors.As(err, &cfgErr) || errors.As(err, &trErr) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
