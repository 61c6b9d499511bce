package model

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	SchemeDASS = "dass"
	SchemePSS  = "pss"
)

// AssessmentRecord 对应 'stress_assessments' 表，保存一次完成的评估。
type AssessmentRecord struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"index;not null" json:"userId"`
	Scheme            string          `gorm:"type:varchar(10);not null;index" json:"scheme"`
	Responses         []ResponseItem  `gorm:"serializer:json;type:text" json:"responses"`
	CategoryScores    []CategoryScore `gorm:"serializer:json;type:text" json:"categoryScores,omitempty"`
	Score             float64         `gorm:"not null" json:"score"`
	StressLevel       string          `gorm:"type:varchar(50);not null" json:"stress_level"`
	Confidence        *float64        `json:"confidence,omitempty"`
	QuestionsAnswered int             `gorm:"not null" json:"questions_answered"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (AssessmentRecord) TableName() string {
	return "stress_assessments"
}

// ResponseItem 是持久化的单条回答。
type ResponseItem struct {
	Index    int    `json:"index"`
	Category string `json:"category,omitempty"`
	Label    string `json:"label,omitempty"`
	Score    int    `json:"score"`
}

// CategoryScore 是 DASS 评估中单个类别的得分。
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Label    string `json:"label"`
}

// PSSResponse 在 HTTP 接口上编码为二元数组 [index, label]。
type PSSResponse struct {
	Index int    `bson:"index"`
	Label string `bson:"label"`
}

func (r PSSResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.Index, r.Label})
}

func (r *PSSResponse) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("response must be an [index, label] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("response must be an [index, label] pair, got %d elements", len(pair))
	}
	var idx float64
	if err := json.Unmarshal(pair[0], &idx); err != nil {
		return fmt.Errorf("response index must be a number: %w", err)
	}
	var label string
	if err := json.Unmarshal(pair[1], &label); err != nil {
		return fmt.Errorf("response label must be a string: %w", err)
	}
	r.Index = int(idx)
	r.Label = label
	return nil
}

// PSSAssessment 是评估接口的返回结构。
type PSSAssessment struct {
	Score             float64  `json:"score"`
	StressLevel       string   `json:"stress_level"`
	Confidence        *float64 `json:"confidence,omitempty"`
	QuestionsAnswered int      `json:"questions_answered"`
}

// PSSNextQuestion 是下一题接口的返回结构。
type PSSNextQuestion struct {
	Question      string `json:"question,omitempty"`
	QuestionIndex *int   `json:"question_index,omitempty"`
	Complete      bool   `json:"complete"`
}
