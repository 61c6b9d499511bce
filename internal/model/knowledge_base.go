package model

import "time"

// KnowledgeBase 是每个用户的自适应问答知识库，存储在 MongoDB 的 user_knowledge_base 集合中。
type KnowledgeBase struct {
	UserID          string             `bson:"user_id" json:"userId"`
	Patterns        []Pattern          `bson:"patterns" json:"patterns"`
	QuestionWeights map[string]float64 `bson:"question_weights" json:"questionWeights"`
	HistoricalData  []HistoricalRecord `bson:"historical_data" json:"historicalData"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	LastUpdated     time.Time          `bson:"last_updated" json:"lastUpdated"`
}

// Pattern 是一组已知回答与对应压力等级，Frequency 表示被观察到的次数。
// Responses 的 key 是题目序号的字符串形式。
type Pattern struct {
	Responses   map[string]string `bson:"responses" json:"responses"`
	StressLevel string            `bson:"stress_level" json:"stressLevel"`
	Frequency   int               `bson:"frequency" json:"frequency"`
}

// HistoricalRecord 记录每次学习事件。
type HistoricalRecord struct {
	Responses   []PSSResponse `bson:"responses" json:"responses"`
	StressLevel string        `bson:"stress_level" json:"stressLevel"`
	Score       float64       `bson:"score" json:"score"`
	RecordedAt  time.Time     `bson:"recorded_at" json:"recordedAt"`
}
