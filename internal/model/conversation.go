package model

import "time"

// ChatMessage 代表存储在 Redis 中的单条对话消息。
type ChatMessage struct {
	Seq       int       `json:"seq"`
	Role      string    `json:"role"` // "user" 或 "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
