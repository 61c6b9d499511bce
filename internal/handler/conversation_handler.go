package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stress-guru-go/internal/service"
)

// ConversationHandler 处理与对话记录相关的 API 请求。
type ConversationHandler struct {
	service service.ChatService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ChatService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetTranscript 返回用户当前对话的完整记录。
func (h *ConversationHandler) GetTranscript(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortNoUser(c)
		return
	}

	entries, err := h.service.Transcript(c.Request.Context(), user)
	if err != nil {
		respondError(c, "GetTranscript", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    entries,
	})
}
