package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/middleware"
	"stress-guru-go/internal/service"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/token"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// 推送给客户端的消息类型
const (
	frameTranscript = "transcript"
	frameEntries    = "entries"
	frameError      = "error"
)

// chatFrame 是 WebSocket 上的下行消息。
type chatFrame struct {
	Type    string             `json:"type"`
	Entries []assessment.Entry `json:"entries,omitempty"`
	Message string             `json:"message,omitempty"`
}

// clientFrame 是 WebSocket 上的上行 JSON 消息；纯文本消息直接视为一轮输入。
type clientFrame struct {
	Type    string `json:"type"` // "message" 或 "reset"
	Message string `json:"message"`
	Scheme  string `json:"scheme"`
}

// ChatHandler 负责处理评估对话，一条 WebSocket 消息对应一轮对话。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// Handle 处理一个传入的 WebSocket 连接。连接建立后先推送完整对话记录（必要时包含问候语）。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	user, _, err := middleware.ResolveUser(c.Request.Context(), h.jwtManager, h.userService, tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Token is invalid!", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", user.Email)
	ctx := c.Request.Context()

	entries, err := h.chatService.Start(ctx, user, tokenString, c.Query("scheme"))
	if err != nil {
		writeFrame(conn, chatFrame{Type: frameError, Message: errorText(err)})
		log.Errorf("开始对话失败, user: %d, error: %v", user.ID, err)
		return
	}
	writeFrame(conn, chatFrame{Type: frameTranscript, Entries: entries})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			break
		}

		frame := parseClientFrame(message)
		var out []assessment.Entry
		if frame.Type == "reset" {
			out, err = h.chatService.Reset(ctx, user, tokenString, frame.Scheme)
			if err == nil {
				writeFrame(conn, chatFrame{Type: frameTranscript, Entries: out})
				continue
			}
		} else {
			out, err = h.chatService.HandleTurn(ctx, user, tokenString, frame.Message)
		}
		if err != nil {
			log.Errorf("处理对话消息失败, user: %d, error: %v", user.ID, err)
			writeFrame(conn, chatFrame{Type: frameError, Message: errorText(err)})
			continue
		}
		writeFrame(conn, chatFrame{Type: frameEntries, Entries: out})
	}
}

func parseClientFrame(message []byte) clientFrame {
	trimmed := strings.TrimSpace(string(message))
	if strings.HasPrefix(trimmed, "{") {
		var f clientFrame
		if err := json.Unmarshal(message, &f); err == nil {
			return f
		}
	}
	return clientFrame{Type: "message", Message: string(message)}
}

func writeFrame(conn *websocket.Conn, f chatFrame) {
	if err := conn.WriteJSON(f); err != nil {
		log.Warnf("写入 WebSocket 消息失败: %v", err)
	}
}

// errorText 只对校验错误返回具体原因，其余统一为道歉语。
func errorText(err error) string {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return assessment.MsgApology
}

type turnRequest struct {
	Message string `json:"message"`
}

// Turn 是 WebSocket 不可用时的 REST 入口。
func (h *ChatHandler) Turn(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortNoUser(c)
		return
	}
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "message is required", "data": nil})
		return
	}
	entries, err := h.chatService.HandleTurn(c.Request.Context(), user, c.GetString("token"), req.Message)
	if err != nil {
		respondError(c, "Turn", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": entries})
}

type resetRequest struct {
	Scheme string `json:"scheme"`
}

// Reset 放弃当前对话，返回新对话的记录。请求体可以为空。
func (h *ChatHandler) Reset(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortNoUser(c)
		return
	}
	var req resetRequest
	_ = c.ShouldBindJSON(&req)
	if s := c.Query("scheme"); s != "" {
		req.Scheme = s
	}
	entries, err := h.chatService.Reset(c.Request.Context(), user, c.GetString("token"), req.Scheme)
	if err != nil {
		respondError(c, "Reset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": entries})
}
