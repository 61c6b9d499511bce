// Package pssclient 是远程自适应 PSS 服务的 HTTP 客户端。
package pssclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stress-guru-go/internal/config"
	"stress-guru-go/internal/model"
	"stress-guru-go/pkg/log"
)

// Client 以某个用户的 access token 调用 PSS 服务。
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient 根据配置创建客户端，token 通过 WithToken 设置。
func NewClient(cfg config.PSSConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// WithToken 返回携带指定 token 的副本，底层 http.Client 共享。
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// envelope 是服务端统一的响应结构。
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// StatusError 表示服务端返回了非 2xx 状态码。
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pss service returned %d: %s", e.Status, e.Message)
}

type nextQuestionRequest struct {
	CurrentResponses []model.PSSResponse `json:"current_responses"`
}

type assessRequest struct {
	Responses []model.PSSResponse `json:"responses"`
}

// NextQuestion 调用 POST /api/v1/pss/next-question。
func (c *Client) NextQuestion(ctx context.Context, answered []model.PSSResponse) (*model.PSSNextQuestion, error) {
	if answered == nil {
		answered = []model.PSSResponse{}
	}
	var out model.PSSNextQuestion
	if err := c.do(ctx, http.MethodPost, "/api/v1/pss/next-question", nextQuestionRequest{CurrentResponses: answered}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assess 调用 POST /api/v1/pss/assess。
func (c *Client) Assess(ctx context.Context, responses []model.PSSResponse) (*model.PSSAssessment, error) {
	var out model.PSSAssessment
	if err := c.do(ctx, http.MethodPost, "/api/v1/pss/assess", assessRequest{Responses: responses}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History 调用 GET /api/v1/pss/history。
func (c *Client) History(ctx context.Context) ([]model.AssessmentRecord, error) {
	var out []model.AssessmentRecord
	if err := c.do(ctx, http.MethodGet, "/api/v1/pss/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reqBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal pss request: %w", err)
		}
		reader = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create pss request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[PSSClient] 调用 PSS 服务失败, path: %s, error: %v", path, err)
		return fmt.Errorf("failed to call pss service: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("[PSSClient] PSS 服务返回非 2xx 状态码: %s, path: %s", resp.Status, path)
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = resp.Status
		}
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode pss response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode pss response data: %w", err)
	}
	return nil
}
