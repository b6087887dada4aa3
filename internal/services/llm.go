package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrLLMNotConfigured = errors.New("llm base url not configured")

// ChatMessage OpenAI 兼容的消息结构
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest /chat/completions 请求体
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatResponse /chat/completions 响应体（只取用到的字段）
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type LLMConfig struct {
	BaseURL string
	Token   string
	Model   string
	RPS     float64 // 出站请求速率上限，<= 0 表示不限
	Burst   int
}

// LLMService 调用 OpenAI 兼容的 chat completions 接口
type LLMService struct {
	baseURL string
	token   string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

func NewLLMService(cfg LLMConfig) *LLMService {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &LLMService{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		model:   cfg.Model,
		// 超时由调用方的 context 控制，这里只兜底
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Complete 发送单轮提示词，返回模型回复原文。不做重试
func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	if s.baseURL == "" {
		return "", ErrLLMNotConfigured
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("等待 LLM 限流: %w", err)
	}

	body, err := json.Marshal(ChatRequest{
		Model:       s.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求 LLM 失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM 返回状态码 %d", resp.StatusCode)
	}

	var out ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("LLM 响应为空")
	}
	return out.Choices[0].Message.Content, nil
}
