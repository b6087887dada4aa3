package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"onebite/internal/logger"
)

const (
	chatFallbackEmpty = "Sorry, I can't answer right now. Please try again in a moment."
	chatFallbackError = "Sorry, something went wrong. Could you ask again?"
)

// ChatService 把用户问题直接转发给 LLM。失败时返回固定的致歉文案，不报错
type ChatService struct {
	llm     Completer
	timeout time.Duration
}

func NewChatService(llm Completer, timeout time.Duration) *ChatService {
	return &ChatService{llm: llm, timeout: timeout}
}

func (s *ChatService) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrValidation
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Answer the following question kindly: %s\nKeep the answer clear and easy to understand.", message)
	answer, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("chat completion failed", zap.Error(err))
		return chatFallbackError, nil
	}
	if strings.TrimSpace(answer) == "" {
		return chatFallbackEmpty, nil
	}
	return answer, nil
}
