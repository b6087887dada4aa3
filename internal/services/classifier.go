package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"onebite/internal/logger"
	"onebite/internal/utils"
)

var ErrMalformedVerdict = errors.New("unrecognised classifier response")

// Completer 外部文本模型，LLMService 实现了它
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const classifierPrompt = `Check whether the following text contains profanity or spam: %s

Look for:
1. profanity or slurs
2. insults or hateful expressions
3. spam-like repetitive text

Answer ONLY in one of these forms:
- if it contains profanity or slurs: "profanity: true"
- if it is spam-like: "spam: true"
- if there is no problem: "false"`

func BuildClassifierPrompt(text string) string {
	return fmt.Sprintf(classifierPrompt, text)
}

// ParseClassifierResponse 对小写化后的回复做子串匹配
func ParseClassifierResponse(raw string) (Verdict, error) {
	result := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case result == "":
		return Verdict{}, ErrMalformedVerdict
	case strings.Contains(result, "profanity: true"):
		return Reject(StageClassifier, ReasonProfanity), nil
	case strings.Contains(result, "spam: true"):
		return Reject(StageClassifier, ReasonSpam), nil
	case strings.Contains(result, "false"):
		return Allow(StageClassifier), nil
	}
	return Verdict{}, ErrMalformedVerdict
}

// ClassifierClient 调用外部模型判断文本，单次尝试，带超时。
// 成功得到的结论按文本缓存，失败从不缓存。
type ClassifierClient struct {
	llm     Completer
	timeout time.Duration
	cache   *utils.TTLCache[string, Verdict]
}

func NewClassifierClient(llm Completer, timeout time.Duration, cache *utils.TTLCache[string, Verdict]) *ClassifierClient {
	return &ClassifierClient{llm: llm, timeout: timeout, cache: cache}
}

func (c *ClassifierClient) Classify(ctx context.Context, text string) (Verdict, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(text); ok {
			return v, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.llm.Complete(ctx, BuildClassifierPrompt(text))
	if err != nil {
		return Verdict{}, err
	}
	v, err := ParseClassifierResponse(raw)
	if err != nil {
		logger.Warn("classifier returned unexpected answer", zap.String("raw", truncate(raw, 200)))
		return Verdict{}, err
	}
	if c.cache != nil {
		c.cache.Set(text, v)
	}
	return v, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
