package services

import (
	"strings"
	"unicode/utf8"
)

// 拒绝原因
const (
	ReasonTooLong          = "text exceeds maximum length"
	ReasonCharRepetition   = "excessive character repetition"
	ReasonRepeatedWord     = "repeated word"
	ReasonSpecialChars     = "excessive special characters"
	ReasonProfanity        = "profanity/abusive content detected"
	ReasonSpam             = "classified as spam"
	ReasonValidationFailed = "content validation error"
)

type Stage string

const (
	StageHeuristic  Stage = "heuristic"
	StageClassifier Stage = "classifier"
)

// Verdict 审核结论。Allowed 为 false 时 Reason 非空
type Verdict struct {
	Allowed bool
	Reason  string
	Stage   Stage
}

func Allow(stage Stage) Verdict { return Verdict{Allowed: true, Stage: stage} }

func Reject(stage Stage, reason string) Verdict {
	return Verdict{Allowed: false, Reason: reason, Stage: stage}
}

// 标点 + 常见的韩文聊天表情字母（ㅋㅋ、ㅠㅠ 等）
const DefaultSpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?~`₩\"'" +
	"ㅋㅎㅠㅜㅡㅇㄷㅂㅅㅈㅊㅍㅌㄹㅁㄴㅣㅏㅓㅗㅢㅚㅐㅔ"

type ModerationConfig struct {
	MaxLength    int
	SpecialRatio float64
	SpecialChars string
}

func DefaultModerationConfig() ModerationConfig {
	return ModerationConfig{
		MaxLength:    1000,
		SpecialRatio: 0.2,
		SpecialChars: DefaultSpecialChars,
	}
}

// HeuristicFilter 纯本地、同步的规则检查，按固定顺序执行，命中即返回
type HeuristicFilter struct {
	maxLength    int
	specialRatio float64
	special      map[rune]struct{}
}

func NewHeuristicFilter(cfg ModerationConfig) *HeuristicFilter {
	if cfg.SpecialChars == "" {
		cfg.SpecialChars = DefaultSpecialChars
	}
	special := make(map[rune]struct{})
	for _, r := range cfg.SpecialChars {
		special[r] = struct{}{}
	}
	return &HeuristicFilter{
		maxLength:    cfg.MaxLength,
		specialRatio: cfg.SpecialRatio,
		special:      special,
	}
}

// Evaluable 去掉首尾空白后不足 2 个字符的文本不参与后续任何规则（包括分类器）
func (f *HeuristicFilter) Evaluable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= 2
}

func (f *HeuristicFilter) Evaluate(text string) Verdict {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) < 2 {
		return Allow(StageHeuristic)
	}

	// 1. 长度
	if len(runes) > f.maxLength {
		return Reject(StageHeuristic, ReasonTooLong)
	}

	// 2. 相邻字符重复（任意两个相同字符相邻即拒绝）
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			return Reject(StageHeuristic, ReasonCharRepetition)
		}
	}

	// 3. 相邻单词重复，区分大小写
	words := strings.Fields(text)
	for i := 1; i < len(words); i++ {
		if words[i] == words[i-1] {
			return Reject(StageHeuristic, ReasonRepeatedWord)
		}
	}

	// 4. 特殊字符占比
	count := 0
	for _, r := range runes {
		if _, ok := f.special[r]; ok {
			count++
		}
	}
	if float64(count)/float64(len(runes)) > f.specialRatio {
		return Reject(StageHeuristic, ReasonSpecialChars)
	}

	return Allow(StageHeuristic)
}
