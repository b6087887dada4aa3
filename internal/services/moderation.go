package services

import (
	"context"

	"go.uber.org/zap"

	"onebite/internal/logger"
)

// Classifier 外部分类阶段
type Classifier interface {
	Classify(ctx context.Context, text string) (Verdict, error)
}

// ModerationPipeline 先跑本地规则，通过后才调用外部分类器。
// 分类器出任何错误都按拒绝处理（fail-closed）。
type ModerationPipeline struct {
	heuristic  *HeuristicFilter
	classifier Classifier
}

func NewModerationPipeline(h *HeuristicFilter, c Classifier) *ModerationPipeline {
	return &ModerationPipeline{heuristic: h, classifier: c}
}

func (p *ModerationPipeline) Evaluate(ctx context.Context, text string) Verdict {
	v := p.heuristic.Evaluate(text)
	if !v.Allowed || !p.heuristic.Evaluable(text) {
		return v
	}

	v, err := p.classifier.Classify(ctx, text)
	if err != nil {
		logger.Warn("content classification failed, rejecting", zap.Error(err))
		return Reject(StageClassifier, ReasonValidationFailed)
	}
	return v
}
