package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"onebite/internal/logger"
	"onebite/internal/models"
	"onebite/internal/store"
)

// Moderator 审核文本（ModerationPipeline 实现）
type Moderator interface {
	Evaluate(ctx context.Context, text string) Verdict
}

// BoardService 串起 限流 → 审核 → Store → 持久化。
// 审核（可能走网络）一定在 Store 加锁之前完成。
type BoardService struct {
	store     *store.Store
	limiter   *RateLimiter
	moderator Moderator
	persister *Persister
}

func NewBoardService(s *store.Store, limiter *RateLimiter, moderator Moderator, persister *Persister) *BoardService {
	return &BoardService{store: s, limiter: limiter, moderator: moderator, persister: persister}
}

func (b *BoardService) persist(ctx context.Context) {
	if b.persister == nil {
		return
	}
	// 失败已在 Persister 中记录，内存修改仍然有效
	_ = b.persister.Persist(ctx)
}

func (b *BoardService) moderate(ctx context.Context, text string) error {
	v := b.moderator.Evaluate(ctx, text)
	if !v.Allowed {
		logger.Info("content rejected", zap.String("stage", string(v.Stage)), zap.String("reason", v.Reason))
		return &ModerationError{Reason: v.Reason}
	}
	return nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrPostNotFound), errors.Is(err, store.ErrCommentNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, store.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return err
}

// CleanText 只去掉首尾空白，原文照存，输出时再转义
func CleanText(s string) string {
	return strings.TrimSpace(s)
}

// CreatePost 发帖。即使随后被审核拒绝，本次发帖也计入当日次数
func (b *BoardService) CreatePost(ctx context.Context, identity, content, imageURL string) (models.Post, error) {
	content = CleanText(content)
	if content == "" {
		return models.Post{}, ErrValidation
	}

	decision, err := b.limiter.CheckAndConsume(ctx, identity)
	if err != nil {
		return models.Post{}, fmt.Errorf("check post limit: %w", err)
	}
	if decision == Denied {
		return models.Post{}, ErrRateLimited
	}

	if err := b.moderate(ctx, content); err != nil {
		return models.Post{}, err
	}

	post := b.store.AppendPost(content, strings.TrimSpace(imageURL), identity)
	b.persist(ctx)

	logger.Info("post created", zap.Int("post_id", post.ID), zap.String("identity", identity))
	return post, nil
}

// GetPost 详情，浏览量 +1
func (b *BoardService) GetPost(ctx context.Context, id int) (models.Post, error) {
	post, err := b.store.GetPost(id)
	if err != nil {
		return models.Post{}, mapStoreErr(err)
	}
	b.persist(ctx)
	return post, nil
}

func (b *BoardService) ToggleLike(ctx context.Context, id int, identity string) (int, bool, error) {
	likes, liked, err := b.store.ToggleLike(id, identity)
	if err != nil {
		return 0, false, mapStoreErr(err)
	}
	b.persist(ctx)
	return likes, liked, nil
}

func (b *BoardService) AddComment(ctx context.Context, postID int, identity, text string) (models.Comment, error) {
	text = CleanText(text)
	if text == "" {
		return models.Comment{}, ErrValidation
	}
	// 帖子不存在时不必调用审核
	if _, err := b.store.Peek(postID); err != nil {
		return models.Comment{}, mapStoreErr(err)
	}
	if err := b.moderate(ctx, text); err != nil {
		return models.Comment{}, err
	}

	c, err := b.store.AddComment(postID, text, identity)
	if err != nil {
		return models.Comment{}, mapStoreErr(err)
	}
	b.persist(ctx)
	return c, nil
}

// UpdateComment 评论不存在或不是作者时不调用审核。
// 审核期间评论可能被删掉，写入时 Store 会再校验一次
func (b *BoardService) UpdateComment(ctx context.Context, postID, commentID int, identity, text string) (models.Comment, error) {
	text = CleanText(text)
	if text == "" {
		return models.Comment{}, ErrValidation
	}
	author, err := b.store.CommentAuthor(postID, commentID)
	if err != nil {
		return models.Comment{}, mapStoreErr(err)
	}
	if author != identity {
		return models.Comment{}, mapStoreErr(store.ErrForbidden)
	}
	if err := b.moderate(ctx, text); err != nil {
		return models.Comment{}, err
	}

	c, err := b.store.UpdateComment(postID, commentID, text, identity)
	if err != nil {
		return models.Comment{}, mapStoreErr(err)
	}
	b.persist(ctx)
	return c, nil
}

func (b *BoardService) DeleteComment(ctx context.Context, postID, commentID int, identity string) error {
	if err := b.store.DeleteComment(postID, commentID, identity); err != nil {
		return mapStoreErr(err)
	}
	b.persist(ctx)
	return nil
}

func (b *BoardService) Search(query string) []models.Post {
	return b.store.Search(query)
}

func (b *BoardService) List() []models.Post {
	return b.store.List()
}

// PostLimit 每日发帖上限，用于提示信息
func (b *BoardService) PostLimit() int {
	return b.limiter.Limit()
}
