package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"onebite/internal/models"
)

const batchSize = 200

// GormGateway 把快照存进关系库（postgres / sqlite）。
// 每次 Save 在一个事务里整体替换，读取时按帖子编号倒序还原展示顺序。
type GormGateway struct {
	db *gorm.DB
}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

func (g *GormGateway) Load(ctx context.Context) ([]models.Post, map[string]int, error) {
	tx := g.db.WithContext(ctx)

	var postRows []PostRecord
	if err := tx.Order("id desc").Find(&postRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load posts: %w", err)
	}
	var likeRows []PostLikeRecord
	if err := tx.Find(&likeRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load likes: %w", err)
	}
	var commentRows []CommentRecord
	if err := tx.Order("post_id asc, id asc").Find(&commentRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load comments: %w", err)
	}
	var counterRows []RateCounterRecord
	if err := tx.Find(&counterRows).Error; err != nil {
		return nil, nil, fmt.Errorf("load rate counters: %w", err)
	}

	posts := make([]models.Post, len(postRows))
	index := make(map[int]*models.Post, len(postRows))
	for i, r := range postRows {
		posts[i] = models.Post{
			ID:             r.ID,
			Content:        r.Content,
			ImageURL:       r.ImageURL,
			CreatedAt:      r.CreatedAt,
			Views:          r.Views,
			LikedBy:        models.NewIdentitySet(),
			Comments:       []models.Comment{},
			AuthorIdentity: r.AuthorIdentity,
			NextCommentID:  r.NextCommentID,
		}
		index[r.ID] = &posts[i]
	}
	for _, l := range likeRows {
		if p, ok := index[l.PostID]; ok {
			p.LikedBy.Add(l.Identity)
			p.Likes = p.LikedBy.Len()
		}
	}
	for _, c := range commentRows {
		p, ok := index[c.PostID]
		if !ok {
			continue
		}
		p.Comments = append(p.Comments, models.Comment{
			ID:             c.ID,
			Text:           c.Text,
			CreatedAt:      c.CreatedAt,
			AuthorIdentity: c.AuthorIdentity,
			Edited:         c.Edited,
			EditedAt:       c.EditedAt,
		})
	}

	counters := make(map[string]int, len(counterRows))
	for _, r := range counterRows {
		counters[r.Identity] = r.Count
	}
	return posts, counters, nil
}

func (g *GormGateway) Save(ctx context.Context, posts []models.Post, counters map[string]int) error {
	postRows := make([]PostRecord, 0, len(posts))
	var likeRows []PostLikeRecord
	var commentRows []CommentRecord
	for _, p := range posts {
		postRows = append(postRows, PostRecord{
			ID:             p.ID,
			Content:        p.Content,
			ImageURL:       p.ImageURL,
			CreatedAt:      p.CreatedAt,
			Views:          p.Views,
			AuthorIdentity: p.AuthorIdentity,
			NextCommentID:  p.NextCommentID,
		})
		for _, id := range p.LikedBy.Slice() {
			likeRows = append(likeRows, PostLikeRecord{PostID: p.ID, Identity: id})
		}
		for _, c := range p.Comments {
			commentRows = append(commentRows, CommentRecord{
				PostID:         p.ID,
				ID:             c.ID,
				Text:           c.Text,
				CreatedAt:      c.CreatedAt,
				AuthorIdentity: c.AuthorIdentity,
				Edited:         c.Edited,
				EditedAt:       c.EditedAt,
			})
		}
	}
	counterRows := make([]RateCounterRecord, 0, len(counters))
	for k, v := range counters {
		counterRows = append(counterRows, RateCounterRecord{Identity: k, Count: v})
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&CommentRecord{}, &PostLikeRecord{}, &PostRecord{}, &RateCounterRecord{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear table: %w", err)
			}
		}
		if len(postRows) > 0 {
			if err := tx.CreateInBatches(&postRows, batchSize).Error; err != nil {
				return fmt.Errorf("save posts: %w", err)
			}
		}
		if len(likeRows) > 0 {
			if err := tx.CreateInBatches(&likeRows, batchSize).Error; err != nil {
				return fmt.Errorf("save likes: %w", err)
			}
		}
		if len(commentRows) > 0 {
			if err := tx.CreateInBatches(&commentRows, batchSize).Error; err != nil {
				return fmt.Errorf("save comments: %w", err)
			}
		}
		if len(counterRows) > 0 {
			if err := tx.CreateInBatches(&counterRows, batchSize).Error; err != nil {
				return fmt.Errorf("save rate counters: %w", err)
			}
		}
		return nil
	})
}
