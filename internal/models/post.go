package models

import (
	"time"
)

type Post struct {
	ID             int         `json:"id"`
	Content        string      `json:"content"`
	ImageURL       string      `json:"image_url,omitempty"` // Optional
	CreatedAt      time.Time   `json:"created_at"`
	Likes          int         `json:"likes"`
	Views          int         `json:"views"`
	LikedBy        IdentitySet `json:"liked_by"`
	Comments       []Comment   `json:"comments"`
	AuthorIdentity string      `json:"user_ip"`

	// 下一个评论编号，只增不减，删除评论后也不会复用
	NextCommentID int `json:"next_comment_id"`
}

// Clone 深拷贝，Store 之外拿到的都是副本
func (p *Post) Clone() Post {
	cp := *p
	cp.LikedBy = p.LikedBy.Clone()
	cp.Comments = make([]Comment, len(p.Comments))
	for i, c := range p.Comments {
		cp.Comments[i] = c.Clone()
	}
	return cp
}
