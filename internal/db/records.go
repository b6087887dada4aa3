package db

import (
	"time"
)

// 表结构。内存模型不带 gorm 标签，持久化时互相转换

type PostRecord struct {
	ID             int       `gorm:"primaryKey;autoIncrement:false"`
	Content        string    `gorm:"type:text;not null"`
	ImageURL       string    `gorm:"size:512"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	Views          int       `gorm:"not null;default:0"`
	AuthorIdentity string    `gorm:"size:64;index"`
	NextCommentID  int       `gorm:"not null;default:1"`
}

func (PostRecord) TableName() string { return "posts" }

// PostLikeRecord 一行代表一个身份对一个帖子的点赞，联合主键保证不重复
type PostLikeRecord struct {
	PostID   int    `gorm:"primaryKey;autoIncrement:false"`
	Identity string `gorm:"primaryKey;size:64"`
}

func (PostLikeRecord) TableName() string { return "post_likes" }

type CommentRecord struct {
	PostID         int       `gorm:"primaryKey;autoIncrement:false"`
	ID             int       `gorm:"primaryKey;autoIncrement:false"`
	Text           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	AuthorIdentity string    `gorm:"size:64"`
	Edited         bool      `gorm:"not null;default:false"`
	EditedAt       *time.Time
}

func (CommentRecord) TableName() string { return "comments" }

type RateCounterRecord struct {
	Identity string `gorm:"primaryKey;size:64"`
	Count    int    `gorm:"not null"`
}

func (RateCounterRecord) TableName() string { return "rate_counters" }
