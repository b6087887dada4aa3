package models

import (
	"time"
)

type Comment struct {
	ID             int        `json:"id"` // unique within the parent post
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"created_at"`
	AuthorIdentity string     `json:"user_ip"`
	Edited         bool       `json:"edited"`
	EditedAt       *time.Time `json:"edited_at,omitempty"` // set iff Edited
}

func (c Comment) Clone() Comment {
	if c.EditedAt != nil {
		t := *c.EditedAt
		c.EditedAt = &t
	}
	return c
}
