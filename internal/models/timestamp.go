package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// LegacyTimeLayout 旧版数据文件里的时间格式，没有时区，按本地时间解释
const LegacyTimeLayout = "2006-01-02 15:04:05"

// ParseTimestamp 接受 RFC 3339 或旧版格式，空串得到零值
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(LegacyTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return t, nil
}

// UnmarshalJSON 兼容旧数据：created_at 可以是旧格式，image_url 可以是 null
func (p *Post) UnmarshalJSON(data []byte) error {
	type plain Post
	aux := struct {
		*plain
		CreatedAt string `json:"created_at"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := ParseTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("post %d: %w", p.ID, err)
	}
	p.CreatedAt = t
	return nil
}

// UnmarshalJSON 兼容旧数据：时间可以是旧格式，edited 字段可以缺失
func (c *Comment) UnmarshalJSON(data []byte) error {
	type plain Comment
	aux := struct {
		*plain
		CreatedAt string  `json:"created_at"`
		EditedAt  *string `json:"edited_at"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := ParseTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("comment %d: %w", c.ID, err)
	}
	c.CreatedAt = t

	c.EditedAt = nil
	if aux.EditedAt != nil && *aux.EditedAt != "" {
		edited, err := ParseTimestamp(*aux.EditedAt)
		if err != nil {
			return fmt.Errorf("comment %d: %w", c.ID, err)
		}
		c.EditedAt = &edited
		c.Edited = true
	}
	return nil
}
