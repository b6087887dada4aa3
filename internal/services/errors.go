package services

import (
	"errors"
)

var (
	ErrValidation  = errors.New("content is required")
	ErrRateLimited = errors.New("daily post limit reached")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
)

// ModerationError 审核未通过，Reason 直接展示给调用方
type ModerationError struct {
	Reason string
}

func (e *ModerationError) Error() string {
	return "moderation rejected: " + e.Reason
}
