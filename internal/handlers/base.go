package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onebite/internal/logger"
	"onebite/internal/middleware"
	"onebite/internal/services"
	"onebite/internal/store"
)

// Render helper to inject common variables
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	obj["CurrentPath"] = c.Request.URL.Path
	obj["Identity"] = middleware.GetIdentity(c)
	c.HTML(code, name, obj)
}

// JSONError 统一的错误响应
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// statusFor 把业务错误映射成 HTTP 状态码和对外文案
func statusFor(err error, limit int) (int, string) {
	var me *services.ModerationError
	switch {
	case errors.As(err, &me):
		return http.StatusBadRequest, me.Reason
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "content is required"
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests, rateLimitMessage(limit)
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, notFoundMessage(err)
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "permission denied"
	}
	return http.StatusInternalServerError, "internal server error"
}

// RespondError 写错误响应，500 额外记录日志
func RespondError(c *gin.Context, err error, limit int) {
	code, message := statusFor(err, limit)
	if code == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err))
		_ = c.Error(err)
	}
	JSONError(c, code, message)
}

func rateLimitMessage(limit int) string {
	return fmt.Sprintf("you can only write %d posts per day", limit)
}

func notFoundMessage(err error) string {
	if errors.Is(err, store.ErrCommentNotFound) {
		return "comment not found"
	}
	return "post not found"
}
