package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onebite/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat 问答助手 (POST /chat)。模型出错时仍返回 200 和致歉文案
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), req.Message)
	if err != nil {
		JSONError(c, http.StatusBadRequest, "message is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": reply,
	})
}
