package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onebite/internal/middleware"
	"onebite/internal/utils"
)

// ToggleLike 点赞 / 取消点赞 (POST /like/:id)
// 同一身份再点一次即取消
func (h *BoardHandler) ToggleLike(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	likes, liked, err := h.board.ToggleLike(c.Request.Context(), id, middleware.GetIdentity(c))
	if err != nil {
		RespondError(c, err, h.board.PostLimit())
		return
	}

	// 返回点赞数与当前状态
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"likes":   likes,
		"liked":   liked,
	})
}
