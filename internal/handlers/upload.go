package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"onebite/internal/services"
)

// UploadHandler 图片上传
type UploadHandler struct {
	images *services.LocalImageStore
}

func NewUploadHandler(images *services.LocalImageStore) *UploadHandler {
	return &UploadHandler{images: images}
}

// Upload 处理图片上传请求 (POST /upload)
func (h *UploadHandler) Upload(c *gin.Context) {
	// 获取上传的文件
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		JSONError(c, http.StatusBadRequest, "no image provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		JSONError(c, http.StatusBadRequest, "no file selected")
		return
	}

	result, err := h.images.Save(file, header)
	switch {
	case errors.Is(err, services.ErrNotImage):
		JSONError(c, http.StatusBadRequest, "only image files are allowed")
		return
	case errors.Is(err, services.ErrFileTooLarge):
		JSONError(c, http.StatusBadRequest, "image is too large")
		return
	case err != nil:
		RespondError(c, fmt.Errorf("upload image: %w", err), 0)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": result.Filename,
		"url":      result.URL,
	})
}
