package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"onebite/internal/middleware"
	"onebite/internal/models"
	"onebite/internal/services"
	"onebite/internal/utils"
)

type BoardHandler struct {
	board *services.BoardService
}

func NewBoardHandler(board *services.BoardService) *BoardHandler {
	return &BoardHandler{board: board}
}

type createPostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// postView 列表与详情返回的帖子，附带当前身份是否已点赞
type postView struct {
	models.Post
	Liked bool `json:"liked"`
}

func viewsOf(posts []models.Post, identity string) []postView {
	out := make([]postView, len(posts))
	for i, p := range posts {
		out[i] = postView{Post: p, Liked: p.LikedBy.Has(identity)}
	}
	return out
}

// Index 首页 (GET /)
func (h *BoardHandler) Index(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	Render(c, http.StatusOK, "index.html", gin.H{
		"Posts":     viewsOf(h.board.List(), identity),
		"PostLimit": h.board.PostLimit(),
	})
}

// List 帖子列表，最新在前 (GET /posts)
func (h *BoardHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"posts":   viewsOf(h.board.List(), middleware.GetIdentity(c)),
	})
}

// Create 发帖 (POST /post)
func (h *BoardHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "request body is missing")
		return
	}

	post, err := h.board.CreatePost(c.Request.Context(), middleware.GetIdentity(c), req.Content, req.ImageURL)
	if err != nil {
		RespondError(c, err, h.board.PostLimit())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

// Detail 帖子详情，浏览量 +1 (GET /post/:id)
func (h *BoardHandler) Detail(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}

	post, err := h.board.GetPost(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err, h.board.PostLimit())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"post":    postView{Post: post, Liked: post.LikedBy.Has(middleware.GetIdentity(c))},
	})
}

// Search 按内容搜索 (GET /search?q=)
func (h *BoardHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"posts":   viewsOf(h.board.Search(query), middleware.GetIdentity(c)),
	})
}

// AddComment 发表评论 (POST /comment/:id)
func (h *BoardHandler) AddComment(c *gin.Context) {
	postID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		JSONError(c, http.StatusNotFound, "post not found")
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "request body is missing")
		return
	}

	comment, err := h.board.AddComment(c.Request.Context(), postID, middleware.GetIdentity(c), req.Comment)
	if err != nil {
		RespondError(c, err, h.board.PostLimit())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comment": comment})
}

// UpdateComment 修改自己的评论 (PUT /comment/:id/:cid)
func (h *BoardHandler) UpdateComment(c *gin.Context) {
	postID, ok1 := utils.ParseID(c.Param("id"))
	commentID, ok2 := utils.ParseID(c.Param("cid"))
	if !ok1 || !ok2 {
		JSONError(c, http.StatusNotFound, "comment not found")
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "request body is missing")
		return
	}

	comment, err := h.board.UpdateComment(c.Request.Context(), postID, commentID, middleware.GetIdentity(c), req.Comment)
	if err != nil {
		RespondError(c, err, h.board.PostLimit())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comment": comment})
}

// DeleteComment 删除自己的评论 (DELETE /comment/:id/:cid)
func (h *BoardHandler) DeleteComment(c *gin.Context) {
	postID, ok1 := utils.ParseID(c.Param("id"))
	commentID, ok2 := utils.ParseID(c.Param("cid"))
	if !ok1 || !ok2 {
		JSONError(c, http.StatusNotFound, "comment not found")
		return
	}

	if err := h.board.DeleteComment(c.Request.Context(), postID, commentID, middleware.GetIdentity(c)); err != nil {
		RespondError(c, err, h.board.PostLimit())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
