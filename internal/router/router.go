package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"onebite/internal/handlers"
	"onebite/internal/middleware"
)

// Handlers 所有路由用到的 handler
type Handlers struct {
	Board  *handlers.BoardHandler
	Upload *handlers.UploadHandler
	Chat   *handlers.ChatHandler
}

type Options struct {
	TemplatesDir   string
	StaticDir      string
	MaxInflight    int64
	MaxUploadBytes int64
}

// New 创建带中间件、模板和静态目录的 gin 实例
func New(opts Options, h Handlers) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.AccessLog())
	r.Use(middleware.MaxInFlight(opts.MaxInflight))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.MaxMultipartMemory = opts.MaxUploadBytes

	renderer, err := LoadTemplates(opts.TemplatesDir)
	if err != nil {
		return nil, err
	}
	r.HTMLRender = renderer

	// Static Assets（上传的图片也在这里）
	r.Static("/static", opts.StaticDir)

	RegisterRoutes(r, h)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/", h.Board.Index)               // 首页
	r.GET("/posts", h.Board.List)           // 帖子列表
	r.POST("/post", h.Board.Create)         // 发帖
	r.GET("/post/:id", h.Board.Detail)      // 帖子详情
	r.POST("/like/:id", h.Board.ToggleLike) // 点赞 / 取消
	r.GET("/search", h.Board.Search)        // 搜索

	r.POST("/comment/:id", h.Board.AddComment)           // 发表评论
	r.PUT("/comment/:id/:cid", h.Board.UpdateComment)    // 修改评论
	r.DELETE("/comment/:id/:cid", h.Board.DeleteComment) // 删除评论

	r.POST("/upload", h.Upload.Upload) // 上传图片
	r.POST("/chat", h.Chat.Chat)       // 问答助手
}
