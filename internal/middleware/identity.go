package middleware

import (
	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

// Identity 用客户端网络地址作为身份，挂到 context 上。
// 没有账号体系，限流、点赞、评论归属都以它为准
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(IdentityKey, c.ClientIP())
		c.Next()
	}
}

// GetIdentity 取当前请求的身份
func GetIdentity(c *gin.Context) string {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return c.ClientIP()
}
