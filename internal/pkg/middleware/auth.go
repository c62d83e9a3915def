package middleware

import (
	"net/http"
	"strings"

	"community_hub/internal/pkg/session"
	"community_hub/pkg/response"
	"community_hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c)
		if !ok {
			c.Abort()
			return
		}

		session.Set(c, &session.Session{
			UserID: claims.UserID,
			Role:   claims.Role,
		})

		c.Next()
	}
}

// OptionalAuthMiddleware 可选认证
// 匿名请求放行且不写会话，登录请求正常解析
// 列表类接口用它来区分观察者视角字段 (如 userLiked)
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		claims, ok := parseBearer(c)
		if !ok {
			c.Abort()
			return
		}

		session.Set(c, &session.Session{
			UserID: claims.UserID,
			Role:   claims.Role,
		})

		c.Next()
	}
}

func parseBearer(c *gin.Context) (*utils.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		return nil, false
	}

	claims, err := utils.ParseToken(parts[1])
	if err != nil {
		response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
		return nil, false
	}

	return claims, true
}

// ModeratorMiddleware 版主及以上权限中间件
func ModeratorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.FromGin(c)
		if s == nil {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}
		if !s.IsModerator() {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Moderator permission required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.FromGin(c)
		if s == nil {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}
		if !s.IsAdmin() {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Admin permission required")
			c.Abort()
			return
		}
		c.Next()
	}
}
