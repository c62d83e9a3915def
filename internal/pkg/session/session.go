package session

import "github.com/gin-gonic/gin"

// 平台固定角色，自定义角色是纯装饰，不参与鉴权
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

const contextKey = "session"

// Session 当前请求的会话上下文
// 认证中间件解析 Token 后写入，数据层统一从这里取当前用户，
// 不允许绕过会话直接读全局状态
type Session struct {
	UserID string
	Role   string
}

// IsModerator 是否具备版主及以上权限
func (s *Session) IsModerator() bool {
	return s.Role == RoleModerator || s.Role == RoleAdmin
}

// IsAdmin 是否为管理员
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Set 将会话写入请求上下文
func Set(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}

// FromGin 从请求上下文取会话，未认证时返回 nil
func FromGin(c *gin.Context) *Session {
	val, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	s, _ := val.(*Session)
	return s
}

// UserIDFromGin 便捷方法：取当前用户 ID，匿名时返回空串
func UserIDFromGin(c *gin.Context) string {
	if s := FromGin(c); s != nil {
		return s.UserID
	}
	return ""
}
