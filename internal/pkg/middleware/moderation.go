package middleware

import (
	"net/http"

	"community_hub/internal/pkg/session"
	"community_hub/pkg/logger"
	"community_hub/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ModerationChecker 处罚状态查询，由管理模块的仓库实现
type ModerationChecker interface {
	HasActiveModeration(userID, actionType string) (bool, error)
}

// 处罚动作，与管理模块的取值一致
const (
	actionBan  = "ban"
	actionMute = "mute"
)

// RequireNotBanned 封禁拦截，挂在认证之后的写路由上
// 生效中的封禁挡掉一切写入
func RequireNotBanned(check ModerationChecker) gin.HandlerFunc {
	return moderationGate(check, actionBan, response.ErrUserBanned, "account is banned")
}

// RequireNotMuted 禁言拦截，只挂在产出内容的路由上
// 禁言期间不允许发布或改动内容，读取不受影响
func RequireNotMuted(check ModerationChecker) gin.HandlerFunc {
	return moderationGate(check, actionMute, response.ErrUserMuted, "account is muted")
}

func moderationGate(check ModerationChecker, actionType string, errCode int, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.FromGin(c)
		if s == nil {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		active, err := check.HasActiveModeration(s.UserID, actionType)
		if err != nil {
			if logger.Log != nil {
				logger.Log.Error("moderation lookup failed",
					zap.String("userId", s.UserID),
					zap.String("action", actionType),
					zap.Error(err))
			}
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "moderation check failed")
			c.Abort()
			return
		}
		if active {
			response.Error(c, http.StatusForbidden, errCode, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}
