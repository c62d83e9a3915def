package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"community_hub/internal/pkg/session"
	"community_hub/pkg/logger"
	"community_hub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Init("debug", "error")
	m.Run()
}

// stubChecker 按动作返回处罚状态
type stubChecker struct {
	active map[string]bool
	err    error
}

func (s *stubChecker) HasActiveModeration(userID, actionType string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[actionType], nil
}

func newGuardedRouter(check ModerationChecker) *gin.Engine {
	r := gin.New()
	// 测试里直接塞会话，跳过 JWT 解析
	fakeAuth := func(c *gin.Context) {
		session.Set(c, &session.Session{UserID: "u1", Role: session.RoleUser})
	}
	r.POST("/posts", fakeAuth, RequireNotBanned(check), RequireNotMuted(check), func(c *gin.Context) {
		response.Success(c, "created")
	})
	return r
}

func doPost(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGuardAllowsCleanUser(t *testing.T) {
	r := newGuardedRouter(&stubChecker{active: map[string]bool{}})

	w := doPost(r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardBlocksBannedUser(t *testing.T) {
	r := newGuardedRouter(&stubChecker{active: map[string]bool{"ban": true}})

	w := doPost(r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"code":%d`, response.ErrUserBanned))
}

func TestGuardBlocksMutedUser(t *testing.T) {
	r := newGuardedRouter(&stubChecker{active: map[string]bool{"mute": true}})

	w := doPost(r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"code":%d`, response.ErrUserMuted))
}

func TestGuardFailsClosedOnLookupError(t *testing.T) {
	r := newGuardedRouter(&stubChecker{err: errors.New("db down")})

	w := doPost(r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGuardRejectsMissingSession(t *testing.T) {
	r := gin.New()
	r.POST("/posts", RequireNotBanned(&stubChecker{}), func(c *gin.Context) {
		response.Success(c, "created")
	})

	w := doPost(r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
