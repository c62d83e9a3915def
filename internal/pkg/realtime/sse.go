package realtime

import (
	"io"
	"net/http"
	"time"

	"community_hub/pkg/response"

	"github.com/gin-gonic/gin"
)

// 心跳间隔，防止中间代理掐掉空闲连接
const heartbeatInterval = 30 * time.Second

// SubscribeHandler 变更通知的 SSE 出口
// GET /realtime/subscribe?table=discussions&filter=discussion_id=<id>
// 连接期间每条命中的变更事件推一个 "change" 消息，客户端收到后按需重拉
// @Summary 订阅表变更通知 (SSE)
// @Tags Realtime
// @Param table query string true "表名"
// @Param filter query string false "归属键过滤, 如 chat_id=<id>"
// @Router /realtime/subscribe [get]
func SubscribeHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		table := c.Query("table")
		if !ValidTable(table) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "unknown table")
			return
		}

		sub, err := hub.Subscribe(Topic{Table: table, Filter: c.Query("filter")})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
			return
		}
		defer sub.Close()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return false
				}
				c.SSEvent("change", ev)
				return true
			case <-heartbeat.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
