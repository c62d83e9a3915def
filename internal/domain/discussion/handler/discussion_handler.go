package handler

import (
	"errors"
	"net/http"

	"community_hub/internal/domain/discussion/service"
	"community_hub/internal/pkg/session"
	"community_hub/pkg/response"
	"community_hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DiscussionHandler struct {
	service service.DiscussionService
}

func NewDiscussionHandler(s service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{service: s}
}

// CreateInput 发帖输入
type CreateInput struct {
	Title string   `json:"title" binding:"required"`
	Body  string   `json:"body" binding:"required"`
	Tags  []string `json:"tags"`
}

// UpdateInput 编辑输入
type UpdateInput struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// ReplyInput 回复输入
type ReplyInput struct {
	Content string `json:"content" binding:"required"`
}

// LikeInput 点赞输入
type LikeInput struct {
	TargetID   string `json:"targetId" binding:"required"`
	TargetType string `json:"targetType" binding:"required,oneof=discussion reply"`
}

// List 讨论列表
// @Summary 讨论列表 (按时间倒序，含标签/统计/观察者点赞状态)
// @Tags Discussion
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} utils.PageResult
// @Router /discussions [get]
func (h *DiscussionHandler) List(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)
	p.GetPageOffset()

	viewerID := session.UserIDFromGin(c)
	views, total, err := h.service.List(viewerID, p.Page, p.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: views, Total: total, Page: p.Page, Limit: p.Limit})
}

// Get 讨论详情
func (h *DiscussionHandler) Get(c *gin.Context) {
	viewerID := session.UserIDFromGin(c)

	view, err := h.service.Get(viewerID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrDiscussionNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, view)
}

// Create 发帖
// @Summary 发布讨论
// @Tags Discussion
// @Accept json
// @Produce json
// @Param input body CreateInput true "帖子内容"
// @Success 200 {object} model.Discussion
// @Router /discussions [post]
func (h *DiscussionHandler) Create(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	d, err := h.service.Create(s.UserID, input.Title, input.Body, input.Tags)
	if err != nil {
		if errors.Is(err, service.ErrEmptyTag) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidTag, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, d)
}

// Update 编辑自己的帖子
func (h *DiscussionHandler) Update(c *gin.Context) {
	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	if err := h.service.Update(s.UserID, c.Param("id"), input.Title, input.Body); err != nil {
		h.writeOwnershipError(c, err)
		return
	}

	response.Success(c, "updated")
}

// Delete 删除自己的帖子
func (h *DiscussionHandler) Delete(c *gin.Context) {
	s := session.FromGin(c)
	if err := h.service.Delete(s.UserID, c.Param("id")); err != nil {
		h.writeOwnershipError(c, err)
		return
	}

	response.Success(c, "deleted")
}

func (h *DiscussionHandler) writeOwnershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDiscussionNotFound):
		response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, response.ErrNotOwner, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}

// ListReplies 回复列表
func (h *DiscussionHandler) ListReplies(c *gin.Context) {
	viewerID := session.UserIDFromGin(c)

	views, err := h.service.ListReplies(viewerID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrDiscussionNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, views)
}

// AddReply 发表回复
func (h *DiscussionHandler) AddReply(c *gin.Context) {
	var input ReplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	reply, err := h.service.AddReply(s.UserID, c.Param("id"), input.Content)
	if err != nil {
		if errors.Is(err, service.ErrDiscussionNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, reply)
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞开关，返回最终状态和计数
// @Tags Discussion
// @Accept json
// @Produce json
// @Param input body LikeInput true "点赞目标"
// @Success 200 {object} model.LikeResult
// @Router /likes/toggle [post]
func (h *DiscussionHandler) ToggleLike(c *gin.Context) {
	var input LikeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	result, err := h.service.ToggleLike(s.UserID, input.TargetType, input.TargetID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDiscussionNotFound), errors.Is(err, service.ErrReplyNotFound):
			response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidLikeTarget):
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, result)
}
