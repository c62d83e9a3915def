package handler

import (
	"errors"
	"net/http"

	"community_hub/internal/domain/bounty/service"
	"community_hub/internal/pkg/session"
	"community_hub/pkg/response"
	"community_hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BountyHandler struct {
	service service.BountyService
}

func NewBountyHandler(s service.BountyService) *BountyHandler {
	return &BountyHandler{service: s}
}

// CreateInput 发布悬赏输入
type CreateInput struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Price       float64  `json:"price" binding:"required"`
	Currency    string   `json:"currency" binding:"required"`
	Tags        []string `json:"tags"`
}

// UpdateInput 编辑悬赏输入
type UpdateInput struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
	Currency    string  `json:"currency" binding:"required"`
}

// StatusInput 状态流转输入
type StatusInput struct {
	Status string `json:"status" binding:"required"`
}

// List 悬赏列表
// @Summary 悬赏列表 (按时间倒序，含标签和作者)
// @Tags Bounty
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} utils.PageResult
// @Router /bounties [get]
func (h *BountyHandler) List(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)
	p.GetPageOffset()

	views, total, err := h.service.List(p.Page, p.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: views, Total: total, Page: p.Page, Limit: p.Limit})
}

// Get 悬赏详情
func (h *BountyHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBountyNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, view)
}

// Create 发布悬赏
// @Summary 发布悬赏 (价格必须为正，币种为 3 位代码)
// @Tags Bounty
// @Accept json
// @Produce json
// @Param input body CreateInput true "悬赏内容"
// @Success 200 {object} model.Bounty
// @Router /bounties [post]
func (h *BountyHandler) Create(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	b, err := h.service.Create(s.UserID, service.CreateBountyInput{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Currency:    input.Currency,
		Tags:        input.Tags,
	})
	if err != nil {
		h.writeValidationOrServerError(c, err)
		return
	}

	response.Success(c, b)
}

// Update 编辑自己的悬赏
func (h *BountyHandler) Update(c *gin.Context) {
	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	err := h.service.Update(s.UserID, c.Param("id"), service.UpdateBountyInput{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Currency:    input.Currency,
	})
	if err != nil {
		h.writeMutationError(c, err)
		return
	}

	response.Success(c, "updated")
}

// Delete 删除自己的悬赏
func (h *BountyHandler) Delete(c *gin.Context) {
	s := session.FromGin(c)
	if err := h.service.Delete(s.UserID, c.Param("id")); err != nil {
		h.writeMutationError(c, err)
		return
	}

	response.Success(c, "deleted")
}

// UpdateStatus 状态流转 (open / in_progress / completed / cancelled)
func (h *BountyHandler) UpdateStatus(c *gin.Context) {
	var input StatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	if err := h.service.UpdateStatus(s.UserID, c.Param("id"), input.Status); err != nil {
		h.writeMutationError(c, err)
		return
	}

	response.Success(c, "status updated")
}

func (h *BountyHandler) writeValidationOrServerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPrice):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidPrice, err.Error())
	case errors.Is(err, service.ErrInvalidCurrency):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidPrice, err.Error())
	case errors.Is(err, service.ErrEmptyTag):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidTag, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}

func (h *BountyHandler) writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBountyNotFound):
		response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, response.ErrNotOwner, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidStatus, err.Error())
	default:
		h.writeValidationOrServerError(c, err)
	}
}
