package handler

import (
	"errors"
	"net/http"
	"time"

	"community_hub/internal/domain/admin/service"
	"community_hub/internal/pkg/session"
	"community_hub/pkg/response"
	"community_hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service service.AdminService
}

func NewAdminHandler(s service.AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

// AssignRoleInput 角色分配输入
type AssignRoleInput struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// CustomRoleInput 自定义角色输入
type CustomRoleInput struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color" binding:"required"`
	Description string `json:"description"`
}

// AssignCustomRoleInput 自定义角色分配输入
type AssignCustomRoleInput struct {
	UserID       string `json:"userId" binding:"required"`
	CustomRoleID string `json:"customRoleId" binding:"required"`
}

// ModerationInput 处罚输入
type ModerationInput struct {
	UserID     string     `json:"userId" binding:"required"`
	ActionType string     `json:"actionType" binding:"required,oneof=ban mute"`
	Reason     string     `json:"reason" binding:"required"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

// ListUsers 用户管理列表
// @Summary 用户列表 (含粗粒度角色，未分配的算 user)
// @Tags Admin
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} utils.PageResult
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)
	p.GetPageOffset()

	rows, total, err := h.service.ListUsers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: rows, Total: total, Page: p.Page, Limit: p.Limit})
}

// AssignRole 分配粗粒度角色
func (h *AdminHandler) AssignRole(c *gin.Context) {
	var input AssignRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	if err := h.service.AssignRole(s.UserID, input.UserID, input.Role); err != nil {
		if errors.Is(err, service.ErrRoleInvalid) {
			response.Error(c, http.StatusBadRequest, response.ErrRoleInvalid, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, "role assigned")
}

// MyRole 当前用户的粗粒度角色
func (h *AdminHandler) MyRole(c *gin.Context) {
	s := session.FromGin(c)

	role, err := h.service.MyRole(s.UserID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, gin.H{"role": role})
}

// CreateCustomRole 建自定义角色
func (h *AdminHandler) CreateCustomRole(c *gin.Context) {
	var input CustomRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	role, err := h.service.CreateCustomRole(s.UserID, service.CustomRoleInput{
		Name:        input.Name,
		Color:       input.Color,
		Description: input.Description,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, role)
}

// ListCustomRoles 自定义角色列表
func (h *AdminHandler) ListCustomRoles(c *gin.Context) {
	roles, err := h.service.ListCustomRoles()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, roles)
}

// UpdateCustomRole 改自定义角色
func (h *AdminHandler) UpdateCustomRole(c *gin.Context) {
	var input CustomRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	err := h.service.UpdateCustomRole(c.Param("id"), service.CustomRoleInput{
		Name:        input.Name,
		Color:       input.Color,
		Description: input.Description,
	})
	if err != nil {
		h.writeCustomRoleError(c, err)
		return
	}

	response.Success(c, "updated")
}

// DeleteCustomRole 删自定义角色，分配记录同事务清掉
func (h *AdminHandler) DeleteCustomRole(c *gin.Context) {
	if err := h.service.DeleteCustomRole(c.Param("id")); err != nil {
		h.writeCustomRoleError(c, err)
		return
	}

	response.Success(c, "deleted")
}

// AssignCustomRole 给用户分配自定义角色 (一人一个，重复分配覆盖)
func (h *AdminHandler) AssignCustomRole(c *gin.Context) {
	var input AssignCustomRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	if err := h.service.AssignCustomRole(s.UserID, input.UserID, input.CustomRoleID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, "custom role assigned")
}

// RemoveCustomRole 收回用户的自定义角色
func (h *AdminHandler) RemoveCustomRole(c *gin.Context) {
	if err := h.service.RemoveCustomRole(c.Param("userId")); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, "custom role removed")
}

// MyCustomRole 当前用户的自定义角色，没有则 data 为 null
func (h *AdminHandler) MyCustomRole(c *gin.Context) {
	s := session.FromGin(c)

	role, err := h.service.MyCustomRole(s.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoCustomRole) {
			response.Success(c, nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, role)
}

// ApplyModeration 处罚用户 (ban / mute)
func (h *AdminHandler) ApplyModeration(c *gin.Context) {
	var input ModerationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	row, err := h.service.ApplyModeration(s.UserID, service.ApplyModerationInput{
		UserID:     input.UserID,
		ActionType: input.ActionType,
		Reason:     input.Reason,
		ExpiresAt:  input.ExpiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActionInvalid), errors.Is(err, service.ErrReasonRequired):
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, row)
}

// DeactivateModeration 解除处罚
func (h *AdminHandler) DeactivateModeration(c *gin.Context) {
	if err := h.service.DeactivateModeration(c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrModerationNotFound):
			response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
		case errors.Is(err, service.ErrModerationClosed):
			response.Error(c, http.StatusConflict, response.ErrModerationClosed, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, "deactivated")
}

// ListActiveModeration 生效中的处罚列表
func (h *AdminHandler) ListActiveModeration(c *gin.Context) {
	views, err := h.service.ListActiveModeration()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, views)
}

func (h *AdminHandler) writeCustomRoleError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrCustomRoleNotFound) {
		response.Error(c, http.StatusNotFound, response.ErrContentNotFound, err.Error())
		return
	}
	response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
}
