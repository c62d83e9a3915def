package handler

import (
	"errors"
	"net/http"

	"community_hub/internal/domain/profile/service"
	"community_hub/internal/pkg/session"
	"community_hub/pkg/response"
	"community_hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	service service.ProfileService
}

func NewProfileHandler(s service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: s}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username" binding:"required,min=3,max=32"`
}

// LoginInput 登录输入
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordInput 改密输入
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// UpdateProfileInput 资料更新输入
type UpdateProfileInput struct {
	Username      string `json:"username"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatarUrl"`
	BannerType    string `json:"bannerType"`
	BannerValue   string `json:"bannerValue"`
	StatusMessage string `json:"statusMessage"`
	Alignment     string `json:"alignment"`
	Font          string `json:"font"`
}

// AuthResult 认证结果
type AuthResult struct {
	Token   string      `json:"token"`
	Profile interface{} `json:"profile"`
}

// Register 注册
// @Summary 注册新账号
// @Tags Profile
// @Accept json
// @Produce json
// @Param input body RegisterInput true "注册信息"
// @Success 200 {object} AuthResult
// @Router /auth/register [post]
func (h *ProfileHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	profile, token, err := h.service.Register(input.Email, input.Password, input.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
			response.Fail(c, response.ErrUserExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, AuthResult{Token: token, Profile: profile})
}

// Login 登录
// @Summary 邮箱密码登录
// @Tags Profile
// @Accept json
// @Produce json
// @Param input body LoginInput true "登录信息"
// @Success 200 {object} AuthResult
// @Router /auth/login [post]
func (h *ProfileHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	profile, token, err := h.service.Login(input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
		case errors.Is(err, service.ErrAccountDeleted):
			response.Error(c, http.StatusForbidden, response.ErrAuthFailed, err.Error())
		case errors.Is(err, service.ErrBanned):
			response.Error(c, http.StatusForbidden, response.ErrUserBanned, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, AuthResult{Token: token, Profile: profile})
}

// ChangePassword 修改当前账号密码
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	if err := h.service.ChangePassword(s.UserID, input.OldPassword, input.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, "password updated")
}

// GetProfile 资料页
// @Summary 获取用户资料及关注统计
// @Tags Profile
// @Param id path string true "用户ID"
// @Success 200 {object} model.ProfileView
// @Router /profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	viewerID := session.UserIDFromGin(c)

	view, err := h.service.GetProfile(viewerID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, view)
}

// UpdateProfile 更新自己的资料
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	profile, err := h.service.UpdateProfile(s.UserID, service.UpdateProfileInput{
		Username:      input.Username,
		FullName:      input.FullName,
		AvatarURL:     input.AvatarURL,
		BannerType:    input.BannerType,
		BannerValue:   input.BannerValue,
		StatusMessage: input.StatusMessage,
		Alignment:     input.Alignment,
		Font:          input.Font,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			response.Fail(c, response.ErrUserExists, err.Error())
		case errors.Is(err, service.ErrProfileNotFound):
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, profile)
}

// Follow 关注
func (h *ProfileHandler) Follow(c *gin.Context) {
	s := session.FromGin(c)

	if err := h.service.Follow(s.UserID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		case errors.Is(err, service.ErrProfileNotFound):
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, "followed")
}

// Unfollow 取消关注
func (h *ProfileHandler) Unfollow(c *gin.Context) {
	s := session.FromGin(c)

	if err := h.service.Unfollow(s.UserID, c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, "unfollowed")
}

// ListFollowers 粉丝列表
func (h *ProfileHandler) ListFollowers(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)
	p.GetPageOffset()

	profiles, total, err := h.service.ListFollowers(c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: profiles, Total: total, Page: p.Page, Limit: p.Limit})
}

// ListFollowing 关注列表
func (h *ProfileHandler) ListFollowing(c *gin.Context) {
	var p utils.Pagination
	c.ShouldBindQuery(&p)
	p.GetPageOffset()

	profiles, total, err := h.service.ListFollowing(c.Param("id"), p.Page, p.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, utils.PageResult{List: profiles, Total: total, Page: p.Page, Limit: p.Limit})
}
