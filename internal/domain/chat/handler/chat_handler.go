package handler

import (
	"errors"
	"net/http"

	"community_hub/internal/domain/chat/service"
	"community_hub/internal/pkg/session"
	"community_hub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	service service.ChatService
}

func NewChatHandler(s service.ChatService) *ChatHandler {
	return &ChatHandler{service: s}
}

// DirectChatInput 私聊输入
type DirectChatInput struct {
	UserID string `json:"userId" binding:"required"`
}

// GroupChatInput 群聊输入
type GroupChatInput struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"memberIds" binding:"required"`
}

// MessageInput 文本消息输入
type MessageInput struct {
	Content string `json:"content" binding:"required"`
}

// ListChats 会话列表 (含成员资料和最后一条消息)
// @Summary 会话列表
// @Tags Chat
// @Success 200 {array} model.ChatSummary
// @Router /chats [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	s := session.FromGin(c)

	summaries, err := h.service.ListChats(c.Request.Context(), s.UserID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, summaries)
}

// GetUserChats RPC 风格入口，返回和 GET /chats 完全相同的形状
// 走同一个仓库查询，两条路径不可能产生分歧
func (h *ChatHandler) GetUserChats(c *gin.Context) {
	h.ListChats(c)
}

// OpenDirectChat 打开私聊，重复调用返回同一个会话
func (h *ChatHandler) OpenDirectChat(c *gin.Context) {
	var input DirectChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	chat, err := h.service.GetOrCreateDirectChat(s.UserID, input.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSelfChat) {
			response.Error(c, http.StatusBadRequest, response.ErrSelfChat, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, chat)
}

// CreateGroupChat 建群
func (h *ChatHandler) CreateGroupChat(c *gin.Context) {
	var input GroupChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	chat, err := h.service.CreateGroupChat(s.UserID, input.Name, input.MemberIDs)
	if err != nil {
		if errors.Is(err, service.ErrEmptyGroup) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, chat)
}

// ListMessages 消息列表 (升序，仅成员可读)
func (h *ChatHandler) ListMessages(c *gin.Context) {
	s := session.FromGin(c)

	views, err := h.service.ListMessages(s.UserID, c.Param("id"))
	if err != nil {
		h.writeChatError(c, err)
		return
	}

	response.Success(c, views)
}

// SendMessage 发文本消息
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	s := session.FromGin(c)
	msg, err := h.service.SendMessage(s.UserID, c.Param("id"), input.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
		h.writeChatError(c, err)
		return
	}

	response.Success(c, msg)
}

// SendFileMessage 发附件消息 (multipart，先上传后落库)
func (h *ChatHandler) SendFileMessage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "file is required")
		return
	}

	s := session.FromGin(c)
	msg, err := h.service.SendFileMessage(s.UserID, c.Param("id"), c.PostForm("content"), file)
	if err != nil {
		h.writeChatError(c, err)
		return
	}

	response.Success(c, msg)
}

func (h *ChatHandler) writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		response.Error(c, http.StatusNotFound, response.ErrChatNotFound, err.Error())
	case errors.Is(err, service.ErrNotParticipant):
		response.Error(c, http.StatusForbidden, response.ErrNotParticipant, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}
