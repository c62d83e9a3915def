package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"community_hub/internal/domain/chat/model"
	"community_hub/internal/domain/chat/repository"
	"community_hub/internal/pkg/push"
	"community_hub/internal/pkg/realtime"
	"community_hub/internal/pkg/storage"
	"community_hub/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotParticipant = errors.New("not a participant of this chat")
	ErrSelfChat       = errors.New("cannot open a direct chat with yourself")
	ErrEmptyGroup     = errors.New("group chat needs at least one other member")
	ErrEmptyMessage   = errors.New("message content must not be empty")
)

type ChatService interface {
	ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error)
	GetOrCreateDirectChat(userID, otherID string) (*model.Chat, error)
	CreateGroupChat(creatorID, name string, memberIDs []string) (*model.Chat, error)
	ListMessages(viewerID, chatID string) ([]model.MessageView, error)
	SendMessage(senderID, chatID, content string) (*model.Message, error)
	SendFileMessage(senderID, chatID, content string, file *multipart.FileHeader) (*model.Message, error)
}

type chatService struct {
	repo    repository.ChatRepository
	read    repository.ChatReadRepository
	events  realtime.Publisher
	store   storage.Storage
	push    push.PushService
}

func NewChatService(
	repo repository.ChatRepository,
	read repository.ChatReadRepository,
	events realtime.Publisher,
	store storage.Storage,
	pushSvc push.PushService,
) ChatService {
	return &chatService{repo: repo, read: read, events: events, store: store, push: pushSvc}
}

// ListChats 会话列表
// 读库一条聚合查询拿会话 + 最后一条消息，
// 成员和资料各补一次批量查询，不逐会话回表
func (s *chatService) ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error) {
	rows, err := s.read.ListChatRows(ctx, userID)
	if err != nil {
		return nil, err
	}

	chatIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		chatIDs = append(chatIDs, row.ChatID)
	}

	members, err := s.repo.ParticipantIDsByChatIDs(chatIDs)
	if err != nil {
		return nil, err
	}

	var userIDs []string
	seen := make(map[string]struct{})
	for _, ids := range members {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			userIDs = append(userIDs, id)
		}
	}
	profiles, err := s.repo.GetProfilesByIDs(userIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ChatSummary, 0, len(rows))
	for _, row := range rows {
		summary := model.ChatSummary{
			ID:        row.ChatID,
			Type:      row.ChatType,
			CreatedAt: row.ChatCreatedAt,
		}
		if row.ChatName != nil {
			summary.Name = *row.ChatName
		}
		for _, memberID := range members[row.ChatID] {
			if p, ok := profiles[memberID]; ok {
				summary.Participants = append(summary.Participants, p)
			}
		}
		if row.MessageID != nil {
			summary.LastMessage = &model.LastMessagePreview{
				ID:          *row.MessageID,
				SenderID:    *row.SenderID,
				MessageType: *row.MessageType,
				SentAt:      *row.SentAt,
			}
			if row.Content != nil {
				summary.LastMessage.Content = *row.Content
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetOrCreateDirectChat 私聊：不存在就建，存在就复用
// 同一对用户重复调用拿到的永远是同一个会话
func (s *chatService) GetOrCreateDirectChat(userID, otherID string) (*model.Chat, error) {
	if userID == otherID {
		return nil, ErrSelfChat
	}

	chat, created, err := s.repo.GetOrCreateDirectChat(userID, otherID)
	if err != nil {
		return nil, err
	}

	if created {
		s.events.Publish(realtime.Event{
			Table:  realtime.TableChats,
			Action: realtime.ActionInsert,
			RowID:  chat.ID,
		})
		for _, memberID := range []string{userID, otherID} {
			s.events.Publish(realtime.Event{
				Table:  realtime.TableChatParticipants,
				Action: realtime.ActionInsert,
				RowID:  memberID,
				Filter: realtime.FilterKey("chat_id", chat.ID),
			})
		}
	}
	return chat, nil
}

// CreateGroupChat 建群，创建者自动入群
func (s *chatService) CreateGroupChat(creatorID, name string, memberIDs []string) (*model.Chat, error) {
	members := []string{creatorID}
	seen := map[string]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) < 2 {
		return nil, ErrEmptyGroup
	}

	chat := &model.Chat{Type: model.TypeGroup, Name: name, CreatedBy: creatorID}
	if err := s.repo.CreateGroupChat(chat, members); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Table:  realtime.TableChats,
		Action: realtime.ActionInsert,
		RowID:  chat.ID,
	})
	for _, memberID := range members {
		s.events.Publish(realtime.Event{
			Table:  realtime.TableChatParticipants,
			Action: realtime.ActionInsert,
			RowID:  memberID,
			Filter: realtime.FilterKey("chat_id", chat.ID),
		})
	}
	return chat, nil
}

// ListMessages 只有成员能读，升序返回，发送者资料批量补齐
func (s *chatService) ListMessages(viewerID, chatID string) ([]model.MessageView, error) {
	if err := s.requireParticipant(chatID, viewerID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(chatID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]string, 0, len(messages))
	seen := make(map[string]struct{})
	for _, msg := range messages {
		if _, ok := seen[msg.SenderID]; ok {
			continue
		}
		seen[msg.SenderID] = struct{}{}
		senderIDs = append(senderIDs, msg.SenderID)
	}
	senders, err := s.repo.GetProfilesByIDs(senderIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, model.MessageView{
			Message: msg,
			Sender:  senders[msg.SenderID],
		})
	}
	return views, nil
}

// SendMessage 发文本消息
func (s *chatService) SendMessage(senderID, chatID, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	if err := s.requireParticipant(chatID, senderID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     content,
		MessageType: model.MessageText,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}

	s.afterMessage(msg)
	return msg, nil
}

// SendFileMessage 发附件消息
// 先上传对象存储拿到持久 URL 再落库，消息里永远不会出现临时地址
func (s *chatService) SendFileMessage(senderID, chatID, content string, file *multipart.FileHeader) (*model.Message, error) {
	if err := s.requireParticipant(chatID, senderID); err != nil {
		return nil, err
	}

	url, err := s.store.Upload(file, senderID, storage.CategoryChat)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     content,
		MessageType: ClassifyMessageType(file.Header.Get("Content-Type")),
		FileURL:     url,
		FileName:    file.Filename,
		FileSize:    file.Size,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}

	s.afterMessage(msg)
	return msg, nil
}

// ClassifyMessageType 按 MIME 前缀归类附件
func ClassifyMessageType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return model.MessageImage
	case strings.HasPrefix(contentType, "video/"):
		return model.MessageVideo
	default:
		return model.MessageFile
	}
}

func (s *chatService) requireParticipant(chatID, userID string) error {
	if _, err := s.repo.GetChatByID(chatID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChatNotFound
		}
		return err
	}

	ok, err := s.repo.IsParticipant(chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// afterMessage 消息落库后的副作用：变更广播 + 离线推送
func (s *chatService) afterMessage(msg *model.Message) {
	s.events.Publish(realtime.Event{
		Table:  realtime.TableMessages,
		Action: realtime.ActionInsert,
		RowID:  msg.ID,
		Filter: realtime.FilterKey("chat_id", msg.ChatID),
	})

	go s.notifyParticipants(msg)
}

// notifyParticipants 给发送者以外的成员推通知，尽力而为
func (s *chatService) notifyParticipants(msg *model.Message) {
	memberIDs, err := s.repo.ParticipantIDs(msg.ChatID)
	if err != nil {
		logger.Log.Warn("load chat participants for push failed",
			zap.String("chat_id", msg.ChatID), zap.Error(err))
		return
	}

	senders, err := s.repo.GetProfilesByIDs([]string{msg.SenderID})
	if err != nil {
		logger.Log.Warn("load sender profile for push failed",
			zap.String("sender_id", msg.SenderID), zap.Error(err))
		return
	}
	title := senders[msg.SenderID].Username
	if title == "" {
		title = "New message"
	}

	body := msg.Content
	if msg.MessageType != model.MessageText {
		body = "[" + msg.MessageType + "]"
	}

	for _, memberID := range memberIDs {
		if memberID == msg.SenderID {
			continue
		}
		err := s.push.PushToAccount(memberID, title, body, map[string]string{
			"chatId":    msg.ChatID,
			"messageId": msg.ID,
		})
		if err != nil {
			logger.Log.Warn("push notification failed",
				zap.String("account_id", memberID),
				zap.String("chat_id", msg.ChatID),
				zap.Error(err))
		}
	}
}
