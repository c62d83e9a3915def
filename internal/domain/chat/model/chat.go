package model

import (
	"time"

	profileModel "community_hub/internal/domain/profile/model"
	baseModel "community_hub/pkg/model"
)

// 会话类型
const (
	TypeDirect = "direct"
	TypeGroup  = "group"
)

// 消息类型
const (
	MessageText  = "text"
	MessageImage = "image"
	MessageVideo = "video"
	MessageFile  = "file"
)

// Chat 会话，direct 无名字，group 有
type Chat struct {
	baseModel.BaseModel
	Type      string `gorm:"type:varchar(16)" json:"type"`
	Name      string `json:"name,omitempty"`
	CreatedBy string `gorm:"type:uuid" json:"createdBy"`
}

// ChatParticipant 会话成员，(chat_id, user_id) 唯一
type ChatParticipant struct {
	ID       string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChatID   string    `gorm:"type:uuid;uniqueIndex:idx_chat_member" json:"chatId"`
	UserID   string    `gorm:"type:uuid;uniqueIndex:idx_chat_member" json:"userId"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// Message 消息
// 附件消息 Content 可空，FileURL 必须是对象存储返回的持久地址
type Message struct {
	baseModel.BaseModel
	ChatID      string `gorm:"type:uuid;index" json:"chatId"`
	SenderID    string `gorm:"type:uuid" json:"senderId"`
	Content     string `json:"content"`
	MessageType string `gorm:"type:varchar(16);default:text" json:"messageType"`
	FileURL     string `json:"fileUrl,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
}

// LastMessageRow 会话列表聚合查询的一行：会话 + 最后一条消息
// 由 sqlx 读库一条 DISTINCT ON 查询取出，不逐会话回表
type LastMessageRow struct {
	ChatID        string     `db:"chat_id" json:"chatId"`
	ChatType      string     `db:"chat_type" json:"chatType"`
	ChatName      *string    `db:"chat_name" json:"chatName,omitempty"`
	ChatCreatedAt time.Time  `db:"chat_created_at" json:"chatCreatedAt"`
	MessageID     *string    `db:"message_id" json:"messageId,omitempty"`
	SenderID      *string    `db:"sender_id" json:"senderId,omitempty"`
	Content       *string    `db:"content" json:"content,omitempty"`
	MessageType   *string    `db:"message_type" json:"messageType,omitempty"`
	SentAt        *time.Time `db:"sent_at" json:"sentAt,omitempty"`
}

// ChatSummary 会话列表视图
type ChatSummary struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	Name         string                 `json:"name,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	Participants []profileModel.Profile `json:"participants"`
	LastMessage  *LastMessagePreview    `json:"lastMessage,omitempty"`
}

// LastMessagePreview 最后一条消息摘要
type LastMessagePreview struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	SentAt      time.Time `json:"sentAt"`
}

// MessageView 消息视图，带发送者资料
type MessageView struct {
	Message
	Sender profileModel.Profile `json:"sender"`
}
