package model

import (
	profileModel "community_hub/internal/domain/profile/model"
	baseModel "community_hub/pkg/model"
)

// Discussion 讨论帖
type Discussion struct {
	baseModel.BaseModel
	AuthorID string `gorm:"type:uuid;index" json:"authorId"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// DiscussionTag 标签行，一行一个标签
// 标签集合无序，(discussion_id, tag) 唯一
type DiscussionTag struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	DiscussionID string `gorm:"type:uuid;uniqueIndex:idx_discussion_tag" json:"discussionId"`
	Tag          string `gorm:"uniqueIndex:idx_discussion_tag" json:"tag"`
}

// Reply 回复，只增不改不删
type Reply struct {
	baseModel.BaseModel
	DiscussionID string `gorm:"type:uuid;index" json:"discussionId"`
	AuthorID     string `gorm:"type:uuid" json:"authorId"`
	Content      string `json:"content"`
}

// Like 点赞，目标是讨论或回复二选一
// 部分唯一索引保证同一用户对同一目标只有一行，
// 并发双击也只会留下一条
type Like struct {
	baseModel.BaseModel
	UserID       string  `gorm:"type:uuid" json:"userId"`
	DiscussionID *string `gorm:"type:uuid" json:"discussionId,omitempty"`
	ReplyID      *string `gorm:"type:uuid" json:"replyId,omitempty"`
}

// DiscussionView 列表/详情视图：帖子 + 作者 + 标签 + 统计 + 观察者状态
// UserLiked 在匿名视角下恒为 false
type DiscussionView struct {
	Discussion
	Author       profileModel.Profile `json:"author"`
	Tags         []string             `json:"tags"`
	LikesCount   int64                `json:"likesCount"`
	RepliesCount int64                `json:"repliesCount"`
	UserLiked    bool                 `json:"userLiked"`
}

// ReplyView 回复视图
type ReplyView struct {
	Reply
	Author     profileModel.Profile `json:"author"`
	LikesCount int64                `json:"likesCount"`
	UserLiked  bool                 `json:"userLiked"`
}

// LikeResult 点赞开关的同步结果
// 本地状态只允许根据它更新，不做乐观翻转
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}
