package model

import (
	profileModel "community_hub/internal/domain/profile/model"
	baseModel "community_hub/pkg/model"
)

// 悬赏状态机
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ValidStatus 合法状态集合
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Bounty 悬赏，价格仅做展示，不接支付
type Bounty struct {
	baseModel.BaseModel
	AuthorID    string  `gorm:"type:uuid;index" json:"authorId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `gorm:"type:decimal(12,2)" json:"price"`
	Currency    string  `gorm:"type:varchar(3)" json:"currency"`
	Status      string  `gorm:"type:varchar(16);default:open" json:"status"`
}

// BountyTag 悬赏标签行，(bounty_id, tag) 唯一
type BountyTag struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BountyID string `gorm:"type:uuid;uniqueIndex:idx_bounty_tag" json:"bountyId"`
	Tag      string `gorm:"uniqueIndex:idx_bounty_tag" json:"tag"`
}

// BountyView 列表/详情视图
type BountyView struct {
	Bounty
	Author profileModel.Profile `json:"author"`
	Tags   []string             `json:"tags"`
}
