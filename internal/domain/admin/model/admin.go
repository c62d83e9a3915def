package model

import (
	"time"

	baseModel "community_hub/pkg/model"
)

// 粗粒度角色
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole 粗粒度角色合法性
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// 处罚类型
const (
	ActionBan  = "ban"
	ActionMute = "mute"
)

// ValidAction 处罚类型合法性
func ValidAction(action string) bool {
	return action == ActionBan || action == ActionMute
}

// UserRole 粗粒度角色分配，一人一行，重新分配走 upsert
type UserRole struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID     string    `gorm:"type:uuid;uniqueIndex" json:"userId"`
	Role       string    `gorm:"type:varchar(16)" json:"role"`
	AssignedBy string    `gorm:"type:uuid" json:"assignedBy"`
	AssignedAt time.Time `gorm:"autoUpdateTime" json:"assignedAt"`
}

// CustomRole 展示用自定义角色 (名字 + 颜色)
type CustomRole struct {
	baseModel.BaseModel
	Name        string `gorm:"uniqueIndex" json:"name"`
	Color       string `gorm:"type:varchar(16)" json:"color"`
	Description string `json:"description"`
	CreatedBy   string `gorm:"type:uuid" json:"createdBy"`
}

// UserCustomRole 自定义角色分配，一人一行
type UserCustomRole struct {
	ID           string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string    `gorm:"type:uuid;uniqueIndex" json:"userId"`
	CustomRoleID string    `gorm:"type:uuid" json:"customRoleId"`
	AssignedBy   string    `gorm:"type:uuid" json:"assignedBy"`
	AssignedAt   time.Time `gorm:"autoUpdateTime" json:"assignedAt"`
}

// UserModeration 处罚记录，只追加
// 解除只翻 is_active，重新处罚永远是新行，历史完整保留
type UserModeration struct {
	baseModel.BaseModel
	UserID      string     `gorm:"type:uuid;index" json:"userId"`
	ModeratorID string     `gorm:"type:uuid" json:"moderatorId"`
	ActionType  string     `gorm:"type:varchar(16)" json:"actionType"`
	Reason      string     `json:"reason"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
}

// UserRow 用户管理列表的一行，sqlx 读库联查出来
type UserRow struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	FullName  string    `db:"full_name" json:"fullName"`
	AvatarURL string    `db:"avatar_url" json:"avatarUrl"`
	Email     string    `db:"email" json:"email"`
	Status    string    `db:"status" json:"status"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ModerationView 处罚记录视图，带双方用户名
type ModerationView struct {
	UserModeration
	TargetUsername    string `json:"targetUsername"`
	ModeratorUsername string `json:"moderatorUsername"`
}
