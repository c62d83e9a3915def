package model

import (
	"time"

	baseModel "community_hub/pkg/model"
)

// 账号状态
const (
	StatusNormal  = "normal"
	StatusBanned  = "banned"
	StatusDeleted = "deleted"
)

// 横幅类型
const (
	BannerColor = "color"
	BannerImage = "image"
)

// Account 登录凭证，密码散列绝不出 JSON
type Account struct {
	baseModel.BaseModel
	Email    string `gorm:"unique" json:"email"`
	Password string `json:"-"`
	Status   string `gorm:"default:'normal'" json:"status"` // normal, banned, deleted
}

// Profile 用户资料，主键与账号一致
// 注册时与账号同一事务创建，之后只有本人可改，永不删除
type Profile struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username      string    `gorm:"unique" json:"username"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	BannerType    string    `gorm:"default:'color'" json:"bannerType"` // color, image
	BannerValue   string    `json:"bannerValue"`
	StatusMessage string    `json:"statusMessage"`
	Alignment     string    `json:"alignment"`
	Font          string    `json:"font"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Follow 关注关系，有向边
type Follow struct {
	baseModel.BaseModel
	FollowerID  string `gorm:"type:uuid;uniqueIndex:idx_follow_pair" json:"followerId"`
	FollowingID string `gorm:"type:uuid;uniqueIndex:idx_follow_pair" json:"followingId"`
}

// ProfileView 资料页视图：资料 + 关注统计
type ProfileView struct {
	Profile
	FollowerCount  int64 `json:"followerCount"`
	FollowingCount int64 `json:"followingCount"`
	ViewerFollows  bool  `json:"viewerFollows"`
}
