package repository

import (
	"community_hub/internal/domain/profile/model"

	"gorm.io/gorm"
)

// ProfileRepository 接口定义
type ProfileRepository interface {
	CreateAccountWithProfile(account *model.Account, profile *model.Profile) error
	GetAccountByEmail(email string) (*model.Account, error)
	GetAccountByID(id string) (*model.Account, error)
	UpdateAccount(account *model.Account) error

	GetProfileByID(id string) (*model.Profile, error)
	GetProfileByUsername(username string) (*model.Profile, error)
	GetProfilesByIDs(ids []string) ([]model.Profile, error)
	UpdateProfile(profile *model.Profile) error

	GetCoarseRole(userID string) (string, error)

	CreateFollow(follow *model.Follow) error
	DeleteFollow(followerID, followingID string) (int64, error)
	IsFollowing(followerID, followingID string) (bool, error)
	CountFollowers(userID string) (int64, error)
	CountFollowing(userID string) (int64, error)
	ListFollowers(userID string, offset, limit int) ([]model.Profile, int64, error)
	ListFollowing(userID string, offset, limit int) ([]model.Profile, int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建新的仓库实例
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// CreateAccountWithProfile 同一事务创建账号和资料
// 资料主键复用账号主键，两行要么都有要么都没有
func (r *profileRepository) CreateAccountWithProfile(account *model.Account, profile *model.Profile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		profile.ID = account.ID
		return tx.Create(profile).Error
	})
}

func (r *profileRepository) GetAccountByEmail(email string) (*model.Account, error) {
	var account model.Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *profileRepository) GetAccountByID(id string) (*model.Account, error) {
	var account model.Account
	if err := r.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *profileRepository) UpdateAccount(account *model.Account) error {
	return r.db.Save(account).Error
}

func (r *profileRepository) GetProfileByID(id string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetProfileByUsername(username string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.Where("username = ?", username).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetProfilesByIDs(ids []string) ([]model.Profile, error) {
	var profiles []model.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) UpdateProfile(profile *model.Profile) error {
	return r.db.Save(profile).Error
}

// GetCoarseRole 查询平台角色并写进 Token
// 没有分配记录按普通用户处理，角色表归管理模块维护
func (r *profileRepository) GetCoarseRole(userID string) (string, error) {
	var role string
	err := r.db.Raw("SELECT role FROM user_roles WHERE user_id = ?", userID).Scan(&role).Error
	if err != nil {
		return "", err
	}
	if role == "" {
		role = "user"
	}
	return role, nil
}

// --- Follow ---

func (r *profileRepository) CreateFollow(follow *model.Follow) error {
	return r.db.Create(follow).Error
}

func (r *profileRepository) DeleteFollow(followerID, followingID string) (int64, error) {
	res := r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.Follow{})
	return res.RowsAffected, res.Error
}

func (r *profileRepository) IsFollowing(followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *profileRepository) CountFollowers(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *profileRepository) CountFollowing(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *profileRepository) ListFollowers(userID string, offset, limit int) ([]model.Profile, int64, error) {
	return r.listFollowProfiles("follows.following_id = ?", "follows.follower_id", userID, offset, limit)
}

func (r *profileRepository) ListFollowing(userID string, offset, limit int) ([]model.Profile, int64, error) {
	return r.listFollowProfiles("follows.follower_id = ?", "follows.following_id", userID, offset, limit)
}

func (r *profileRepository) listFollowProfiles(cond, joinCol, userID string, offset, limit int) ([]model.Profile, int64, error) {
	var profiles []model.Profile
	var total int64

	base := r.db.Model(&model.Profile{}).
		Joins("JOIN follows ON "+joinCol+" = profiles.id").
		Where(cond, userID)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := base.Order("follows.created_at desc").Offset(offset).Limit(limit).Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}
