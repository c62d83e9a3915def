package repository

import (
	"time"

	"community_hub/internal/domain/admin/model"
	profileModel "community_hub/internal/domain/profile/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository interface {
	UpsertRole(userID, role, assignedBy string) error
	GetRole(userID string) (string, error)

	CreateCustomRole(role *model.CustomRole) error
	ListCustomRoles() ([]model.CustomRole, error)
	UpdateCustomRole(id string, fields map[string]interface{}) (int64, error)
	DeleteCustomRole(id string) (int64, error)
	AssignCustomRole(userID, customRoleID, assignedBy string) error
	RemoveCustomRole(userID string) (int64, error)
	GetUserCustomRole(userID string) (*model.CustomRole, error)

	CreateModeration(m *model.UserModeration) error
	GetModerationByID(id string) (*model.UserModeration, error)
	DeactivateModeration(id string) (int64, error)
	ListActiveModeration() ([]model.UserModeration, error)
	DeactivateExpired(now time.Time) ([]model.UserModeration, error)
	HasActiveModeration(userID, actionType string) (bool, error)
	SetAccountStatus(userID, status string) error

	GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error)
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

// UpsertRole 角色一人一行，冲突时覆盖
func (r *adminRepository) UpsertRole(userID, role, assignedBy string) error {
	row := &model.UserRole{UserID: userID, Role: role, AssignedBy: assignedBy}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "assigned_by", "assigned_at"}),
	}).Create(row).Error
}

// GetRole 没有分配记录的用户是普通用户
func (r *adminRepository) GetRole(userID string) (string, error) {
	var row model.UserRole
	err := r.db.Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return model.RoleUser, nil
		}
		return "", err
	}
	return row.Role, nil
}

func (r *adminRepository) CreateCustomRole(role *model.CustomRole) error {
	return r.db.Create(role).Error
}

func (r *adminRepository) ListCustomRoles() ([]model.CustomRole, error) {
	var roles []model.CustomRole
	err := r.db.Order("created_at asc").Find(&roles).Error
	return roles, err
}

func (r *adminRepository) UpdateCustomRole(id string, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&model.CustomRole{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *adminRepository) DeleteCustomRole(id string) (int64, error) {
	return r.deleteCustomRoleTx(id)
}

// deleteCustomRoleTx 角色删除时同事务清掉所有分配
func (r *adminRepository) deleteCustomRoleTx(id string) (int64, error) {
	var rows int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("custom_role_id = ?", id).Delete(&model.UserCustomRole{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.CustomRole{})
		rows = res.RowsAffected
		return res.Error
	})
	return rows, err
}

func (r *adminRepository) AssignCustomRole(userID, customRoleID, assignedBy string) error {
	row := &model.UserCustomRole{UserID: userID, CustomRoleID: customRoleID, AssignedBy: assignedBy}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"custom_role_id", "assigned_by", "assigned_at"}),
	}).Create(row).Error
}

func (r *adminRepository) RemoveCustomRole(userID string) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&model.UserCustomRole{})
	return res.RowsAffected, res.Error
}

func (r *adminRepository) GetUserCustomRole(userID string) (*model.CustomRole, error) {
	var role model.CustomRole
	err := r.db.Raw(`
		SELECT cr.* FROM custom_roles cr
		JOIN user_custom_roles ucr ON ucr.custom_role_id = cr.id
		WHERE ucr.user_id = ?`, userID).Scan(&role).Error
	if err != nil {
		return nil, err
	}
	if role.ID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &role, nil
}

func (r *adminRepository) CreateModeration(m *model.UserModeration) error {
	return r.db.Create(m).Error
}

func (r *adminRepository) GetModerationByID(id string) (*model.UserModeration, error) {
	var row model.UserModeration
	if err := r.db.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeactivateModeration 只翻 is_active，行永远留着
func (r *adminRepository) DeactivateModeration(id string) (int64, error) {
	res := r.db.Model(&model.UserModeration{}).
		Where("id = ? AND is_active = true", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ListActiveModeration 生效中的处罚：is_active 且未过期
func (r *adminRepository) ListActiveModeration() ([]model.UserModeration, error) {
	var rows []model.UserModeration
	err := r.db.
		Where("is_active = true AND (expires_at IS NULL OR expires_at > now())").
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

// DeactivateExpired 过期的处罚批量翻成不生效
// RETURNING 拿回翻掉的行，过期封禁要顺带恢复账号状态
func (r *adminRepository) DeactivateExpired(now time.Time) ([]model.UserModeration, error) {
	var rows []model.UserModeration
	res := r.db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("is_active = true AND expires_at IS NOT NULL AND expires_at <= ?", now).
		Update("is_active", false)
	return rows, res.Error
}

func (r *adminRepository) HasActiveModeration(userID, actionType string) (bool, error) {
	var count int64
	err := r.db.Model(&model.UserModeration{}).
		Where("user_id = ? AND action_type = ? AND is_active = true AND (expires_at IS NULL OR expires_at > now())", userID, actionType).
		Count(&count).Error
	return count > 0, err
}

// SetAccountStatus 封禁/解禁时同步账号状态，登录入口按状态拒绝
func (r *adminRepository) SetAccountStatus(userID, status string) error {
	return r.db.Model(&profileModel.Account{}).
		Where("id = ?", userID).
		Update("status", status).Error
}

func (r *adminRepository) GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error) {
	result := make(map[string]profileModel.Profile)
	if len(ids) == 0 {
		return result, nil
	}

	var profiles []profileModel.Profile
	if err := r.db.Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}
