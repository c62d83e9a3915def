package service

import (
	"context"
	"errors"
	"time"

	"community_hub/internal/domain/admin/model"
	"community_hub/internal/domain/admin/repository"
	profileModel "community_hub/internal/domain/profile/model"

	"gorm.io/gorm"
)

var (
	ErrRoleInvalid        = errors.New("role must be user, moderator or admin")
	ErrActionInvalid      = errors.New("moderation action must be ban or mute")
	ErrReasonRequired     = errors.New("moderation reason is required")
	ErrModerationNotFound = errors.New("moderation record not found")
	ErrModerationClosed   = errors.New("moderation record is already inactive")
	ErrCustomRoleNotFound = errors.New("custom role not found")
	ErrNoCustomRole       = errors.New("no custom role assigned")
)

// ApplyModerationInput 处罚输入
type ApplyModerationInput struct {
	UserID     string
	ActionType string
	Reason     string
	ExpiresAt  *time.Time
}

// CustomRoleInput 自定义角色输入
type CustomRoleInput struct {
	Name        string
	Color       string
	Description string
}

type AdminService interface {
	ListUsers(ctx context.Context, page, limit int) ([]model.UserRow, int64, error)
	AssignRole(adminID, userID, role string) error
	MyRole(userID string) (string, error)

	CreateCustomRole(creatorID string, input CustomRoleInput) (*model.CustomRole, error)
	ListCustomRoles() ([]model.CustomRole, error)
	UpdateCustomRole(id string, input CustomRoleInput) error
	DeleteCustomRole(id string) error
	AssignCustomRole(adminID, userID, customRoleID string) error
	RemoveCustomRole(userID string) error
	MyCustomRole(userID string) (*model.CustomRole, error)

	ApplyModeration(moderatorID string, input ApplyModerationInput) (*model.UserModeration, error)
	DeactivateModeration(id string) error
	ListActiveModeration() ([]model.ModerationView, error)
}

type adminService struct {
	repo repository.AdminRepository
	read repository.AdminReadRepository
}

func NewAdminService(repo repository.AdminRepository, read repository.AdminReadRepository) AdminService {
	return &adminService{repo: repo, read: read}
}

func (s *adminService) ListUsers(ctx context.Context, page, limit int) ([]model.UserRow, int64, error) {
	offset := (page - 1) * limit
	return s.read.ListUsers(ctx, offset, limit)
}

// AssignRole 粗粒度角色 upsert，一人永远只有一行
func (s *adminService) AssignRole(adminID, userID, role string) error {
	if !model.ValidRole(role) {
		return ErrRoleInvalid
	}
	return s.repo.UpsertRole(userID, role, adminID)
}

func (s *adminService) MyRole(userID string) (string, error) {
	return s.repo.GetRole(userID)
}

func (s *adminService) CreateCustomRole(creatorID string, input CustomRoleInput) (*model.CustomRole, error) {
	role := &model.CustomRole{
		Name:        input.Name,
		Color:       input.Color,
		Description: input.Description,
		CreatedBy:   creatorID,
	}
	if err := s.repo.CreateCustomRole(role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *adminService) ListCustomRoles() ([]model.CustomRole, error) {
	return s.repo.ListCustomRoles()
}

func (s *adminService) UpdateCustomRole(id string, input CustomRoleInput) error {
	rows, err := s.repo.UpdateCustomRole(id, map[string]interface{}{
		"name":        input.Name,
		"color":       input.Color,
		"description": input.Description,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCustomRoleNotFound
	}
	return nil
}

func (s *adminService) DeleteCustomRole(id string) error {
	rows, err := s.repo.DeleteCustomRole(id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCustomRoleNotFound
	}
	return nil
}

func (s *adminService) AssignCustomRole(adminID, userID, customRoleID string) error {
	return s.repo.AssignCustomRole(userID, customRoleID, adminID)
}

func (s *adminService) RemoveCustomRole(userID string) error {
	_, err := s.repo.RemoveCustomRole(userID)
	return err
}

func (s *adminService) MyCustomRole(userID string) (*model.CustomRole, error) {
	role, err := s.repo.GetUserCustomRole(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCustomRole
		}
		return nil, err
	}
	return role, nil
}

// ApplyModeration 处罚永远是新行
// 同一用户早先的处罚行不受影响，历史完整保留
func (s *adminService) ApplyModeration(moderatorID string, input ApplyModerationInput) (*model.UserModeration, error) {
	if !model.ValidAction(input.ActionType) {
		return nil, ErrActionInvalid
	}
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}

	row := &model.UserModeration{
		UserID:      input.UserID,
		ModeratorID: moderatorID,
		ActionType:  input.ActionType,
		Reason:      input.Reason,
		ExpiresAt:   input.ExpiresAt,
		IsActive:    true,
	}
	if err := s.repo.CreateModeration(row); err != nil {
		return nil, err
	}

	// 封禁同步账号状态，登录入口按状态拒绝
	if input.ActionType == model.ActionBan {
		if err := s.repo.SetAccountStatus(input.UserID, profileModel.StatusBanned); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// DeactivateModeration 解除处罚只翻 is_active
// 已经不生效的行再解除一次按已关闭报错，不静默成功
func (s *adminService) DeactivateModeration(id string) error {
	row, err := s.repo.GetModerationByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrModerationNotFound
		}
		return err
	}

	rows, err := s.repo.DeactivateModeration(id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrModerationClosed
	}

	// 解的是封禁且没有其他封禁还生效时，账号状态翻回正常
	if row.ActionType == model.ActionBan {
		still, err := s.repo.HasActiveModeration(row.UserID, model.ActionBan)
		if err != nil {
			return err
		}
		if !still {
			return s.repo.SetAccountStatus(row.UserID, profileModel.StatusNormal)
		}
	}
	return nil
}

// ListActiveModeration 生效中的处罚，双方用户名一次批量查询补齐
func (s *adminService) ListActiveModeration() ([]model.ModerationView, error) {
	rows, err := s.repo.ListActiveModeration()
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		for _, id := range []string{row.UserID, row.ModeratorID} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	profiles, err := s.repo.GetProfilesByIDs(ids)
	if err != nil {
		return nil, err
	}

	views := make([]model.ModerationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, model.ModerationView{
			UserModeration:    row,
			TargetUsername:    profiles[row.UserID].Username,
			ModeratorUsername: profiles[row.ModeratorID].Username,
		})
	}
	return views, nil
}
