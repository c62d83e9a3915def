package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"community_hub/internal/domain/profile/model"
	"community_hub/internal/domain/profile/repository"
	"community_hub/pkg/cache"
	"community_hub/pkg/logger"
	"community_hub/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeleted     = errors.New("account has been deleted")
	ErrBanned             = errors.New("account is banned")
	ErrSelfFollow         = errors.New("cannot follow yourself")
	ErrProfileNotFound    = errors.New("profile not found")
)

const (
	profileCacheKeyPrefix = "profile:"
	profileCacheTTL       = time.Hour * 2
)

// UpdateProfileInput 资料更新输入
type UpdateProfileInput struct {
	Username      string
	FullName      string
	AvatarURL     string
	BannerType    string
	BannerValue   string
	StatusMessage string
	Alignment     string
	Font          string
}

// ProfileService 用户资料服务接口
type ProfileService interface {
	Register(email, password, username string) (*model.Profile, string, error)
	Login(email, password string) (*model.Profile, string, error)
	ChangePassword(userID, oldPassword, newPassword string) error
	GetProfile(viewerID, id string) (*model.ProfileView, error)
	UpdateProfile(userID string, input UpdateProfileInput) (*model.Profile, error)
	Follow(followerID, targetID string) error
	Unfollow(followerID, targetID string) error
	ListFollowers(userID string, page, limit int) ([]model.Profile, int64, error)
	ListFollowing(userID string, page, limit int) ([]model.Profile, int64, error)
}

type profileService struct {
	repo  repository.ProfileRepository
	cache cache.CacheService
}

// NewProfileService 创建资料服务
func NewProfileService(repo repository.ProfileRepository, cache cache.CacheService) ProfileService {
	return &profileService{repo: repo, cache: cache}
}

// Register 注册：账号和资料同一事务落库，随后直接签发 Token
func (s *profileService) Register(email, password, username string) (*model.Profile, string, error) {
	// 先查重，给出可读的错误；唯一索引仍然兜底并发注册
	if _, err := s.repo.GetAccountByEmail(email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if _, err := s.repo.GetProfileByUsername(username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	account := &model.Account{
		Email:    email,
		Password: string(hashed),
		Status:   model.StatusNormal,
	}
	profile := &model.Profile{
		Username:   username,
		BannerType: model.BannerColor,
	}

	if err := s.repo.CreateAccountWithProfile(account, profile); err != nil {
		return nil, "", err
	}

	role, err := s.repo.GetCoarseRole(account.ID)
	if err != nil {
		return nil, "", err
	}

	token, _, err := utils.GenerateToken(account.ID, role)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// Login 邮箱密码登录
func (s *profileService) Login(email, password string) (*model.Profile, string, error) {
	account, err := s.repo.GetAccountByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if account.Status == model.StatusDeleted {
		return nil, "", ErrAccountDeleted
	}
	// 封禁处罚会把账号状态翻成 banned，解禁后翻回
	if account.Status == model.StatusBanned {
		return nil, "", ErrBanned
	}

	profile, err := s.repo.GetProfileByID(account.ID)
	if err != nil {
		return nil, "", err
	}

	role, err := s.repo.GetCoarseRole(account.ID)
	if err != nil {
		return nil, "", err
	}

	token, _, err := utils.GenerateToken(account.ID, role)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// ChangePassword 修改密码，旧密码验证通过才换
func (s *profileService) ChangePassword(userID, oldPassword, newPassword string) error {
	account, err := s.repo.GetAccountByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	account.Password = string(hashed)
	return s.repo.UpdateAccount(account)
}

// GetProfile 资料页：资料本体走缓存，关注统计并发现查
func (s *profileService) GetProfile(viewerID, id string) (*model.ProfileView, error) {
	profile, err := s.getCachedProfile(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	view := &model.ProfileView{Profile: *profile}

	// 三个独立统计并发取
	var wg sync.WaitGroup
	var followerErr, followingErr, viewerErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		view.FollowerCount, followerErr = s.repo.CountFollowers(id)
	}()
	go func() {
		defer wg.Done()
		view.FollowingCount, followingErr = s.repo.CountFollowing(id)
	}()

	if viewerID != "" && viewerID != id {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view.ViewerFollows, viewerErr = s.repo.IsFollowing(viewerID, id)
		}()
	}

	wg.Wait()

	for _, err := range []error{followerErr, followingErr, viewerErr} {
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (s *profileService) getCachedProfile(id string) (*model.Profile, error) {
	ctx := context.Background()
	cacheKey := profileCacheKeyPrefix + id

	var cached model.Profile
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	profile, err := s.repo.GetProfileByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, profile, profileCacheTTL); err != nil {
		// 缓存失败不影响业务
		logger.Log.Warn("failed to cache profile", zap.String("id", id), zap.Error(err))
	}
	return profile, nil
}

// UpdateProfile 更新资料，只能改自己的（入参用户就是会话用户）
func (s *profileService) UpdateProfile(userID string, input UpdateProfileInput) (*model.Profile, error) {
	profile, err := s.repo.GetProfileByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if input.Username != "" && input.Username != profile.Username {
		if _, err := s.repo.GetProfileByUsername(input.Username); err == nil {
			return nil, ErrUsernameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		profile.Username = input.Username
	}

	if input.BannerType != "" {
		if input.BannerType != model.BannerColor && input.BannerType != model.BannerImage {
			return nil, fmt.Errorf("invalid banner type: %s", input.BannerType)
		}
		profile.BannerType = input.BannerType
	}

	profile.FullName = input.FullName
	profile.AvatarURL = input.AvatarURL
	profile.BannerValue = input.BannerValue
	profile.StatusMessage = input.StatusMessage
	profile.Alignment = input.Alignment
	profile.Font = input.Font

	if err := s.repo.UpdateProfile(profile); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(context.Background(), profileCacheKeyPrefix+userID); err != nil {
		logger.Log.Warn("failed to invalidate profile cache", zap.String("id", userID), zap.Error(err))
	}

	return profile, nil
}

// Follow 关注，重复关注视为幂等成功
func (s *profileService) Follow(followerID, targetID string) error {
	if followerID == targetID {
		return ErrSelfFollow
	}

	if _, err := s.repo.GetProfileByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	following, err := s.repo.IsFollowing(followerID, targetID)
	if err != nil {
		return err
	}
	if following {
		return nil
	}

	return s.repo.CreateFollow(&model.Follow{
		FollowerID:  followerID,
		FollowingID: targetID,
	})
}

// Unfollow 取消关注，没有关注关系时也是幂等成功
func (s *profileService) Unfollow(followerID, targetID string) error {
	_, err := s.repo.DeleteFollow(followerID, targetID)
	return err
}

func (s *profileService) ListFollowers(userID string, page, limit int) ([]model.Profile, int64, error) {
	offset := (page - 1) * limit
	return s.repo.ListFollowers(userID, offset, limit)
}

func (s *profileService) ListFollowing(userID string, page, limit int) ([]model.Profile, int64, error) {
	offset := (page - 1) * limit
	return s.repo.ListFollowing(userID, offset, limit)
}
