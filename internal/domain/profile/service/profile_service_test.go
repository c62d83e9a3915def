package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"community_hub/internal/domain/profile/model"
	"community_hub/internal/pkg/config"
	"community_hub/pkg/cache"
	"community_hub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Init("debug", "error")
	config.GlobalConfig.JWT.Secret = "test_secret_0123456789_0123456789_xx"
	config.GlobalConfig.JWT.Expire = 24
	m.Run()
}

// MockProfileRepository 模拟资料仓库
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) CreateAccountWithProfile(account *model.Account, profile *model.Profile) error {
	args := m.Called(account, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetAccountByEmail(email string) (*model.Account, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockProfileRepository) GetAccountByID(id string) (*model.Account, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockProfileRepository) UpdateAccount(account *model.Account) error {
	args := m.Called(account)
	return args.Error(0)
}

func (m *MockProfileRepository) GetProfileByID(id string) (*model.Profile, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetProfileByUsername(username string) (*model.Profile, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetProfilesByIDs(ids []string) ([]model.Profile, error) {
	args := m.Called(ids)
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateProfile(profile *model.Profile) error {
	args := m.Called(profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetCoarseRole(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

func (m *MockProfileRepository) CreateFollow(follow *model.Follow) error {
	args := m.Called(follow)
	return args.Error(0)
}

func (m *MockProfileRepository) DeleteFollow(followerID, followingID string) (int64, error) {
	args := m.Called(followerID, followingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProfileRepository) IsFollowing(followerID, followingID string) (bool, error) {
	args := m.Called(followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) CountFollowers(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProfileRepository) CountFollowing(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProfileRepository) ListFollowers(userID string, offset, limit int) ([]model.Profile, int64, error) {
	args := m.Called(userID, offset, limit)
	return args.Get(0).([]model.Profile), args.Get(1).(int64), args.Error(2)
}

func (m *MockProfileRepository) ListFollowing(userID string, offset, limit int) ([]model.Profile, int64, error) {
	args := m.Called(userID, offset, limit)
	return args.Get(0).([]model.Profile), args.Get(1).(int64), args.Error(2)
}

// memoryCache 进程内缓存，测试用
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

// Get 永远 miss，强制走仓库；写入/删除仍然可观察
func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = []byte("set")
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) InvalidatePattern(ctx context.Context, pattern string) error {
	return nil
}

func newTestService() (*MockProfileRepository, *memoryCache, ProfileService) {
	repo := new(MockProfileRepository)
	mc := newMemoryCache()
	return repo, mc, NewProfileService(repo, mc)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo, _, svc := newTestService()

	existing := &model.Account{Email: "alice@example.com"}
	repo.On("GetAccountByEmail", "alice@example.com").Return(existing, nil)

	_, _, err := svc.Register("alice@example.com", "password123", "alice")

	assert.ErrorIs(t, err, ErrEmailTaken)
	repo.AssertNotCalled(t, "CreateAccountWithProfile", mock.Anything, mock.Anything)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo, _, svc := newTestService()

	repo.On("GetAccountByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("GetProfileByUsername", "alice").Return(&model.Profile{Username: "alice"}, nil)

	_, _, err := svc.Register("new@example.com", "password123", "alice")

	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterCreatesAccountAndProfileTogether(t *testing.T) {
	repo, _, svc := newTestService()

	repo.On("GetAccountByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("GetProfileByUsername", "newbie").Return(nil, gorm.ErrRecordNotFound)
	repo.On("CreateAccountWithProfile",
		mock.AnythingOfType("*model.Account"), mock.AnythingOfType("*model.Profile")).
		Run(func(args mock.Arguments) {
			account := args.Get(0).(*model.Account)
			account.ID = "acc-1"
			profile := args.Get(1).(*model.Profile)
			profile.ID = account.ID

			// 密码必须以哈希形式存储
			assert.NoError(t,
				bcrypt.CompareHashAndPassword([]byte(account.Password), []byte("password123")))
			assert.NotEqual(t, "password123", account.Password)
		}).
		Return(nil)
	repo.On("GetCoarseRole", "acc-1").Return("user", nil)

	profile, token, err := svc.Register("new@example.com", "password123", "newbie")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "acc-1", profile.ID)
	repo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	repo, _, svc := newTestService()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	account := &model.Account{Email: "alice@example.com", Password: string(hashed), Status: model.StatusNormal}
	account.ID = "acc-1"
	repo.On("GetAccountByEmail", "alice@example.com").Return(account, nil)

	_, _, err := svc.Login("alice@example.com", "wrong-password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDeletedAccount(t *testing.T) {
	repo, _, svc := newTestService()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	account := &model.Account{Email: "gone@example.com", Password: string(hashed), Status: model.StatusDeleted}
	account.ID = "acc-1"
	repo.On("GetAccountByEmail", "gone@example.com").Return(account, nil)

	_, _, err := svc.Login("gone@example.com", "password123")

	assert.ErrorIs(t, err, ErrAccountDeleted)
}

func TestLoginBannedAccount(t *testing.T) {
	repo, _, svc := newTestService()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	account := &model.Account{Email: "banned@example.com", Password: string(hashed), Status: model.StatusBanned}
	account.ID = "acc-1"
	repo.On("GetAccountByEmail", "banned@example.com").Return(account, nil)

	_, _, err := svc.Login("banned@example.com", "password123")

	assert.ErrorIs(t, err, ErrBanned)
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	repo, _, svc := newTestService()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.DefaultCost)
	account := &model.Account{Password: string(hashed), Status: model.StatusNormal}
	account.ID = "acc-1"
	repo.On("GetAccountByID", "acc-1").Return(account, nil)

	err := svc.ChangePassword("acc-1", "wrong", "new-password-123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	repo.AssertNotCalled(t, "UpdateAccount", mock.Anything)
}

func TestChangePasswordRehashes(t *testing.T) {
	repo, _, svc := newTestService()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.DefaultCost)
	account := &model.Account{Password: string(hashed), Status: model.StatusNormal}
	account.ID = "acc-1"
	repo.On("GetAccountByID", "acc-1").Return(account, nil)
	repo.On("UpdateAccount", mock.AnythingOfType("*model.Account")).
		Run(func(args mock.Arguments) {
			updated := args.Get(0).(*model.Account)
			// 新密码必须以哈希形式存储
			assert.NoError(t,
				bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("new-password-123")))
			assert.NotEqual(t, "new-password-123", updated.Password)
		}).
		Return(nil)

	err := svc.ChangePassword("acc-1", "old-password", "new-password-123")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetProfileGathersCounts(t *testing.T) {
	repo, _, svc := newTestService()

	profile := &model.Profile{Username: "alice"}
	profile.ID = "u1"
	repo.On("GetProfileByID", "u1").Return(profile, nil)
	repo.On("CountFollowers", "u1").Return(int64(10), nil)
	repo.On("CountFollowing", "u1").Return(int64(3), nil)
	repo.On("IsFollowing", "viewer-1", "u1").Return(true, nil)

	view, err := svc.GetProfile("viewer-1", "u1")

	assert.NoError(t, err)
	assert.Equal(t, int64(10), view.FollowerCount)
	assert.Equal(t, int64(3), view.FollowingCount)
	assert.True(t, view.ViewerFollows)
}

func TestGetProfileAnonymousSkipsViewerCheck(t *testing.T) {
	repo, _, svc := newTestService()

	profile := &model.Profile{Username: "alice"}
	profile.ID = "u1"
	repo.On("GetProfileByID", "u1").Return(profile, nil)
	repo.On("CountFollowers", "u1").Return(int64(0), nil)
	repo.On("CountFollowing", "u1").Return(int64(0), nil)

	view, err := svc.GetProfile("", "u1")

	assert.NoError(t, err)
	assert.False(t, view.ViewerFollows)
	repo.AssertNotCalled(t, "IsFollowing", mock.Anything, mock.Anything)
}

func TestFollowSelfRejected(t *testing.T) {
	_, _, svc := newTestService()

	err := svc.Follow("u1", "u1")

	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestFollowIdempotent(t *testing.T) {
	repo, _, svc := newTestService()

	target := &model.Profile{Username: "bob"}
	target.ID = "u2"
	repo.On("GetProfileByID", "u2").Return(target, nil)
	repo.On("IsFollowing", "u1", "u2").Return(true, nil)

	// 已经关注时不再写入
	err := svc.Follow("u1", "u2")

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "CreateFollow", mock.Anything)
}

func TestUnfollowMissingRelationStillSucceeds(t *testing.T) {
	repo, _, svc := newTestService()
	repo.On("DeleteFollow", "u1", "u2").Return(int64(0), nil)

	err := svc.Unfollow("u1", "u2")

	assert.NoError(t, err)
}

func TestUpdateProfileInvalidatesCache(t *testing.T) {
	repo, mc, svc := newTestService()

	profile := &model.Profile{Username: "alice", BannerType: model.BannerColor}
	profile.ID = "u1"
	repo.On("GetProfileByID", "u1").Return(profile, nil)
	repo.On("UpdateProfile", mock.AnythingOfType("*model.Profile")).Return(nil)

	mc.Set(context.Background(), "profile:u1", profile, time.Hour)

	_, err := svc.UpdateProfile("u1", UpdateProfileInput{FullName: "Alice A."})

	assert.NoError(t, err)
	exists, _ := mc.Exists(context.Background(), "profile:u1")
	assert.False(t, exists)
}

func TestUpdateProfileRejectsTakenUsername(t *testing.T) {
	repo, _, svc := newTestService()

	profile := &model.Profile{Username: "alice"}
	profile.ID = "u1"
	repo.On("GetProfileByID", "u1").Return(profile, nil)
	repo.On("GetProfileByUsername", "bob").Return(&model.Profile{Username: "bob"}, nil)

	_, err := svc.UpdateProfile("u1", UpdateProfileInput{Username: "bob"})

	assert.ErrorIs(t, err, ErrUsernameTaken)
	repo.AssertNotCalled(t, "UpdateProfile", mock.Anything)
}
