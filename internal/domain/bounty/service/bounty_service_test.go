package service

import (
	"sync"
	"testing"

	"community_hub/internal/domain/bounty/model"
	profileModel "community_hub/internal/domain/profile/model"
	"community_hub/internal/pkg/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockBountyRepository 模拟悬赏仓库
type MockBountyRepository struct {
	mock.Mock
}

func (m *MockBountyRepository) ListBounties(offset, limit int) ([]model.Bounty, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]model.Bounty), args.Get(1).(int64), args.Error(2)
}

func (m *MockBountyRepository) GetBountyByID(id string) (*model.Bounty, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Bounty), args.Error(1)
}

func (m *MockBountyRepository) CreateBountyWithTags(b *model.Bounty, tags []string) error {
	args := m.Called(b, tags)
	return args.Error(0)
}

func (m *MockBountyRepository) UpdateBounty(authorID, id string, fields map[string]interface{}) (int64, error) {
	args := m.Called(authorID, id, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBountyRepository) DeleteBounty(authorID, id string) (int64, error) {
	args := m.Called(authorID, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBountyRepository) UpdateStatus(authorID, id, status string) (int64, error) {
	args := m.Called(authorID, id, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBountyRepository) GetTagsByBountyIDs(ids []string) (map[string][]string, error) {
	args := m.Called(ids)
	return args.Get(0).(map[string][]string), args.Error(1)
}

func (m *MockBountyRepository) GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error) {
	args := m.Called(ids)
	return args.Get(0).(map[string]profileModel.Profile), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) all() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events...)
}

func newTestService() (*MockBountyRepository, *recordingPublisher, BountyService) {
	repo := new(MockBountyRepository)
	pub := &recordingPublisher{}
	return repo, pub, NewBountyService(repo, pub)
}

func TestCreateRejectsNonPositivePriceBeforeWrite(t *testing.T) {
	repo, pub, svc := newTestService()

	for _, price := range []float64{0, -1, -0.01} {
		_, err := svc.Create("author-1", CreateBountyInput{
			Title: "t", Description: "d", Price: price, Currency: "USD",
		})
		assert.ErrorIs(t, err, ErrInvalidPrice)
	}

	// 校验失败不应触碰仓库，也不应发事件
	repo.AssertNotCalled(t, "CreateBountyWithTags", mock.Anything, mock.Anything)
	assert.Empty(t, pub.all())
}

func TestCreateRejectsBadCurrency(t *testing.T) {
	_, _, svc := newTestService()

	for _, currency := range []string{"", "US", "DOLLAR", "U$D", "12D"} {
		_, err := svc.Create("author-1", CreateBountyInput{
			Title: "t", Description: "d", Price: 10, Currency: currency,
		})
		assert.ErrorIs(t, err, ErrInvalidCurrency, "currency %q", currency)
	}
}

func TestCreateOpensWithUppercaseCurrency(t *testing.T) {
	repo, pub, svc := newTestService()

	repo.On("CreateBountyWithTags", mock.AnythingOfType("*model.Bounty"), []string{"go"}).
		Run(func(args mock.Arguments) {
			args.Get(0).(*model.Bounty).ID = "b1"
		}).
		Return(nil)

	b, err := svc.Create("author-1", CreateBountyInput{
		Title: "t", Description: "d", Price: 50, Currency: "usd", Tags: []string{"go"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, model.StatusOpen, b.Status)

	events := pub.all()
	assert.Len(t, events, 1)
	assert.Equal(t, realtime.TableBounties, events[0].Table)
	assert.Equal(t, realtime.ActionInsert, events[0].Action)
	repo.AssertExpectations(t)
}

func TestCreateTrimsCurrencyBeforePersisting(t *testing.T) {
	repo, _, svc := newTestService()

	var persisted string
	repo.On("CreateBountyWithTags", mock.AnythingOfType("*model.Bounty"), mock.Anything).
		Run(func(args mock.Arguments) {
			b := args.Get(0).(*model.Bounty)
			b.ID = "b1"
			persisted = b.Currency
		}).
		Return(nil)

	// 带空白的输入通过校验后，落库的必须是规范化后的同一个值
	_, err := svc.Create("author-1", CreateBountyInput{
		Title: "t", Description: "d", Price: 10, Currency: " usd",
	})

	assert.NoError(t, err)
	assert.Equal(t, "USD", persisted)
}

func TestUpdateTrimsCurrencyBeforePersisting(t *testing.T) {
	repo, _, svc := newTestService()

	var persisted interface{}
	repo.On("UpdateBounty", "author-1", "b1", mock.Anything).
		Run(func(args mock.Arguments) {
			persisted = args.Get(2).(map[string]interface{})["currency"]
		}).
		Return(int64(1), nil)

	err := svc.Update("author-1", "b1", UpdateBountyInput{
		Title: "t", Description: "d", Price: 10, Currency: "\teur ",
	})

	assert.NoError(t, err)
	assert.Equal(t, "EUR", persisted)
}

func TestUpdateDistinguishesMissingFromNotOwner(t *testing.T) {
	repo, _, svc := newTestService()

	input := UpdateBountyInput{Title: "t", Description: "d", Price: 5, Currency: "EUR"}

	other := &model.Bounty{AuthorID: "someone-else"}
	other.ID = "b1"
	repo.On("UpdateBounty", "viewer-1", "b1", mock.Anything).Return(int64(0), nil)
	repo.On("GetBountyByID", "b1").Return(other, nil)

	assert.ErrorIs(t, svc.Update("viewer-1", "b1", input), ErrNotOwner)

	repo.On("UpdateBounty", "viewer-1", "gone", mock.Anything).Return(int64(0), nil)
	repo.On("GetBountyByID", "gone").Return(nil, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, svc.Update("viewer-1", "gone", input), ErrBountyNotFound)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo, _, svc := newTestService()

	err := svc.UpdateStatus("author-1", "b1", "archived")

	assert.ErrorIs(t, err, ErrInvalidStatus)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatusByOwner(t *testing.T) {
	repo, pub, svc := newTestService()
	repo.On("UpdateStatus", "author-1", "b1", model.StatusCompleted).Return(int64(1), nil)

	err := svc.UpdateStatus("author-1", "b1", model.StatusCompleted)

	assert.NoError(t, err)
	events := pub.all()
	assert.Len(t, events, 1)
	assert.Equal(t, realtime.ActionUpdate, events[0].Action)
	assert.Equal(t, "b1", events[0].RowID)
}

func TestListBuildsViewsWithTagsAndAuthors(t *testing.T) {
	repo, _, svc := newTestService()

	bounties := []model.Bounty{
		{AuthorID: "author-1", Title: "fix bug", Price: 100, Currency: "USD", Status: model.StatusOpen},
	}
	bounties[0].ID = "b1"

	repo.On("ListBounties", 0, 20).Return(bounties, int64(1), nil)
	repo.On("GetTagsByBountyIDs", []string{"b1"}).
		Return(map[string][]string{"b1": {"go"}}, nil)
	repo.On("GetProfilesByIDs", []string{"author-1"}).
		Return(map[string]profileModel.Profile{"author-1": {Username: "alice"}}, nil)

	views, total, err := svc.List(1, 20)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"go"}, views[0].Tags)
	assert.Equal(t, "alice", views[0].Author.Username)
	repo.AssertExpectations(t)
}

func TestDeleteByOwnerPublishesEvent(t *testing.T) {
	repo, pub, svc := newTestService()
	repo.On("DeleteBounty", "author-1", "b1").Return(int64(1), nil)

	err := svc.Delete("author-1", "b1")

	assert.NoError(t, err)
	assert.Equal(t, realtime.ActionDelete, pub.all()[0].Action)
}
