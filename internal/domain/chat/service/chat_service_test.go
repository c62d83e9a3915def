package service

import (
	"context"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"community_hub/internal/domain/chat/model"
	profileModel "community_hub/internal/domain/profile/model"
	"community_hub/internal/pkg/realtime"
	"community_hub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Init("debug", "error")
	m.Run()
}

// MockChatRepository 模拟聊天仓库
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) GetOrCreateDirectChat(userA, userB string) (*model.Chat, bool, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*model.Chat), args.Bool(1), args.Error(2)
}

func (m *MockChatRepository) CreateGroupChat(chat *model.Chat, memberIDs []string) error {
	args := m.Called(chat, memberIDs)
	return args.Error(0)
}

func (m *MockChatRepository) GetChatByID(id string) (*model.Chat, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Chat), args.Error(1)
}

func (m *MockChatRepository) IsParticipant(chatID, userID string) (bool, error) {
	args := m.Called(chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepository) ParticipantIDs(chatID string) ([]string, error) {
	args := m.Called(chatID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChatRepository) ParticipantIDsByChatIDs(chatIDs []string) (map[string][]string, error) {
	args := m.Called(chatIDs)
	return args.Get(0).(map[string][]string), args.Error(1)
}

func (m *MockChatRepository) CreateMessage(msg *model.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockChatRepository) ListMessages(chatID string) ([]model.Message, error) {
	args := m.Called(chatID)
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockChatRepository) GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error) {
	args := m.Called(ids)
	return args.Get(0).(map[string]profileModel.Profile), args.Error(1)
}

// MockChatReadRepository 模拟读侧聚合
type MockChatReadRepository struct {
	mock.Mock
}

func (m *MockChatReadRepository) ListChatRows(ctx context.Context, userID string) ([]model.LastMessageRow, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.LastMessageRow), args.Error(1)
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

type fakeStorage struct {
	url string
}

func (f *fakeStorage) Upload(file *multipart.FileHeader, userID, category string) (string, error) {
	return f.url, nil
}

// channelPush 把推送调用送进通道，测试端带超时接收
type pushCall struct {
	accountID string
	title     string
	body      string
}

type channelPush struct {
	calls chan pushCall
}

func newChannelPush() *channelPush {
	return &channelPush{calls: make(chan pushCall, 16)}
}

func (p *channelPush) PushToAccount(accountID, title, body string, ext map[string]string) error {
	p.calls <- pushCall{accountID: accountID, title: title, body: body}
	return nil
}

func (p *channelPush) next(t *testing.T) pushCall {
	t.Helper()
	select {
	case call := <-p.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a push notification, got none")
		return pushCall{}
	}
}

func newTestService() (*MockChatRepository, *MockChatReadRepository, *recordingPublisher, *channelPush, ChatService) {
	repo := new(MockChatRepository)
	read := new(MockChatReadRepository)
	pub := &recordingPublisher{}
	pushSvc := newChannelPush()
	svc := NewChatService(repo, read, pub, &fakeStorage{url: "https://cdn.example.com/obj"}, pushSvc)
	return repo, read, pub, pushSvc, svc
}

func TestDirectChatWithSelfRejected(t *testing.T) {
	repo, _, _, _, svc := newTestService()

	_, err := svc.GetOrCreateDirectChat("u1", "u1")

	assert.ErrorIs(t, err, ErrSelfChat)
	repo.AssertNotCalled(t, "GetOrCreateDirectChat", mock.Anything, mock.Anything)
}

func TestDirectChatCalledTwiceReturnsSameChat(t *testing.T) {
	repo, _, pub, _, svc := newTestService()

	chat := &model.Chat{Type: model.TypeDirect, CreatedBy: "u1"}
	chat.ID = "c1"
	repo.On("GetOrCreateDirectChat", "u1", "u2").Return(chat, true, nil).Once()
	repo.On("GetOrCreateDirectChat", "u1", "u2").Return(chat, false, nil).Once()

	first, err := svc.GetOrCreateDirectChat("u1", "u2")
	assert.NoError(t, err)
	second, err := svc.GetOrCreateDirectChat("u1", "u2")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// 只有第一次真正创建时才广播 chats/chat_participants 事件
	events := pub.all()
	assert.Len(t, events, 3)
	assert.Equal(t, realtime.TableChats, events[0].Table)
	assert.Equal(t, realtime.TableChatParticipants, events[1].Table)
	assert.Equal(t, "chat_id=c1", events[1].Filter)
}

func TestCreateGroupChatIncludesCreatorAndDedupes(t *testing.T) {
	repo, _, _, _, svc := newTestService()

	repo.On("CreateGroupChat", mock.AnythingOfType("*model.Chat"), []string{"u1", "u2", "u3"}).
		Run(func(args mock.Arguments) {
			args.Get(0).(*model.Chat).ID = "g1"
		}).
		Return(nil)

	chat, err := svc.CreateGroupChat("u1", "team", []string{"u2", "u3", "u2", "u1"})

	assert.NoError(t, err)
	assert.Equal(t, model.TypeGroup, chat.Type)
	repo.AssertExpectations(t)
}

func TestCreateGroupChatNeedsOtherMembers(t *testing.T) {
	_, _, _, _, svc := newTestService()

	_, err := svc.CreateGroupChat("u1", "lonely", []string{"u1"})

	assert.ErrorIs(t, err, ErrEmptyGroup)
}

func TestListMessagesRequiresMembership(t *testing.T) {
	repo, _, _, _, svc := newTestService()

	chat := &model.Chat{Type: model.TypeDirect}
	chat.ID = "c1"
	repo.On("GetChatByID", "c1").Return(chat, nil)
	repo.On("IsParticipant", "c1", "outsider").Return(false, nil)

	_, err := svc.ListMessages("outsider", "c1")

	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestListMessagesUnknownChat(t *testing.T) {
	repo, _, _, _, svc := newTestService()
	repo.On("GetChatByID", "gone").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.ListMessages("u1", "gone")

	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestSendMessagePublishesAndNotifiesOthers(t *testing.T) {
	repo, _, pub, pushSvc, svc := newTestService()

	chat := &model.Chat{Type: model.TypeDirect}
	chat.ID = "c1"
	repo.On("GetChatByID", "c1").Return(chat, nil)
	repo.On("IsParticipant", "c1", "u1").Return(true, nil)
	repo.On("CreateMessage", mock.AnythingOfType("*model.Message")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*model.Message).ID = "m1"
		}).
		Return(nil)
	repo.On("ParticipantIDs", "c1").Return([]string{"u1", "u2"}, nil)
	repo.On("GetProfilesByIDs", []string{"u1"}).
		Return(map[string]profileModel.Profile{"u1": {Username: "alice"}}, nil)

	msg, err := svc.SendMessage("u1", "c1", "hello")

	assert.NoError(t, err)
	assert.Equal(t, model.MessageText, msg.MessageType)

	events := pub.all()
	assert.Len(t, events, 1)
	assert.Equal(t, realtime.TableMessages, events[0].Table)
	assert.Equal(t, "chat_id=c1", events[0].Filter)

	// 推送只发给发送者以外的成员
	call := pushSvc.next(t)
	assert.Equal(t, "u2", call.accountID)
	assert.Equal(t, "alice", call.title)
	assert.Equal(t, "hello", call.body)
}

func TestSendMessageRejectsBlank(t *testing.T) {
	repo, _, _, _, svc := newTestService()

	_, err := svc.SendMessage("u1", "c1", "   ")

	assert.ErrorIs(t, err, ErrEmptyMessage)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func TestSendFileMessageStoresDurableURL(t *testing.T) {
	repo, _, _, _, svc := newTestService()

	chat := &model.Chat{Type: model.TypeDirect}
	chat.ID = "c1"
	repo.On("GetChatByID", "c1").Return(chat, nil)
	repo.On("IsParticipant", "c1", "u1").Return(true, nil)
	repo.On("CreateMessage", mock.AnythingOfType("*model.Message")).Return(nil)
	repo.On("ParticipantIDs", "c1").Return([]string{"u1"}, nil)
	repo.On("GetProfilesByIDs", []string{"u1"}).
		Return(map[string]profileModel.Profile{}, nil)

	file := &multipart.FileHeader{
		Filename: "photo.png",
		Size:     2048,
		Header:   textproto.MIMEHeader{"Content-Type": []string{"image/png"}},
	}

	msg, err := svc.SendFileMessage("u1", "c1", "", file)

	assert.NoError(t, err)
	assert.Equal(t, model.MessageImage, msg.MessageType)
	assert.Equal(t, "https://cdn.example.com/obj", msg.FileURL)
	assert.Equal(t, "photo.png", msg.FileName)
	assert.Equal(t, int64(2048), msg.FileSize)
}

func TestClassifyMessageType(t *testing.T) {
	assert.Equal(t, model.MessageImage, ClassifyMessageType("image/jpeg"))
	assert.Equal(t, model.MessageVideo, ClassifyMessageType("video/mp4"))
	assert.Equal(t, model.MessageFile, ClassifyMessageType("application/pdf"))
	assert.Equal(t, model.MessageFile, ClassifyMessageType(""))
}

func TestListChatsAssemblesSummaries(t *testing.T) {
	repo, read, _, _, svc := newTestService()

	sentAt := time.Now()
	name := "team"
	msgID, senderID, content, msgType := "m1", "u2", "hi", model.MessageText
	rows := []model.LastMessageRow{
		{
			ChatID: "c1", ChatType: model.TypeGroup, ChatName: &name,
			MessageID: &msgID, SenderID: &senderID, Content: &content,
			MessageType: &msgType, SentAt: &sentAt,
		},
		{ChatID: "c2", ChatType: model.TypeDirect},
	}

	read.On("ListChatRows", mock.Anything, "u1").Return(rows, nil)
	repo.On("ParticipantIDsByChatIDs", []string{"c1", "c2"}).
		Return(map[string][]string{
			"c1": {"u1", "u2"},
			"c2": {"u1", "u3"},
		}, nil)
	repo.On("GetProfilesByIDs", mock.Anything).
		Return(map[string]profileModel.Profile{
			"u1": {Username: "alice"},
			"u2": {Username: "bob"},
			"u3": {Username: "carol"},
		}, nil)

	summaries, err := svc.ListChats(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Len(t, summaries, 2)

	assert.Equal(t, "team", summaries[0].Name)
	assert.Len(t, summaries[0].Participants, 2)
	assert.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "hi", summaries[0].LastMessage.Content)

	// 没有消息的会话 LastMessage 为空
	assert.Nil(t, summaries[1].LastMessage)
}
