package repository

import (
	"errors"

	"community_hub/internal/domain/chat/model"
	profileModel "community_hub/internal/domain/profile/model"

	"gorm.io/gorm"
)

type ChatRepository interface {
	GetOrCreateDirectChat(userA, userB string) (*model.Chat, bool, error)
	CreateGroupChat(chat *model.Chat, memberIDs []string) error
	GetChatByID(id string) (*model.Chat, error)

	IsParticipant(chatID, userID string) (bool, error)
	ParticipantIDs(chatID string) ([]string, error)
	ParticipantIDsByChatIDs(chatIDs []string) (map[string][]string, error)

	CreateMessage(msg *model.Message) error
	ListMessages(chatID string) ([]model.Message, error)

	GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// GetOrCreateDirectChat 私聊查找或创建
// 事务内先拿 pg 咨询锁串行化同一对用户的并发调用，
// 所以同一对 (a, b) 不管调多少次都只会落一条会话
func (r *chatRepository) GetOrCreateDirectChat(userA, userB string) (*model.Chat, bool, error) {
	pairKey := userA + ":" + userB
	if userB < userA {
		pairKey = userB + ":" + userA
	}

	var chat model.Chat
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", pairKey).Error; err != nil {
			return err
		}

		err := tx.Raw(`
			SELECT c.* FROM chats c
			JOIN chat_participants p1 ON p1.chat_id = c.id AND p1.user_id = ?
			JOIN chat_participants p2 ON p2.chat_id = c.id AND p2.user_id = ?
			WHERE c.type = ?
			LIMIT 1`, userA, userB, model.TypeDirect).Scan(&chat).Error
		if err != nil {
			return err
		}
		if chat.ID != "" {
			return nil
		}

		chat = model.Chat{Type: model.TypeDirect, CreatedBy: userA}
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		for _, userID := range []string{userA, userB} {
			p := &model.ChatParticipant{ChatID: chat.ID, UserID: userID}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &chat, created, nil
}

// CreateGroupChat 群聊和成员同一事务落库
func (r *chatRepository) CreateGroupChat(chat *model.Chat, memberIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		for _, userID := range memberIDs {
			p := &model.ChatParticipant{ChatID: chat.ID, UserID: userID}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *chatRepository) GetChatByID(id string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) IsParticipant(chatID, userID string) (bool, error) {
	var p model.ChatParticipant
	err := r.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *chatRepository) ParticipantIDs(chatID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.ChatParticipant{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ParticipantIDsByChatIDs 多个会话的成员一次查完
func (r *chatRepository) ParticipantIDsByChatIDs(chatIDs []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(chatIDs) == 0 {
		return result, nil
	}

	var rows []model.ChatParticipant
	if err := r.db.Where("chat_id IN ?", chatIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ChatID] = append(result[row.ChatID], row.UserID)
	}
	return result, nil
}

func (r *chatRepository) CreateMessage(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// ListMessages 时间升序全量返回
func (r *chatRepository) ListMessages(chatID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at asc").
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error) {
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
