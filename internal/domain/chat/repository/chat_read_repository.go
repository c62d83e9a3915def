package repository

import (
	"context"

	"community_hub/internal/domain/chat/model"

	"github.com/jmoiron/sqlx"
)

// ChatReadRepository 会话列表的读侧聚合
// 单独走 sqlx，一条 DISTINCT ON 查询同时取出会话和各自的最后一条消息
type ChatReadRepository interface {
	ListChatRows(ctx context.Context, userID string) ([]model.LastMessageRow, error)
}

type chatReadRepository struct {
	db *sqlx.DB
}

func NewChatReadRepository(db *sqlx.DB) ChatReadRepository {
	return &chatReadRepository{db: db}
}

const listChatRowsQuery = `
SELECT c.id              AS chat_id,
       c.type            AS chat_type,
       c.name            AS chat_name,
       c.created_at      AS chat_created_at,
       m.id              AS message_id,
       m.sender_id       AS sender_id,
       m.content         AS content,
       m.message_type    AS message_type,
       m.created_at      AS sent_at
FROM chats c
JOIN chat_participants cp ON cp.chat_id = c.id
LEFT JOIN (
    SELECT DISTINCT ON (chat_id)
           id, chat_id, sender_id, content, message_type, created_at
    FROM messages
    ORDER BY chat_id, created_at DESC
) m ON m.chat_id = c.id
WHERE cp.user_id = $1
ORDER BY COALESCE(m.created_at, c.created_at) DESC`

func (r *chatReadRepository) ListChatRows(ctx context.Context, userID string) ([]model.LastMessageRow, error) {
	rows := []model.LastMessageRow{}
	if err := r.db.SelectContext(ctx, &rows, listChatRowsQuery, userID); err != nil {
		return nil, err
	}
	return rows, nil
}
