package repository

import (
	"context"
	"testing"
	"time"

	"community_hub/internal/domain/chat/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockReadRepo(t *testing.T) (ChatReadRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewChatReadRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestListChatRowsSingleQuery(t *testing.T) {
	repo, mock := newMockReadRepo(t)

	sentAt := time.Now()
	name := "team"
	rows := sqlmock.NewRows([]string{
		"chat_id", "chat_type", "chat_name", "chat_created_at",
		"message_id", "sender_id", "content", "message_type", "sent_at",
	}).
		AddRow("c1", model.TypeGroup, name, sentAt, "m1", "u2", "hi", model.MessageText, sentAt).
		AddRow("c2", model.TypeDirect, nil, sentAt, nil, nil, nil, nil, nil)

	// 一条聚合查询，既有会话也有最后一条消息
	mock.ExpectQuery("SELECT DISTINCT ON").WithArgs("u1").WillReturnRows(rows)

	result, err := repo.ListChatRows(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Len(t, result, 2)

	assert.Equal(t, "c1", result[0].ChatID)
	assert.Equal(t, "team", *result[0].ChatName)
	assert.Equal(t, "hi", *result[0].Content)

	// 空会话：消息侧字段全部为 NULL
	assert.Equal(t, "c2", result[1].ChatID)
	assert.Nil(t, result[1].MessageID)
	assert.Nil(t, result[1].Content)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListChatRowsEmpty(t *testing.T) {
	repo, mock := newMockReadRepo(t)

	mock.ExpectQuery("SELECT DISTINCT ON").WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{
		"chat_id", "chat_type", "chat_name", "chat_created_at",
		"message_id", "sender_id", "content", "message_type", "sent_at",
	}))

	result, err := repo.ListChatRows(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Empty(t, result)
}
