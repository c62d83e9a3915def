package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockReadRepo(t *testing.T) (AdminReadRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAdminReadRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestListUsersJoinsRolesWithDefault(t *testing.T) {
	repo, mock := newMockReadRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "username", "full_name", "avatar_url", "email", "status", "role", "created_at",
	}).
		AddRow("u1", "alice", "Alice", "", "alice@example.com", "normal", "admin", now).
		// 没有 user_roles 行的用户由 COALESCE 归为 user
		AddRow("u2", "bob", "Bob", "", "bob@example.com", "normal", "user", now)

	mock.ExpectQuery("LEFT JOIN user_roles").WithArgs(0, 20).WillReturnRows(rows)

	result, total, err := repo.ListUsers(context.Background(), 0, 20)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, result, 2)
	assert.Equal(t, "admin", result[0].Role)
	assert.Equal(t, "user", result[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
