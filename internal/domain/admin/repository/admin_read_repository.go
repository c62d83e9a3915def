package repository

import (
	"context"

	"community_hub/internal/domain/admin/model"

	"github.com/jmoiron/sqlx"
)

// AdminReadRepository 用户管理列表的读侧
// 资料、账号、角色三表一条联查出一页，没有角色行的用户归为 user
type AdminReadRepository interface {
	ListUsers(ctx context.Context, offset, limit int) ([]model.UserRow, int64, error)
}

type adminReadRepository struct {
	db *sqlx.DB
}

func NewAdminReadRepository(db *sqlx.DB) AdminReadRepository {
	return &adminReadRepository{db: db}
}

const listUsersQuery = `
SELECT p.id                       AS id,
       p.username                 AS username,
       p.full_name                AS full_name,
       p.avatar_url               AS avatar_url,
       a.email                    AS email,
       a.status                   AS status,
       COALESCE(r.role, 'user')   AS role,
       p.created_at               AS created_at
FROM profiles p
JOIN accounts a ON a.id = p.id
LEFT JOIN user_roles r ON r.user_id = p.id
ORDER BY p.created_at DESC
OFFSET $1 LIMIT $2`

const countUsersQuery = `SELECT COUNT(*) FROM profiles`

func (r *adminReadRepository) ListUsers(ctx context.Context, offset, limit int) ([]model.UserRow, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, countUsersQuery); err != nil {
		return nil, 0, err
	}

	rows := []model.UserRow{}
	if err := r.db.SelectContext(ctx, &rows, listUsersQuery, offset, limit); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
