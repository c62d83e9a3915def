package database

import (
	"fmt"
	"log"
	"time"

	"community_hub/internal/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// InitReadDB 初始化只读查询连接 (sqlx + pgx)
// 聚合类查询 (聊天列表、后台用户报表) 手写 SQL 比 gorm 链式调用直观，
// 统一走这条连接，写路径仍然走 gorm
func InitReadDB() *sqlx.DB {
	cfg := config.GlobalConfig.Database
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("Failed to connect read database: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	log.Println("Read database connection established")
	return db
}
