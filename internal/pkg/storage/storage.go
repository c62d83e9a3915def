package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"community_hub/internal/pkg/config"
)

// Storage 对象存储接口
// 上传成功后返回可公开访问的持久 URL，消息/资料里只允许存这种 URL，
// 不允许存浏览器本地的临时对象地址
type Storage interface {
	Upload(file *multipart.FileHeader, userID, category string) (string, error)
}

// 允许的上传分类
const (
	CategoryAvatar     = "avatars"
	CategoryBanner     = "banners"
	CategoryDiscussion = "discussions"
	CategoryChat       = "chat"
)

// objectPath 生成对象路径: {userId}/{category}/{timestamp}.{ext}
func objectPath(userID, category, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s/%d%s", userID, category, time.Now().UnixNano(), ext)
}

// ValidCategory 校验上传分类
func ValidCategory(category string) bool {
	switch category {
	case CategoryAvatar, CategoryBanner, CategoryDiscussion, CategoryChat:
		return true
	}
	return false
}

// New 按配置创建存储实现
func New() (Storage, error) {
	cfg := config.GlobalConfig.Storage
	switch cfg.Backend {
	case "oss":
		return NewOSSStorage()
	case "local":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
