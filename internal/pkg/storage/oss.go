package storage

import (
	"fmt"
	"mime/multipart"

	"community_hub/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStorage 阿里云 OSS 实现
type OSSStorage struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.StorageConfig
}

func NewOSSStorage() (*OSSStorage, error) {
	cfg := config.GlobalConfig.Storage
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &OSSStorage{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

func (s *OSSStorage) Upload(file *multipart.FileHeader, userID, category string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	object := objectPath(userID, category, file.Filename)

	if err := s.bucket.PutObject(object, src); err != nil {
		return "", err
	}

	// Bucket 需配置 public-read 或挂 CDN，私有桶要改成签名 URL
	url := fmt.Sprintf("https://%s.%s/%s", s.config.BucketName, s.config.Endpoint, object)
	return url, nil
}
