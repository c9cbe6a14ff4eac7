package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"GuessFM/config"
	"GuessFM/logger"
)

var minioClient *minio.Client

// InitMinio 初始化 MinIO 客户端
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		return fmt.Errorf("存储桶不存在: %s", cfg.MinioBucket)
	}

	minioClient = client
	logger.Info("MinIO 客户端初始化成功",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient 获取 MinIO 客户端实例
func GetMinioClient() *minio.Client {
	return minioClient
}

// SyncBucketToDir 将音乐桶中的对象同步到本地缓存目录
// 本地已存在且大小一致的对象跳过下载；之后的目录扫描和解码
// 仍然只操作本地文件路径
func SyncBucketToDir(ctx context.Context, cfg *config.Config, dir string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建本地缓存目录失败: %w", err)
	}

	var synced, skipped int
	for object := range minioClient.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return fmt.Errorf("列举存储桶对象失败: %w", object.Err)
		}

		localPath := filepath.Join(dir, filepath.FromSlash(object.Key))

		if info, err := os.Stat(localPath); err == nil && info.Size() == object.Size {
			skipped++
			continue
		}

		if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
			return fmt.Errorf("创建对象目录失败: %w", err)
		}

		if err := minioClient.FGetObject(ctx, cfg.MinioBucket, object.Key, localPath, minio.GetObjectOptions{}); err != nil {
			// 单个对象下载失败不中断整体同步
			logger.Warn("下载对象失败，已跳过",
				logger.String("object", object.Key),
				logger.ErrorField(err))
			continue
		}

		logger.Debug("对象同步完成",
			logger.String("object", object.Key),
			logger.Int64("size", object.Size))
		synced++
	}

	logger.Info("音乐桶同步完成",
		logger.String("bucket", cfg.MinioBucket),
		logger.String("dir", dir),
		logger.Int("synced", synced),
		logger.Int("skipped", skipped))

	return nil
}
