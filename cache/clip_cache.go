package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"GuessFM/logger"
)

// ClipKey 生成片段字节缓存的键
// 同一曲目同一起点的片段内容不变，可以安全复用编码结果
func ClipKey(trackID string, start, length time.Duration, format string) string {
	return fmt.Sprintf("clip:%s:%d:%d:%s", trackID, start.Milliseconds(), length.Milliseconds(), format)
}

// SetClipCache 缓存一段已编码的片段字节
// Redis未启用或写入失败时静默降级，不影响请求本身
func SetClipCache(key string, data []byte, expiration time.Duration) {
	if RedisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Set(ctx, key, data, expiration).Err(); err != nil {
		logger.Warn("设置片段缓存失败",
			logger.String("key", key),
			logger.Int("dataSize", len(data)),
			logger.ErrorField(err))
		return
	}

	logger.Debug("片段缓存设置成功",
		logger.String("key", key),
		logger.Int("dataSize", len(data)),
		logger.Duration("expiration", expiration))
}

// GetClipCache 读取已编码的片段字节
// 缓存未命中或Redis不可用时返回nil，调用方继续走实时编码
func GetClipCache(key string) []byte {
	if RedisClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := RedisClient.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			logger.Debug("片段缓存不存在", logger.String("key", key))
		} else {
			logger.Warn("获取片段缓存失败，回退到实时编码",
				logger.String("key", key),
				logger.ErrorField(err))
		}
		return nil
	}

	logger.Debug("片段缓存命中",
		logger.String("key", key),
		logger.Int("dataSize", len(data)))

	return data
}

// DeleteClipPattern 批量删除匹配模式的片段缓存
func DeleteClipPattern(pattern string) error {
	if RedisClient == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	keys, err := RedisClient.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("failed to list clip cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := RedisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete clip cache keys: %w", err)
	}

	logger.Info("批量删除片段缓存成功",
		logger.String("pattern", pattern),
		logger.Int("deletedCount", len(keys)))

	return nil
}
