package startup

import (
	"context"
	"time"

	redisstorage "github.com/wrapped/internal/storage/redis"
)

// ConnectRedisWithRetry подключается к Redis с повторами.
// logPrefix добавляется к сообщениям лога (например "api: ").
func ConnectRedisWithRetry(redisURL string, ttl, maxWait time.Duration, logPrefix string) *redisstorage.Client {
	var client *redisstorage.Client
	retryUntil(maxWait, logPrefix, "redis connect", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c, err := redisstorage.New(ctx, redisURL, ttl)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	return client
}
