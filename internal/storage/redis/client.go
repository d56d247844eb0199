package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"
)

// Ключи: wrapped:report:{user_id} и wrapped:leaderboard, значения — JSON.
const (
	keyPrefix      = "wrapped:"
	reportKey      = keyPrefix + "report:"
	leaderboardKey = keyPrefix + "leaderboard"
	purgeBatch     = 500
)

type Client struct {
	cli *redis.Client
	ttl time.Duration
}

func New(ctx context.Context, url string, ttl time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// GetReport читает отчёт из кеша; отсутствие ключа — storage.ErrNotFound.
func (c *Client) GetReport(ctx context.Context, userID string) (*model.FinalReport, error) {
	var r model.FinalReport
	if err := c.getJSON(ctx, reportKey+userID, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) SetReport(ctx context.Context, r *model.FinalReport) error {
	return c.setJSON(ctx, reportKey+r.UserID, r)
}

func (c *Client) GetLeaderboard(ctx context.Context) (*model.Leaderboard, error) {
	var lb model.Leaderboard
	if err := c.getJSON(ctx, leaderboardKey, &lb); err != nil {
		return nil, err
	}
	return &lb, nil
}

func (c *Client) SetLeaderboard(ctx context.Context, lb *model.Leaderboard) error {
	return c.setJSON(ctx, leaderboardKey, lb)
}

// Purge удаляет все ключи wrapped:* (SCAN, без FLUSHDB: Redis может быть общим).
func (c *Client) Purge(ctx context.Context) error {
	iter := c.cli.Scan(ctx, 0, keyPrefix+"*", purgeBatch).Iterator()
	keys := make([]string, 0, purgeBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == purgeBatch {
			if err := c.cli.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis.Purge del: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis.Purge scan: %w", err)
	}
	if len(keys) > 0 {
		if err := c.cli.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis.Purge del: %w", err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, key string, out any) error {
	data, err := c.cli.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("redis decode %s: %w", key, err)
	}
	return nil
}

func (c *Client) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	return c.cli.Set(ctx, key, data, c.ttl).Err()
}
