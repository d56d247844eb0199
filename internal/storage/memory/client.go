package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"
)

type item[T any] struct {
	val T
	exp time.Time
}

// Cache — кеш отчётов в памяти процесса (когда REDIS_URL не задан).
type Cache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	reports     map[string]item[model.FinalReport]
	leaderboard *item[model.Leaderboard]
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, reports: make(map[string]item[model.FinalReport])}
}

func (c *Cache) Close() error { return nil }

func (c *Cache) GetReport(ctx context.Context, userID string) (*model.FinalReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.reports[userID]
	if !ok || time.Now().After(v.exp) {
		return nil, storage.ErrNotFound
	}
	r := v.val
	return &r, nil
}

func (c *Cache) SetReport(ctx context.Context, r *model.FinalReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[r.UserID] = item[model.FinalReport]{val: *r, exp: time.Now().Add(c.ttl)}
	return nil
}

func (c *Cache) GetLeaderboard(ctx context.Context) (*model.Leaderboard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.leaderboard == nil || time.Now().After(c.leaderboard.exp) {
		return nil, storage.ErrNotFound
	}
	lb := c.leaderboard.val
	return &lb, nil
}

func (c *Cache) SetLeaderboard(ctx context.Context, lb *model.Leaderboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaderboard = &item[model.Leaderboard]{val: *lb, exp: time.Now().Add(c.ttl)}
	return nil
}

func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = make(map[string]item[model.FinalReport])
	c.leaderboard = nil
	return nil
}
