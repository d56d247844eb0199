package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"
)

// Нужен живой Redis: TEST_REDIS_URL=redis://localhost:6379/15 go test ./internal/storage/redis/
func newTestClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := New(ctx, url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Purge(context.Background())
		c.Close()
	})
	return c
}

func TestReportCache(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.Purge(ctx))

	_, err := c.GetReport(ctx, "U1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rep := &model.FinalReport{BaseStats: model.BaseStats{UserID: "U1", Replies: 7}, RepliesPercentile: 3, IsActive: true}
	require.NoError(t, c.SetReport(ctx, rep))
	got, err := c.GetReport(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, rep, got)

	require.NoError(t, c.SetLeaderboard(ctx, &model.Leaderboard{TopThreadCreators: []model.UserCount{{UserID: "U1", Count: 1}}}))
	require.NoError(t, c.Purge(ctx))
	_, err = c.GetReport(ctx, "U1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = c.GetLeaderboard(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New(context.Background(), "not-a-url", time.Minute)
	assert.Error(t, err)
}
