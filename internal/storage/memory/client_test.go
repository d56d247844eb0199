package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"
)

func TestCacheReportTTL(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Hour)

	_, err := c.GetReport(ctx, "U1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, c.SetReport(ctx, &model.FinalReport{BaseStats: model.BaseStats{UserID: "U1", Replies: 3}}))
	got, err := c.GetReport(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Replies)

	expired := NewCache(-time.Second)
	require.NoError(t, expired.SetReport(ctx, &model.FinalReport{BaseStats: model.BaseStats{UserID: "U1"}}))
	_, err = expired.GetReport(ctx, "U1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCachePurge(t *testing.T) {
	ctx := context.Background()
	c := NewCache(time.Hour)
	require.NoError(t, c.SetReport(ctx, &model.FinalReport{BaseStats: model.BaseStats{UserID: "U1"}}))
	require.NoError(t, c.SetLeaderboard(ctx, &model.Leaderboard{TopRepliers: []model.UserCount{{UserID: "U1", Count: 2}}}))

	lb, err := c.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.Len(t, lb.TopRepliers, 1)

	require.NoError(t, c.Purge(ctx))
	_, err = c.GetReport(ctx, "U1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = c.GetLeaderboard(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	run := &model.Run{ID: "run-1", ExportPath: "x.zip", StartedAt: time.Now()}
	require.NoError(t, s.StartRun(ctx, run))
	require.NoError(t, s.SaveBaseStats(ctx, run.ID, []model.BaseStats{{UserID: "B"}, {UserID: "A"}}))
	require.NoError(t, s.SaveReports(ctx, run.ID, []model.FinalReport{{BaseStats: model.BaseStats{UserID: "A", ThreadsStarted: 2}}}))
	require.NoError(t, s.FinishRun(ctx, run.ID, 1, time.Now()))
	assert.ErrorIs(t, s.FinishRun(ctx, "nope", 0, time.Now()), storage.ErrNotFound)

	base, err := s.LoadBaseStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", base[0].UserID)
	assert.Equal(t, "A", base[1].UserID)

	rep, err := s.GetReport(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, rep.ThreadsStarted)
	_, err = s.GetReport(ctx, "B")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest.FinishedAt)
	assert.Equal(t, 1, latest.Users)
}
