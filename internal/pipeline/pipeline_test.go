package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrapped/internal/archive"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"
	"github.com/wrapped/internal/storage/memory"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func writeZip(t *testing.T, files map[string][]byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

// fireExport: A начинает тред, B отвечает и ставит 🔥, бот тоже отвечает. Канала random в выгрузке нет.
func fireExport(t *testing.T) map[string][]byte {
	users := []map[string]string{
		{"id": "UA", "name": "alice"}, {"id": "UB", "name": "bob"},
		{"id": "UC", "name": "carol"}, {"id": "UBOT", "name": "robot"},
	}
	channels := []map[string]string{{"name": "general"}, {"name": "random"}}
	day := []map[string]any{
		{"ts": "1.0", "user": "UA", "reactions": []map[string]any{{"name": "fire", "users": []string{"UB"}}}},
		{"ts": "1.1", "thread_ts": "1.0", "user": "UB"},
		{"ts": "1.2", "thread_ts": "1.0", "user": "UBOT"},
	}
	return map[string][]byte{
		"export/users.json":              mustJSON(t, users),
		"export/channels.json":           mustJSON(t, channels),
		"export/general/2024-03-01.json": mustJSON(t, day),
	}
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cache := memory.NewCache(time.Hour)
	stale := &model.FinalReport{BaseStats: model.BaseStats{UserID: "UA"}}
	require.NoError(t, cache.SetReport(ctx, stale))

	p := New(store, cache)
	res, err := p.Run(ctx, Options{
		ExportPath:      writeZip(t, fireExport(t)),
		ExcludedUserIDs: []string{"UBOT"},
		Workers:         2,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Channels)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Messages)
	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 2, res.Population)
	assert.NotEmpty(t, res.RunID)

	a, err := store.GetReport(ctx, "UA")
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Name)
	assert.Equal(t, 1, a.ThreadsStarted)
	assert.Equal(t, 1, a.EngagementReceived)
	require.NotNil(t, a.MostReactionsReceived)
	assert.Equal(t, model.Ranked{Name: "fire", Count: 1}, *a.MostReactionsReceived)
	assert.Equal(t, []model.UserCount{{UserID: "UB", Name: "bob", Count: 1}}, a.TopCoPosters)
	assert.Equal(t, 1, a.ThreadsStartedPercentile)
	assert.Equal(t, 100, a.RepliesPercentile)
	assert.True(t, a.IsActive)

	b, err := store.GetReport(ctx, "UB")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Replies)
	require.NotNil(t, b.MostUsedReaction)
	assert.Equal(t, "fire", b.MostUsedReaction.Name)
	assert.Equal(t, 1, b.RepliesPercentile)
	assert.Equal(t, 100, b.ThreadsStartedPercentile)

	bot, err := store.GetReport(ctx, "UBOT")
	require.NoError(t, err)
	assert.Equal(t, 1, bot.Replies)
	assert.Len(t, bot.TopCoPosters, 2)

	_, err = store.GetReport(ctx, "UC")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.Len(t, res.Leaderboard.TopThreadCreators, 1)
	assert.Equal(t, "UA", res.Leaderboard.TopThreadCreators[0].UserID)
	require.Len(t, res.Leaderboard.TopRepliers, 1)
	assert.Equal(t, "UB", res.Leaderboard.TopRepliers[0].UserID)

	run, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.ID)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, 3, run.Users)

	_, err = cache.GetReport(ctx, "UA")
	assert.ErrorIs(t, err, storage.ErrNotFound, "cache is purged after a run")
}

func TestRecomputePercentiles(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := New(store, nil)
	_, err := p.Run(ctx, Options{
		ExportPath:      writeZip(t, fireExport(t)),
		ExcludedUserIDs: []string{"UBOT"},
		Workers:         1,
	})
	require.NoError(t, err)

	res, err := p.RecomputePercentiles(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Users)
	assert.Equal(t, 3, res.Population)
	assert.Len(t, res.Leaderboard.TopRepliers, 2)

	run, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.ID)
	assert.Equal(t, recomputeSource, run.ExportPath)

	a, err := store.GetReport(ctx, "UA")
	require.NoError(t, err)
	assert.Equal(t, 1, a.ThreadsStarted)
	assert.Equal(t, 1, a.ThreadsStartedPercentile)
}

func TestRunMissingUsersWritesNothing(t *testing.T) {
	ctx := context.Background()
	files := fireExport(t)
	delete(files, "export/users.json")

	store := memory.NewStore()
	_, err := New(store, nil).Run(ctx, Options{ExportPath: writeZip(t, files), Workers: 1})
	require.ErrorIs(t, err, archive.ErrMissingUsers)

	_, err = store.LatestRun(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetReport(ctx, "UA")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memory.NewStore()
	_, err := New(store, nil).Run(ctx, Options{ExportPath: writeZip(t, fireExport(t)), Workers: 2})
	require.ErrorIs(t, err, context.Canceled)

	_, err = store.LatestRun(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
