// Package pipeline — пакетный расчёт Wrapped: выгрузка → счётчики → base stats → перцентили → final stats.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wrapped/internal/archive"
	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/metrics"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/stats"
	"github.com/wrapped/internal/storage"
)

// recomputeSource — метка прогона, пересчитавшего только перцентили.
const recomputeSource = "base_stats"

// Options — параметры прогона.
type Options struct {
	ExportPath      string
	ExcludedUserIDs []string
	Workers         int
}

// Result — сводка прогона для лога prep.
type Result struct {
	RunID       string
	Channels    int
	Skipped     int
	Messages    int
	Users       int
	Population  int
	Leaderboard model.Leaderboard
}

type Pipeline struct {
	store storage.ReportStore
	cache storage.ReportCache
}

// New создаёт пайплайн. cache может быть nil; если задан, сбрасывается после сохранения отчётов.
func New(store storage.ReportStore, cache storage.ReportCache) *Pipeline {
	return &Pipeline{store: store, cache: cache}
}

// Run выполняет полный расчёт по выгрузке. Ошибка открытия выгрузки (нет users.json
// или channels.json) прерывает прогон до записи чего-либо в хранилище.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	defer logger.DeferLogDuration("pipeline.Run", time.Now())()
	excluded := stats.ExclusionSet(opts.ExcludedUserIDs)

	stage := time.Now()
	exp, err := archive.Open(opts.ExportPath)
	if err != nil {
		return nil, err
	}
	defer exp.Close()

	set, channels, err := stats.AggregateChannels(ctx, exp, exp.Channels, excluded, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	observe("aggregate", stage)

	res := &Result{Channels: len(channels)}
	for _, ch := range channels {
		if ch.Skipped {
			res.Skipped++
			metrics.PipelineChannels.WithLabelValues("skipped").Inc()
			continue
		}
		res.Messages += ch.Messages
		metrics.PipelineChannels.WithLabelValues("processed").Inc()
	}
	metrics.PipelineMessages.Add(float64(res.Messages))
	logger.Infof("aggregated channels=%d skipped=%d messages=%d users=%d", res.Channels, res.Skipped, res.Messages, set.Len())

	base := stats.Finalize(set, exp.DisplayName)

	run := &model.Run{ID: uuid.NewString(), ExportPath: opts.ExportPath, StartedAt: time.Now().UTC()}
	if err := p.store.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("pipeline.Run start: %w", err)
	}
	res.RunID = run.ID

	stage = time.Now()
	if err := p.store.SaveBaseStats(ctx, run.ID, base); err != nil {
		return nil, fmt.Errorf("pipeline.Run save base stats: %w", err)
	}
	observe("save_base", stage)

	if err := p.finish(ctx, run.ID, base, excluded, res); err != nil {
		return nil, err
	}
	return res, nil
}

// RecomputePercentiles пересчитывает final stats по уже сохранённым base stats.
func (p *Pipeline) RecomputePercentiles(ctx context.Context, opts Options) (*Result, error) {
	defer logger.DeferLogDuration("pipeline.RecomputePercentiles", time.Now())()
	base, err := p.store.LoadBaseStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.RecomputePercentiles load: %w", err)
	}
	if len(base) == 0 {
		logger.Warnf("base stats are empty; run prep without -percentiles-only first")
	}
	run := &model.Run{ID: uuid.NewString(), ExportPath: recomputeSource, StartedAt: time.Now().UTC()}
	if err := p.store.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("pipeline.RecomputePercentiles start: %w", err)
	}
	res := &Result{RunID: run.ID}
	if err := p.finish(ctx, run.ID, base, stats.ExclusionSet(opts.ExcludedUserIDs), res); err != nil {
		return nil, err
	}
	return res, nil
}

// finish — перцентили, final stats, рейтинг, закрытие прогона и сброс кеша.
func (p *Pipeline) finish(ctx context.Context, runID string, base []model.BaseStats, excluded map[string]struct{}, res *Result) error {
	stage := time.Now()
	table := stats.BuildPercentileTable(base, excluded)
	reports := stats.AssignPercentiles(base, table)
	observe("percentiles", stage)
	if table.Population() == 0 {
		logger.Warnf("no active users: every percentile falls back to the zero correction")
	}

	stage = time.Now()
	if err := p.store.SaveReports(ctx, runID, reports); err != nil {
		return fmt.Errorf("pipeline: save reports: %w", err)
	}
	observe("save_reports", stage)

	res.Users = len(reports)
	res.Population = table.Population()
	res.Leaderboard = stats.BuildLeaderboard(base, excluded)
	metrics.PipelineUsers.Set(float64(res.Users))

	if err := p.store.FinishRun(ctx, runID, res.Users, time.Now().UTC()); err != nil {
		return fmt.Errorf("pipeline: finish run: %w", err)
	}
	if p.cache != nil {
		if err := p.cache.Purge(ctx); err != nil {
			logger.Errorf("pipeline: purge report cache: %v", err)
		}
	}
	logger.Infof("run %s: users=%d population=%d", runID, res.Users, res.Population)
	return nil
}

func observe(stage string, start time.Time) {
	metrics.PipelineDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
