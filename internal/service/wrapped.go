package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/metrics"
	"github.com/wrapped/internal/middleware"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/stats"
	"github.com/wrapped/internal/storage"
)

var (
	ErrNoData        = errors.New("no data")
	ErrInvalidUserID = errors.New("invalid user id")
)

// maxUserIDLen — больше не бывает ни в выгрузке, ни в ключах хранилища.
const maxUserIDLen = 256

// WrappedService отвечает на запросы «id пользователя → отчёт | нет данных».
// Читает через кеш; промах кеша идёт в хранилище и прогревает кеш.
type WrappedService struct {
	store    storage.ReportStore
	cache    storage.ReportCache
	excluded map[string]struct{}
}

func NewWrappedService(store storage.ReportStore, cache storage.ReportCache, excludedUserIDs []string) *WrappedService {
	return &WrappedService{store: store, cache: cache, excluded: stats.ExclusionSet(excludedUserIDs)}
}

// ValidUserID отсекает то, что не может быть ключом хранилища: пустой id, слишком
// длинный, невалидный UTF-8 или с управляющими символами. Любой id из выгрузки проходит.
func ValidUserID(userID string) bool {
	if userID == "" || len(userID) > maxUserIDLen || !utf8.ValidString(userID) {
		return false
	}
	for _, r := range userID {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Report возвращает итоговый отчёт пользователя или ErrNoData.
func (s *WrappedService) Report(ctx context.Context, userID string) (*model.FinalReport, error) {
	defer logger.DeferLogDuration("wrapped.Report", time.Now())()
	if !ValidUserID(userID) {
		return nil, ErrInvalidUserID
	}
	if s.cache != nil {
		rep, err := s.cache.GetReport(ctx, userID)
		if err == nil {
			metrics.CacheHits.Inc()
			return rep, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Errorf("wrapped.Report cache get %s: %v", middleware.MaskUserID(userID), err)
		}
	}
	rep, err := s.store.GetReport(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("wrapped.Report: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetReport(ctx, rep); err != nil {
			logger.Errorf("wrapped.Report cache set %s: %v", middleware.MaskUserID(userID), err)
		}
	}
	return rep, nil
}

// Leaderboard строит рейтинг по сохранённым base stats (с кешем).
func (s *WrappedService) Leaderboard(ctx context.Context) (*model.Leaderboard, error) {
	defer logger.DeferLogDuration("wrapped.Leaderboard", time.Now())()
	if s.cache != nil {
		if lb, err := s.cache.GetLeaderboard(ctx); err == nil {
			metrics.CacheHits.Inc()
			return lb, nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			logger.Errorf("wrapped.Leaderboard cache get: %v", err)
		}
	}
	base, err := s.store.LoadBaseStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("wrapped.Leaderboard: %w", err)
	}
	lb := stats.BuildLeaderboard(base, s.excluded)
	if s.cache != nil {
		if err := s.cache.SetLeaderboard(ctx, &lb); err != nil {
			logger.Errorf("wrapped.Leaderboard cache set: %v", err)
		}
	}
	return &lb, nil
}

// LatestRun — последний прогон пайплайна; ErrNoData, если прогонов не было.
func (s *WrappedService) LatestRun(ctx context.Context) (*model.Run, error) {
	run, err := s.store.LatestRun(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("wrapped.LatestRun: %w", err)
	}
	return run, nil
}
