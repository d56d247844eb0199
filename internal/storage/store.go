package storage

import (
	"context"
	"errors"
	"time"

	"github.com/wrapped/internal/model"
)

// ErrNotFound — для пользователя нет отчёта (или запись кеша отсутствует/протухла).
var ErrNotFound = errors.New("not found")

// ReportStore — хранилище base stats и final stats, ключ — id пользователя.
// Реализации: repository.ReportRepository (Postgres), sqlite.Store, memory.Store (для -dev и тестов).
//
// SaveBaseStats и SaveReports целиком заменяют содержимое своего хранилища;
// Load/List возвращают записи в том порядке, в котором они были сохранены.
type ReportStore interface {
	StartRun(ctx context.Context, run *model.Run) error
	FinishRun(ctx context.Context, runID string, users int, finishedAt time.Time) error
	LatestRun(ctx context.Context) (*model.Run, error)
	SaveBaseStats(ctx context.Context, runID string, stats []model.BaseStats) error
	LoadBaseStats(ctx context.Context) ([]model.BaseStats, error)
	SaveReports(ctx context.Context, runID string, reports []model.FinalReport) error
	GetReport(ctx context.Context, userID string) (*model.FinalReport, error)
	Close() error
}

// ReportCache — кеш готовых отчётов перед ReportStore.
// Реализации: redis.Client, memory.Cache (без Redis). Промах — ErrNotFound.
type ReportCache interface {
	GetReport(ctx context.Context, userID string) (*model.FinalReport, error)
	SetReport(ctx context.Context, r *model.FinalReport) error
	GetLeaderboard(ctx context.Context) (*model.Leaderboard, error)
	SetLeaderboard(ctx context.Context, lb *model.Leaderboard) error
	// Purge сбрасывает все записи (после нового прогона пайплайна).
	Purge(ctx context.Context) error
	Close() error
}
