package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wrapped/internal/config"
	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/repository"
	"github.com/wrapped/internal/storage"
	"github.com/wrapped/internal/storage/memory"
	"github.com/wrapped/internal/storage/sqlite"
)

// OpenStore открывает хранилище отчётов по cfg.StoreDriver. Для Postgres ждёт БД
// с повторами и применяет миграции; возвращаемый cleanup закрывает пул.
func OpenStore(cfg *config.Config, logPrefix string) (storage.ReportStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Infof("%sreport store: memory (данные не переживут перезапуск)", logPrefix)
		s := memory.NewStore()
		return s, func() { s.Close() }, nil
	case config.StoreSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Errorf("%ssqlite close: %v", logPrefix, err)
			}
		}, nil
	default:
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("parse db config: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.DBMaxConnections())
		pool := ConnectDBWithRetry(poolCfg, 60*time.Second, logPrefix)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Infof("%sdatabase connected, migrations applied", logPrefix)
		return repository.NewReportRepository(pool), pool.Close, nil
	}
}

// OpenCache возвращает Redis-кеш, если задан REDIS_URL, иначе кеш в памяти процесса.
func OpenCache(cfg *config.Config, logPrefix string) storage.ReportCache {
	if cfg.Redis.URL == "" {
		return memory.NewCache(cfg.Cache.TTL())
	}
	return ConnectRedisWithRetry(cfg.Redis.URL, cfg.Cache.TTL(), 60*time.Second, logPrefix)
}
