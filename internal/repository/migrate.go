package repository

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wrapped/internal/logger"
	"github.com/wrapped/migrations"
)

// Migrate применяет встроенные миграции по порядку имён. Все миграции идемпотентны
// (IF NOT EXISTS), поэтому повторный запуск безопасен.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	defer logger.DeferLogDuration("repo.Migrate", time.Now())()
	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		return fmt.Errorf("repo.Migrate glob: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("repo.Migrate read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("repo.Migrate run %s: %w", name, err)
		}
	}
	logger.Infof("migrations applied: %d", len(names))
	return nil
}
