// Package sqlite хранит base stats и final stats в одном файле SQLite (STORE_DRIVER=sqlite).
// Отчёты лежат JSON-колонкой, рядом — скалярные поля для выборок и порядок сохранения.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"

	_ "modernc.org/sqlite"
)

// Фиксированная ширина: строки сортируются так же, как время.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// New открывает (или создаёт) базу по пути dbPath и применяет схему.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// Одна запись за раз: SQLite всё равно сериализует писателей.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	logger.Infof("sqlite: opened %s", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wrapped_runs (
		id TEXT PRIMARY KEY,
		export_path TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		users INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS base_stats (
		user_id TEXT PRIMARY KEY,
		run_id TEXT,
		position INTEGER NOT NULL,
		threads_started INTEGER NOT NULL,
		replies INTEGER NOT NULL,
		engagement_received INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS final_reports (
		user_id TEXT PRIMARY KEY,
		run_id TEXT,
		position INTEGER NOT NULL,
		threads_started_percentile INTEGER NOT NULL,
		replies_percentile INTEGER NOT NULL,
		engagement_received_percentile INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON wrapped_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_base_stats_position ON base_stats(position);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) StartRun(ctx context.Context, run *model.Run) error {
	defer logger.DeferLogDuration("sqlite.StartRun", time.Now())()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wrapped_runs (id, export_path, started_at, users) VALUES (?, ?, ?, ?)`,
		run.ID, run.ExportPath, run.StartedAt.UTC().Format(timeLayout), run.Users)
	if err != nil {
		return fmt.Errorf("sqlite.StartRun: %w", err)
	}
	return nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, users int, finishedAt time.Time) error {
	defer logger.DeferLogDuration("sqlite.FinishRun", time.Now())()
	res, err := s.db.ExecContext(ctx,
		`UPDATE wrapped_runs SET finished_at = ?, users = ? WHERE id = ?`,
		finishedAt.UTC().Format(timeLayout), users, runID)
	if err != nil {
		return fmt.Errorf("sqlite.FinishRun: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite.FinishRun %s: %w", runID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) LatestRun(ctx context.Context) (*model.Run, error) {
	var (
		run      model.Run
		started  string
		finished sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, export_path, started_at, finished_at, users FROM wrapped_runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.ExportPath, &started, &finished, &run.Users)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.LatestRun: %w", err)
	}
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("sqlite.LatestRun started_at: %w", err)
	}
	if finished.Valid {
		t, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return nil, fmt.Errorf("sqlite.LatestRun finished_at: %w", err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}

func (s *Store) SaveBaseStats(ctx context.Context, runID string, stats []model.BaseStats) error {
	defer logger.DeferLogDuration("sqlite.SaveBaseStats", time.Now())()
	return s.replace(ctx, "base_stats", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO base_stats (user_id, run_id, position, threads_started, replies, engagement_received, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := range stats {
			b := &stats[i]
			data, err := json.Marshal(b)
			if err != nil {
				return fmt.Errorf("encode %s: %w", b.UserID, err)
			}
			if _, err := stmt.ExecContext(ctx, b.UserID, runID, i, b.ThreadsStarted, b.Replies, b.EngagementReceived, string(data)); err != nil {
				return fmt.Errorf("insert %s: %w", b.UserID, err)
			}
		}
		return nil
	})
}

func (s *Store) LoadBaseStats(ctx context.Context) ([]model.BaseStats, error) {
	defer logger.DeferLogDuration("sqlite.LoadBaseStats", time.Now())()
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM base_stats ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("sqlite.LoadBaseStats query: %w", err)
	}
	defer rows.Close()
	out := make([]model.BaseStats, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite.LoadBaseStats scan: %w", err)
		}
		var b model.BaseStats
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, fmt.Errorf("sqlite.LoadBaseStats decode: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) SaveReports(ctx context.Context, runID string, reports []model.FinalReport) error {
	defer logger.DeferLogDuration("sqlite.SaveReports", time.Now())()
	return s.replace(ctx, "final_reports", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO final_reports (user_id, run_id, position, threads_started_percentile, replies_percentile,
			        engagement_received_percentile, is_active, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := range reports {
			r := &reports[i]
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode %s: %w", r.UserID, err)
			}
			if _, err := stmt.ExecContext(ctx, r.UserID, runID, i, r.ThreadsStartedPercentile, r.RepliesPercentile,
				r.EngagementReceivedPercentile, r.IsActive, string(data)); err != nil {
				return fmt.Errorf("insert %s: %w", r.UserID, err)
			}
		}
		return nil
	})
}

func (s *Store) GetReport(ctx context.Context, userID string) (*model.FinalReport, error) {
	defer logger.DeferLogDuration("sqlite.GetReport", time.Now())()
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM final_reports WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.GetReport: %w", err)
	}
	var r model.FinalReport
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("sqlite.GetReport decode: %w", err)
	}
	return &r, nil
}

// replace очищает table и заполняет её fill в одной транзакции.
func (s *Store) replace(ctx context.Context, table string, fill func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin %s: %w", table, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("sqlite: clear %s: %w", table, err)
	}
	if err := fill(tx); err != nil {
		return fmt.Errorf("sqlite: fill %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit %s: %w", table, err)
	}
	return nil
}
