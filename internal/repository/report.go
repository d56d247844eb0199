package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"
)

// ReportRepository — хранилище base stats и final stats в Postgres.
type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Close ничего не делает: пулом владеет вызывающий.
func (r *ReportRepository) Close() error { return nil }

func (r *ReportRepository) StartRun(ctx context.Context, run *model.Run) error {
	defer logger.DeferLogDuration("report.StartRun", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wrapped_runs (id, export_path, started_at, users) VALUES ($1, $2, $3, $4)`,
		run.ID, run.ExportPath, run.StartedAt, run.Users,
	)
	if err != nil {
		return fmt.Errorf("reportRepo.StartRun: %w", err)
	}
	return nil
}

func (r *ReportRepository) FinishRun(ctx context.Context, runID string, users int, finishedAt time.Time) error {
	defer logger.DeferLogDuration("report.FinishRun", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE wrapped_runs SET finished_at = $2, users = $3 WHERE id = $1`,
		runID, finishedAt, users,
	)
	if err != nil {
		return fmt.Errorf("reportRepo.FinishRun: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reportRepo.FinishRun %s: %w", runID, storage.ErrNotFound)
	}
	return nil
}

func (r *ReportRepository) LatestRun(ctx context.Context) (*model.Run, error) {
	defer logger.DeferLogDuration("report.LatestRun", time.Now())()
	run := &model.Run{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, export_path, started_at, finished_at, users
		 FROM wrapped_runs
		 ORDER BY started_at DESC
		 LIMIT 1`,
	).Scan(&run.ID, &run.ExportPath, &run.StartedAt, &run.FinishedAt, &run.Users)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reportRepo.LatestRun: %w", err)
	}
	return run, nil
}

// SaveBaseStats заменяет содержимое base_stats одной транзакцией (DELETE + batch INSERT).
func (r *ReportRepository) SaveBaseStats(ctx context.Context, runID string, stats []model.BaseStats) error {
	defer logger.DeferLogDuration("report.SaveBaseStats", time.Now())()
	batch := &pgx.Batch{}
	for i := range stats {
		b := &stats[i]
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("reportRepo.SaveBaseStats encode %s: %w", b.UserID, err)
		}
		batch.Queue(
			`INSERT INTO base_stats (user_id, run_id, position, threads_started, replies, engagement_received, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
			b.UserID, runID, i, b.ThreadsStarted, b.Replies, b.EngagementReceived, string(data),
		)
	}
	if err := r.replace(ctx, "base_stats", batch); err != nil {
		return fmt.Errorf("reportRepo.SaveBaseStats: %w", err)
	}
	return nil
}

func (r *ReportRepository) LoadBaseStats(ctx context.Context) ([]model.BaseStats, error) {
	defer logger.DeferLogDuration("report.LoadBaseStats", time.Now())()
	rows, err := r.pool.Query(ctx, `SELECT data FROM base_stats ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reportRepo.LoadBaseStats query: %w", err)
	}
	defer rows.Close()

	out := make([]model.BaseStats, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("reportRepo.LoadBaseStats scan: %w", err)
		}
		var b model.BaseStats
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("reportRepo.LoadBaseStats decode: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reportRepo.LoadBaseStats rows: %w", err)
	}
	return out, nil
}

// SaveReports заменяет содержимое final_reports одной транзакцией.
func (r *ReportRepository) SaveReports(ctx context.Context, runID string, reports []model.FinalReport) error {
	defer logger.DeferLogDuration("report.SaveReports", time.Now())()
	batch := &pgx.Batch{}
	for i := range reports {
		rep := &reports[i]
		data, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("reportRepo.SaveReports encode %s: %w", rep.UserID, err)
		}
		batch.Queue(
			`INSERT INTO final_reports (user_id, run_id, position, threads_started_percentile, replies_percentile,
			        engagement_received_percentile, is_active, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)`,
			rep.UserID, runID, i, rep.ThreadsStartedPercentile, rep.RepliesPercentile,
			rep.EngagementReceivedPercentile, rep.IsActive, string(data),
		)
	}
	if err := r.replace(ctx, "final_reports", batch); err != nil {
		return fmt.Errorf("reportRepo.SaveReports: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetReport(ctx context.Context, userID string) (*model.FinalReport, error) {
	defer logger.DeferLogDuration("report.GetReport", time.Now())()
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM final_reports WHERE user_id = $1`, userID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reportRepo.GetReport: %w", err)
	}
	rep := &model.FinalReport{}
	if err := json.Unmarshal(data, rep); err != nil {
		return nil, fmt.Errorf("reportRepo.GetReport decode: %w", err)
	}
	return rep, nil
}

func (r *ReportRepository) replace(ctx context.Context, table string, batch *pgx.Batch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert %s #%d: %w", table, i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("batch %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}
