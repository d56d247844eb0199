package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/storage"
)

// Store — ReportStore в памяти: для -dev без БД и для тестов пайплайна.
type Store struct {
	mu      sync.RWMutex
	runs    []model.Run
	base    []model.BaseStats
	reports []model.FinalReport
	index   map[string]int
}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

func (s *Store) Close() error { return nil }

func (s *Store) StartRun(ctx context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, users int, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == runID {
			t := finishedAt
			s.runs[i].FinishedAt = &t
			s.runs[i].Users = users
			return nil
		}
	}
	return fmt.Errorf("memory.FinishRun %s: %w", runID, storage.ErrNotFound)
}

func (s *Store) LatestRun(ctx context.Context) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.runs) == 0 {
		return nil, storage.ErrNotFound
	}
	r := s.runs[len(s.runs)-1]
	return &r, nil
}

func (s *Store) SaveBaseStats(ctx context.Context, runID string, stats []model.BaseStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = append([]model.BaseStats(nil), stats...)
	return nil
}

func (s *Store) LoadBaseStats(ctx context.Context) ([]model.BaseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.BaseStats(nil), s.base...), nil
}

func (s *Store) SaveReports(ctx context.Context, runID string, reports []model.FinalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append([]model.FinalReport(nil), reports...)
	s.index = make(map[string]int, len(reports))
	for i := range s.reports {
		s.index[s.reports[i].UserID] = i
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, userID string) (*model.FinalReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	r := s.reports[i]
	return &r, nil
}
