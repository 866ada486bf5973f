package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarpenko/task-tracker/internal/models"
	"github.com/mkarpenko/task-tracker/internal/storage"
)

type reportServiceImpl struct {
	logger zerolog.Logger
	tasks  storage.TaskRepository
	now    func() time.Time
}

func NewReportService(logger zerolog.Logger, tasks storage.TaskRepository) ReportService {
	return &reportServiceImpl{
		logger: logger,
		tasks:  tasks,
		now:    time.Now,
	}
}

func (s *reportServiceImpl) StatusSummary(ctx context.Context) (*StatusSummary, error) {
	tasks, err := s.tasks.GetAllFiltered(ctx, models.TaskFilter{})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to load tasks for status summary")
		return nil, err
	}

	now := s.now()
	summary := &StatusSummary{}
	for i := range tasks {
		task := &tasks[i]
		switch task.Status {
		case models.StatusNew:
			summary.New++
		case models.StatusInProgress:
			summary.InProgress++
		case models.StatusDone:
			summary.Done++
		}
		// Overdue overlaps the stored-status counts: an overdue task
		// still counts under New or InProgress.
		if task.IsOverdue(now) {
			summary.Overdue++
		}
	}
	return summary, nil
}

func (s *reportServiceImpl) OverdueTasksByAssignee(ctx context.Context) (map[string][]models.Task, error) {
	tasks, err := s.tasks.GetAllFiltered(ctx, models.TaskFilter{})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to load tasks for overdue report")
		return nil, err
	}

	now := s.now()
	grouped := make(map[string][]models.Task)
	for _, task := range tasks {
		if task.IsOverdue(now) {
			grouped[task.AssigneeName] = append(grouped[task.AssigneeName], task)
		}
	}
	return grouped, nil
}

func (s *reportServiceImpl) AverageCompletionDays(ctx context.Context) (*float64, error) {
	tasks, err := s.tasks.GetAllFiltered(ctx, models.TaskFilter{})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to load tasks for completion report")
		return nil, err
	}

	var (
		total time.Duration
		count int
	)
	for _, task := range tasks {
		if task.CompletedAt == nil {
			continue
		}
		total += task.CompletedAt.Sub(task.CreatedAt)
		count++
	}
	if count == 0 {
		return nil, nil
	}

	days := total.Hours() / 24 / float64(count)
	return &days, nil
}
