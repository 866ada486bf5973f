package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarpenko/task-tracker/internal/models"
	"github.com/mkarpenko/task-tracker/internal/storage"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	tasks  storage.TaskRepository
	users  storage.UserRepository
	tags   storage.TagRepository
	now    func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	tasks storage.TaskRepository,
	users storage.UserRepository,
	tags storage.TagRepository,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		tasks:  tasks,
		users:  users,
		tags:   tags,
		now:    time.Now,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := s.now()

	priority := params.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	err := validateTitle(params.Title)
	if err == nil {
		err = validatePriority(priority)
	}
	if err == nil {
		err = validateDueDate(params.DueDate, now)
	}
	if err == nil {
		err = s.validateAssignee(ctx, params.AssigneeID)
	}
	tagIDs := dedupeTagIDs(params.TagIDs)
	if err == nil {
		err = s.validateTags(ctx, tagIDs)
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("rejected task creation")
		return nil, err
	}

	task := &models.Task{
		Title:       params.Title,
		Description: params.Description,
		AssigneeID:  params.AssigneeID,
		CreatedAt:   now,
		DueDate:     params.DueDate,
		CompletedAt: nil,
		Status:      models.StatusNew,
		Priority:    priority,
	}

	err = s.tasks.Insert(ctx, task, tagIDs)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("created task")

	return s.getResolved(ctx, task.ID)
}

func (s *taskServiceImpl) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	return s.getResolved(ctx, id)
}

func (s *taskServiceImpl) GetTasks(ctx context.Context, query TaskQuery) ([]models.Task, error) {
	filter := models.TaskFilter{
		AssigneeID: query.AssigneeID,
		DueBefore:  query.DueBefore,
		DueAfter:   query.DueAfter,
		TagIDs:     dedupeTagIDs(query.TagIDs),
	}
	// An unparsable status narrows nothing; strict callers
	// pre-validate with CountTasksByStatus semantics.
	if models.ValidStatus(query.Status) {
		status := query.Status
		filter.Status = &status
	}

	tasks, err := s.tasks.GetAllFiltered(ctx, filter)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("listed tasks")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, id int64, params UpdateTaskParams) (*models.Task, error) {
	task, err := s.getResolved(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate every supplied field before touching the task, so a
	// late rejection cannot leave a partial write behind.
	if params.Title != nil {
		err = validateTitle(*params.Title)
		if err != nil {
			return nil, err
		}
	}
	if params.AssigneeID != nil {
		err = s.validateAssignee(ctx, *params.AssigneeID)
		if err != nil {
			return nil, err
		}
	}
	if params.DueDate != nil {
		err = validateDueDate(*params.DueDate, task.CreatedAt)
		if err != nil {
			return nil, err
		}
	}
	if params.Status != nil {
		err = validateStatus(*params.Status)
		if err != nil {
			return nil, err
		}
	}
	if params.Priority != nil {
		err = validatePriority(*params.Priority)
		if err != nil {
			return nil, err
		}
	}

	var delta storage.TagDelta
	if params.TagIDs != nil {
		desired := dedupeTagIDs(*params.TagIDs)
		delta = tagDelta(task.TagIDs(), desired)
		// Unknown ids fail the whole reconciliation; only the ids
		// being attached need resolving.
		err = s.validateTags(ctx, delta.Add)
		if err != nil {
			return nil, err
		}
	}

	updated := *task
	if params.Title != nil {
		updated.Title = *params.Title
	}
	if params.Description != nil {
		updated.Description = *params.Description
	}
	if params.AssigneeID != nil {
		updated.AssigneeID = *params.AssigneeID
	}
	if params.DueDate != nil {
		updated.DueDate = *params.DueDate
	}
	if params.Status != nil {
		s.applyStatus(&updated, *params.Status)
	}
	if params.Priority != nil {
		updated.Priority = *params.Priority
	}

	err = s.tasks.Update(ctx, &updated, delta)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Info().
		Int64("task_id", id).
		Msg("updated task")

	return s.getResolved(ctx, id)
}

func (s *taskServiceImpl) ChangeTaskStatus(ctx context.Context, id int64, newStatus string) (*models.Task, error) {
	task, err := s.getResolved(ctx, id)
	if err != nil {
		return nil, err
	}

	err = validateStatus(newStatus)
	if err != nil {
		return nil, err
	}

	s.applyStatus(task, newStatus)

	err = s.tasks.Update(ctx, task, storage.TagDelta{})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to change task status")
		return nil, err
	}
	s.logger.Info().
		Int64("task_id", id).
		Str("status", newStatus).
		Msg("changed task status")
	return task, nil
}

// applyStatus keeps the status and the completion timestamp coupled:
// the timestamp is present exactly when the status is Done.
func (s *taskServiceImpl) applyStatus(task *models.Task, newStatus string) {
	switch {
	case newStatus == models.StatusDone && task.Status != models.StatusDone:
		completedAt := s.now()
		task.CompletedAt = &completedAt
	case newStatus != models.StatusDone && task.Status == models.StatusDone:
		task.CompletedAt = nil
	}
	task.Status = newStatus
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) (bool, error) {
	existed, err := s.tasks.Delete(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return false, err
	}
	if !existed {
		s.logger.Warn().
			Int64("task_id", id).
			Msg("nothing to delete")
		return false, nil
	}
	s.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return true, nil
}

func (s *taskServiceImpl) GetOverdueTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.tasks.GetAllFiltered(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	overdue := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.IsOverdue(now) {
			overdue = append(overdue, task)
		}
	}
	return overdue, nil
}

func (s *taskServiceImpl) CountTasksByStatus(ctx context.Context, status string) (int, error) {
	err := validateStatus(status)
	if err != nil {
		return 0, err
	}

	tasks, err := s.tasks.GetAllFiltered(ctx, models.TaskFilter{Status: &status})
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func (s *taskServiceImpl) getResolved(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Int64("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task")
		return nil, err
	}
	return task, nil
}
