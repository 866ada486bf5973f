package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mkarpenko/task-tracker/internal/models"
	"github.com/mkarpenko/task-tracker/internal/storage"
)

type TaskStorage struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskStorage(logger zerolog.Logger, pgPool *pgxpool.Pool) *TaskStorage {
	return &TaskStorage{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectTaskByIDQuery = `
SELECT t.id,
       t.title,
       t.description,
       t.assignee_id,
       u.name,
       t.created_at,
       t.due_date,
       t.completed_at,
       t.status,
       t.priority
FROM tasks t
JOIN users u ON u.id = t.assignee_id
WHERE t.id = $1
`

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{ID: id}
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		id,
	).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.AssigneeID,
		&task.AssigneeName,
		&task.CreatedAt,
		&task.DueDate,
		&task.CompletedAt,
		&task.Status,
		&task.Priority,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task by id")
		return nil, err
	}

	task.Tags, err = s.selectTaskTags(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", id).
		Msg("selected task by id")
	return task, nil
}

const selectTaskTagsQuery = `
SELECT tg.id,
       tg.name
FROM task_tags tt
JOIN tags tg ON tg.id = tt.tag_id
WHERE tt.task_id = $1
ORDER BY tg.id
`

func (s *TaskStorage) selectTaskTags(ctx context.Context, taskID int64) ([]models.Tag, error) {
	rows, err := s.pgPool.Query(ctx, selectTaskTagsQuery, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task tags")
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		err = rows.Scan(&tag.ID, &tag.Name)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan tag")
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

const selectTasksBaseQuery = `
SELECT t.id,
       t.title,
       t.description,
       t.assignee_id,
       u.name,
       t.created_at,
       t.due_date,
       t.completed_at,
       t.status,
       t.priority
FROM tasks t
JOIN users u ON u.id = t.assignee_id
`

// buildFilterQuery composes the conjunctive WHERE clause from the
// supplied criteria. Omitted criteria add no condition; the tag
// criterion matches tasks carrying at least one listed tag.
func buildFilterQuery(filter models.TaskFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		conds = append(conds, "t.status = "+arg(*filter.Status))
	}
	if filter.AssigneeID != nil {
		conds = append(conds, "t.assignee_id = "+arg(*filter.AssigneeID))
	}
	if filter.DueBefore != nil {
		conds = append(conds, "t.due_date <= "+arg(*filter.DueBefore))
	}
	if filter.DueAfter != nil {
		conds = append(conds, "t.due_date >= "+arg(*filter.DueAfter))
	}
	if len(filter.TagIDs) > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM task_tags tt WHERE tt.task_id = t.id AND tt.tag_id = ANY("+arg(filter.TagIDs)+"))")
	}

	query := selectTasksBaseQuery
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	query += "ORDER BY t.id"
	return query, args
}

func (s *TaskStorage) GetAllFiltered(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query, args := buildFilterQuery(filter)
	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.AssigneeID,
			&task.AssigneeName,
			&task.CreatedAt,
			&task.DueDate,
			&task.CompletedAt,
			&task.Status,
			&task.Priority,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	err = s.attachTags(ctx, tasks)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")
	return tasks, nil
}

const selectTagsForTasksQuery = `
SELECT tt.task_id,
       tg.id,
       tg.name
FROM task_tags tt
JOIN tags tg ON tg.id = tt.tag_id
WHERE tt.task_id = ANY($1)
ORDER BY tt.task_id, tg.id
`

func (s *TaskStorage) attachTags(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]int64, len(tasks))
	index := make(map[int64]*models.Task, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		index[tasks[i].ID] = &tasks[i]
	}

	rows, err := s.pgPool.Query(ctx, selectTagsForTasksQuery, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tags for tasks")
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			taskID int64
			tag    models.Tag
		)
		err = rows.Scan(&taskID, &tag.ID, &tag.Name)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan tag")
			return err
		}
		if task, ok := index[taskID]; ok {
			task.Tags = append(task.Tags, tag)
		}
	}
	return rows.Err()
}

const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   assignee_id,
                   created_at,
                   due_date,
                   completed_at,
                   status,
                   priority)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`

const insertTaskTagQuery = `
INSERT INTO task_tags (task_id, tag_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (s *TaskStorage) Insert(ctx context.Context, task *models.Task, tagIDs []int64) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		task.AssigneeID,
		task.CreatedAt,
		task.DueDate,
		task.CompletedAt,
		task.Status,
		task.Priority,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return err
	}

	for _, tagID := range tagIDs {
		_, err = tx.Exec(ctx, insertTaskTagQuery, task.ID, tagID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Int64("tag_id", tagID).
				Msg("failed to insert task tag")
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")
	return nil
}

const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    assignee_id = $3,
    due_date = $4,
    completed_at = $5,
    status = $6,
    priority = $7
WHERE id = $8
`

const deleteTaskTagsQuery = `
DELETE FROM task_tags
WHERE task_id = $1 AND tag_id = ANY($2)
`

func (s *TaskStorage) Update(ctx context.Context, task *models.Task, delta storage.TagDelta) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.AssigneeID,
		task.DueDate,
		task.CompletedAt,
		task.Status,
		task.Priority,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if len(delta.Remove) > 0 {
		_, err = tx.Exec(ctx, deleteTaskTagsQuery, task.ID, delta.Remove)
		if err != nil {
			s.logger.Error().
				Err(err).
				Int64("task_id", task.ID).
				Msg("failed to delete task tags")
			return err
		}
	}
	for _, tagID := range delta.Add {
		_, err = tx.Exec(ctx, insertTaskTagQuery, task.ID, tagID)
		if err != nil {
			s.logger.Error().
				Err(err).
				Int64("tag_id", tagID).
				Msg("failed to insert task tag")
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("updated task")
	return nil
}

const deleteAllTaskTagsQuery = `
DELETE FROM task_tags
WHERE task_id = $1
`

const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`

func (s *TaskStorage) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, deleteAllTaskTagsQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task tags")
		return false, err
	}

	tag, err := tx.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return false, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return false, err
	}

	existed := tag.RowsAffected() > 0
	s.logger.Debug().
		Int64("task_id", id).
		Bool("existed", existed).
		Msg("deleted task")
	return existed, nil
}
