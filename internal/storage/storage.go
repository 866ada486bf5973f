package storage

import (
	"context"
	"errors"

	"github.com/mkarpenko/task-tracker/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// TagDelta is the add/remove set computed by the tag reconciler.
// Applying it together with the task row must be atomic.
type TagDelta struct {
	Add    []int64
	Remove []int64
}

func (d TagDelta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

type TaskRepository interface {
	// GetByID returns the task with its tags and assignee name
	// resolved, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Task, error)

	// GetAllFiltered returns tasks matching the filter in primary
	// key order, tags and assignee names resolved.
	GetAllFiltered(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)

	// Insert persists the task and its initial tag associations in
	// one transaction and sets task.ID.
	Insert(ctx context.Context, task *models.Task, tagIDs []int64) error

	// Update persists the task fields and applies the tag delta in
	// one transaction. Returns ErrNotFound if the row is gone.
	Update(ctx context.Context, task *models.Task, delta TagDelta) error

	// Delete removes the task and all its tag associations in one
	// transaction. Reports whether a task existed to delete.
	Delete(ctx context.Context, id int64) (bool, error)
}

type UserRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	GetAll(ctx context.Context) ([]models.User, error)

	// Insert persists the user and sets user.ID. Returns ErrConflict
	// when the email is already taken.
	Insert(ctx context.Context, user *models.User) error
}

type TagRepository interface {
	// Exist returns the subset of ids that resolve to stored tags.
	Exist(ctx context.Context, ids []int64) ([]int64, error)
}
