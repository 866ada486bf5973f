package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkarpenko/task-tracker/internal/models"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrConflict is reserved for concurrency control. No current
	// rule returns it for tasks; concurrent updates to the same
	// task id race under last-write-wins.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports a rejected field value or a referential
// integrity failure. It is always detected before any persistence
// write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a validation failure, as
// opposed to a missing entity or an infrastructure error.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

type TaskService interface {
	// CreateTask validates all supplied fields, persists a task with
	// status New, no completion timestamp and creation time set to
	// now, and attaches the requested tags. Nothing is persisted on
	// a validation failure.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTaskByID returns the task with tags and assignee resolved,
	// or ErrTaskNotFound.
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)

	// GetTasks returns tasks narrowed by the query. An unparsable
	// status string imposes no status constraint.
	GetTasks(ctx context.Context, query TaskQuery) ([]models.Task, error)

	// UpdateTask applies a partial update: nil fields are no-ops,
	// not resets. All validations run before any write; the field
	// changes and the tag delta commit atomically.
	//
	// Moving into status Done sets the completion timestamp; moving
	// out of Done clears it; any other update leaves it untouched.
	UpdateTask(ctx context.Context, id int64, params UpdateTaskParams) (*models.Task, error)

	// ChangeTaskStatus is UpdateTask narrowed to the status field.
	// An unknown status value yields a *ValidationError, which
	// callers can tell apart from ErrTaskNotFound and hard errors.
	ChangeTaskStatus(ctx context.Context, id int64, newStatus string) (*models.Task, error)

	// DeleteTask removes the task and its tag associations
	// atomically. Reports whether a task existed to delete.
	DeleteTask(ctx context.Context, id int64) (bool, error)

	// GetOverdueTasks returns tasks whose due date has passed and
	// that are not done.
	GetOverdueTasks(ctx context.Context) ([]models.Task, error)

	// CountTasksByStatus returns the number of tasks stored with the
	// given status. Unlike filtering, an unknown status here is a
	// *ValidationError.
	CountTasksByStatus(ctx context.Context, status string) (int, error)
}

type UserService interface {
	GetUsers(ctx context.Context) ([]models.User, error)

	// CreateUser returns ErrUserAlreadyExists when the email is
	// already taken.
	CreateUser(ctx context.Context, name, email string) (*models.User, error)
}

type ReportService interface {
	// StatusSummary counts tasks per stored status plus the derived
	// overdue count.
	StatusSummary(ctx context.Context) (*StatusSummary, error)

	// OverdueTasksByAssignee groups overdue tasks by assignee name.
	OverdueTasksByAssignee(ctx context.Context) (map[string][]models.Task, error)

	// AverageCompletionDays is the mean time from creation to
	// completion over done tasks, in days. Nil when no task has
	// completed yet.
	AverageCompletionDays(ctx context.Context) (*float64, error)
}

type CreateTaskParams struct {
	Title       string
	Description string
	AssigneeID  int64
	DueDate     time.Time
	// Priority defaults to models.PriorityMedium when empty.
	Priority string
	TagIDs   []int64
}

type UpdateTaskParams struct {
	Title       *string
	Description *string
	AssigneeID  *int64
	DueDate     *time.Time
	Status      *string
	Priority    *string
	// TagIDs nil leaves the tag set untouched. A non-nil value
	// replaces the whole set; pointing at an empty list clears it.
	TagIDs *[]int64
}

type TaskQuery struct {
	// Status is the raw string from the caller; values that do not
	// parse to a known status are ignored.
	Status     string
	AssigneeID *int64
	DueBefore  *time.Time
	DueAfter   *time.Time
	TagIDs     []int64
}

type StatusSummary struct {
	New        int `json:"new"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}
