package services

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mkarpenko/task-tracker/internal/models"
)

const (
	titleMinLen = 3
	titleMaxLen = 200
)

// Field rules are pure and independently checked; existence checks go
// through the injected repositories and never mutate storage.

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < titleMinLen || n > titleMaxLen {
		return newValidationError("invalid title length: must be %d to %d characters", titleMinLen, titleMaxLen)
	}
	return nil
}

// validateDueDate compares against the task's creation time, both on
// create and on update. "Now" is never the reference point.
func validateDueDate(dueDate, createdAt time.Time) error {
	if dueDate.Before(createdAt) {
		return newValidationError("due date before creation date")
	}
	return nil
}

func validatePriority(priority string) error {
	if !models.ValidPriority(priority) {
		return newValidationError("invalid priority: %s", priority)
	}
	return nil
}

func validateStatus(status string) error {
	if !models.ValidStatus(status) {
		return newValidationError("invalid status: %s", status)
	}
	return nil
}

func (s *taskServiceImpl) validateAssignee(ctx context.Context, id int64) error {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return newValidationError("assignee not found: %d", id)
	}
	return nil
}

// validateTags resolves every id and names all missing ones, not just
// the first.
func (s *taskServiceImpl) validateTags(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	found, err := s.tags.Exist(ctx, ids)
	if err != nil {
		return err
	}

	foundSet := make(map[int64]struct{}, len(found))
	for _, id := range found {
		foundSet[id] = struct{}{}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
	}
	if len(missing) > 0 {
		return newValidationError("tags not found: %s", strings.Join(missing, ", "))
	}
	return nil
}
