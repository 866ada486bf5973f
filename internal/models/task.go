package models

import "time"

const (
	StatusNew        = "New"
	StatusInProgress = "InProgress"
	StatusDone       = "Done"

	// StatusOverdue is display-only. It is never stored; the
	// classifier derives it from the stored status and due date.
	StatusOverdue = "Overdue"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// ValidStatus reports whether s is one of the three stored statuses.
// StatusOverdue is intentionally not accepted.
func ValidStatus(s string) bool {
	return s == StatusNew || s == StatusInProgress || s == StatusDone
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	ID           int64
	Title        string
	Description  string
	AssigneeID   int64
	AssigneeName string
	CreatedAt    time.Time
	DueDate      time.Time
	CompletedAt  *time.Time
	Status       string
	Priority     string
	Tags         []Tag
}

// IsOverdue compares the due date against the exact reference
// instant. A task due precisely at now is not overdue yet, and a
// done task is never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusDone && t.DueDate.Before(now)
}

// EffectiveStatus is the display status: StatusOverdue when the task
// is overdue, the stored status otherwise.
func (t *Task) EffectiveStatus(now time.Time) string {
	if t.IsOverdue(now) {
		return StatusOverdue
	}
	return t.Status
}

func (t *Task) TagIDs() []int64 {
	if len(t.Tags) == 0 {
		return nil
	}
	ids := make([]int64, len(t.Tags))
	for i, tag := range t.Tags {
		ids[i] = tag.ID
	}
	return ids
}

func (t *Task) TagNames() []string {
	names := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		names[i] = tag.Name
	}
	return names
}

// TaskFilter narrows a task listing. Nil fields impose no constraint;
// supplied fields combine with AND. TagIDs matches tasks carrying at
// least one of the listed tags. Both due bounds are inclusive.
type TaskFilter struct {
	Status     *string
	AssigneeID *int64
	DueBefore  *time.Time
	DueAfter   *time.Time
	TagIDs     []int64
}
