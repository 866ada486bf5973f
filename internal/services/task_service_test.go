package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpenko/task-tracker/internal/models"
	"github.com/mkarpenko/task-tracker/internal/storage"
)

// fakeStore is an in-memory stand-in for the three repositories. Its
// filtering mirrors the SQL composer's semantics so service behavior
// can be exercised end to end without a database.
type fakeStore struct {
	tasks      map[int64]*models.Task
	taskTags   map[int64][]int64
	users      map[int64]models.User
	tags       map[int64]models.Tag
	nextTaskID int64
	inserted   int
	updated    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:    make(map[int64]*models.Task),
		taskTags: make(map[int64][]int64),
		users:    make(map[int64]models.User),
		tags:     make(map[int64]models.Tag),
	}
}

func (f *fakeStore) resolve(task *models.Task) *models.Task {
	out := *task
	out.Tags = nil
	ids := append([]int64(nil), f.taskTags[task.ID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		out.Tags = append(out.Tags, f.tags[id])
	}
	if user, ok := f.users[task.AssigneeID]; ok {
		out.AssigneeName = user.Name
	}
	return &out
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*models.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return f.resolve(task), nil
}

func (f *fakeStore) GetAllFiltered(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	ids := make([]int64, 0, len(f.tasks))
	for id := range f.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.Task
	for _, id := range ids {
		task := f.resolve(f.tasks[id])
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && task.AssigneeID != *filter.AssigneeID {
			continue
		}
		if filter.DueBefore != nil && task.DueDate.After(*filter.DueBefore) {
			continue
		}
		if filter.DueAfter != nil && task.DueDate.Before(*filter.DueAfter) {
			continue
		}
		if len(filter.TagIDs) > 0 {
			attached := make(map[int64]struct{})
			for _, tagID := range f.taskTags[id] {
				attached[tagID] = struct{}{}
			}
			match := false
			for _, tagID := range filter.TagIDs {
				if _, ok := attached[tagID]; ok {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *task)
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, task *models.Task, tagIDs []int64) error {
	f.nextTaskID++
	task.ID = f.nextTaskID
	stored := *task
	f.tasks[task.ID] = &stored
	f.taskTags[task.ID] = append([]int64(nil), tagIDs...)
	f.inserted++
	return nil
}

func (f *fakeStore) Update(_ context.Context, task *models.Task, delta storage.TagDelta) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return storage.ErrNotFound
	}
	stored := *task
	stored.Tags = nil
	f.tasks[task.ID] = &stored

	removed := make(map[int64]struct{}, len(delta.Remove))
	for _, id := range delta.Remove {
		removed[id] = struct{}{}
	}
	var kept []int64
	for _, id := range f.taskTags[task.ID] {
		if _, ok := removed[id]; !ok {
			kept = append(kept, id)
		}
	}
	f.taskTags[task.ID] = append(kept, delta.Add...)
	f.updated++
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) (bool, error) {
	_, ok := f.tasks[id]
	delete(f.tasks, id)
	delete(f.taskTags, id)
	return ok, nil
}

// fakeUserRepo wraps the store because its Insert signature would
// collide with the task repository's.
type fakeUserRepo struct {
	store *fakeStore
}

func (f fakeUserRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.store.users[id]
	return ok, nil
}

func (f fakeUserRepo) GetAll(_ context.Context) ([]models.User, error) {
	ids := make([]int64, 0, len(f.store.users))
	for id := range f.store.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.store.users[id])
	}
	return out, nil
}

func (f fakeUserRepo) Insert(_ context.Context, user *models.User) error {
	for _, existing := range f.store.users {
		if existing.Email == user.Email {
			return storage.ErrConflict
		}
	}
	user.ID = int64(len(f.store.users) + 1)
	f.store.users[user.ID] = *user
	return nil
}

func (f *fakeStore) Exist(_ context.Context, ids []int64) ([]int64, error) {
	var found []int64
	for _, id := range ids {
		if _, ok := f.tags[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newTestTaskService(store *fakeStore) *taskServiceImpl {
	svc := NewTaskService(zerolog.Nop(), store, fakeUserRepo{store}, store).(*taskServiceImpl)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedStore(store *fakeStore) {
	store.users[1] = models.User{ID: 1, Name: "Alice", Email: "alice@example.com"}
	store.users[2] = models.User{ID: 2, Name: "Bob", Email: "bob@example.com"}
	store.tags[10] = models.Tag{ID: 10, Name: "backend"}
	store.tags[11] = models.Tag{ID: 11, Name: "bug"}
	store.tags[12] = models.Tag{ID: 12, Name: "infra"}
}

func TestTaskService_CreateTask(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task, err := svc.CreateTask(context.Background(), CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
		Priority:   models.PriorityHigh,
		TagIDs:     []int64{10, 11, 10},
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusNew, task.Status)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, testNow, task.CreatedAt)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, "Alice", task.AssigneeName)
	assert.Equal(t, []string{"backend", "bug"}, task.TagNames(), "duplicate tag ids collapse")
}

func TestTaskService_CreateTask_DefaultPriority(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task, err := svc.CreateTask(context.Background(), CreateTaskParams{
		Title:      "Write docs",
		AssigneeID: 1,
		DueDate:    testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, task.Priority)
}

func TestTaskService_CreateTask_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		params  CreateTaskParams
		wantMsg string
	}{
		{
			name: "missing assignee",
			params: CreateTaskParams{
				Title:      "Fix bug",
				AssigneeID: 42,
				DueDate:    testNow.Add(time.Hour),
			},
			wantMsg: "assignee not found: 42",
		},
		{
			name: "title too short",
			params: CreateTaskParams{
				Title:      "ab",
				AssigneeID: 1,
				DueDate:    testNow.Add(time.Hour),
			},
			wantMsg: "invalid title length",
		},
		{
			name: "due date in the past",
			params: CreateTaskParams{
				Title:      "Fix bug",
				AssigneeID: 1,
				DueDate:    testNow.Add(-time.Hour),
			},
			wantMsg: "due date before creation date",
		},
		{
			name: "invalid priority",
			params: CreateTaskParams{
				Title:      "Fix bug",
				AssigneeID: 1,
				DueDate:    testNow.Add(time.Hour),
				Priority:   "Critical",
			},
			wantMsg: "invalid priority",
		},
		{
			name: "unknown tags all named",
			params: CreateTaskParams{
				Title:      "Fix bug",
				AssigneeID: 1,
				DueDate:    testNow.Add(time.Hour),
				TagIDs:     []int64{10, 7, 9},
			},
			wantMsg: "tags not found: 7, 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			seedStore(store)
			svc := newTestTaskService(store)

			_, err := svc.CreateTask(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Zero(t, store.inserted, "nothing may be persisted on rejection")
		})
	}
}

func mustCreateTask(t *testing.T, svc *taskServiceImpl, params CreateTaskParams) *models.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), params)
	require.NoError(t, err)
	return task
}

func TestTaskService_UpdateTask_StatusCoupling(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
	})

	done := models.StatusDone
	updated, err := svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, testNow, *updated.CompletedAt)
	assert.Equal(t, models.StatusDone, updated.Status)

	inProgress := models.StatusInProgress
	updated, err = svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{Status: &inProgress})
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt, "leaving Done clears the completion timestamp")
}

func TestTaskService_UpdateTask_CompletionUntouchedByOtherFields(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
	})

	done := models.StatusDone
	_, err := svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{Status: &done})
	require.NoError(t, err)

	high := models.PriorityHigh
	updated, err := svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{Priority: &high})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt, "priority-only update keeps the timestamp")
	assert.Equal(t, models.StatusDone, updated.Status)

	sameDone := models.StatusDone
	updated, err = svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{Status: &sameDone})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, testNow, *updated.CompletedAt, "Done to Done does not reset the timestamp")
}

func TestTaskService_UpdateTask_PartialSemantics(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:       "Fix bug",
		Description: "crash on startup",
		AssigneeID:  1,
		DueDate:     testNow.Add(24 * time.Hour),
		TagIDs:      []int64{10},
	})

	title := "Fix crash on startup"
	updated, err := svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "crash on startup", updated.Description)
	assert.Equal(t, int64(1), updated.AssigneeID)
	assert.Equal(t, task.DueDate, updated.DueDate)
	assert.Equal(t, []string{"backend"}, updated.TagNames(), "absent tag_ids leaves the set alone")
}

func TestTaskService_UpdateTask_ReplaceAndClearTags(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
		TagIDs:     []int64{10, 11},
	})

	replacement := []int64{11, 12}
	updated, err := svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{TagIDs: &replacement})
	require.NoError(t, err)
	assert.Equal(t, []string{"bug", "infra"}, updated.TagNames())

	empty := []int64{}
	updated, err = svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{TagIDs: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags, "explicit empty list clears all associations")
	assert.Empty(t, store.taskTags[task.ID])
}

func TestTaskService_UpdateTask_AllOrNothing(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
		TagIDs:     []int64{10},
	})
	updatesBefore := store.updated

	title := "Perfectly valid title"
	badTags := []int64{10, 99}
	_, err := svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{
		Title:  &title,
		TagIDs: &badTags,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags not found: 99")

	assert.Equal(t, updatesBefore, store.updated, "rejected update must not write")
	current, err := svc.GetTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fix bug", current.Title)
	assert.Equal(t, []string{"backend"}, current.TagNames())
}

func TestTaskService_UpdateTask_DueDateAgainstCreation(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
	})

	before := task.CreatedAt.Add(-time.Minute)
	_, err := svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{DueDate: &before})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "due date before creation date")

	// Any instant at or after creation is fine, even in the past
	// relative to the wall clock.
	atCreation := task.CreatedAt
	_, err = svc.UpdateTask(context.Background(), task.ID, UpdateTaskParams{DueDate: &atCreation})
	assert.NoError(t, err)
}

func TestTaskService_UpdateTask_NotFound(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	title := "whatever title"
	_, err := svc.UpdateTask(context.Background(), 404, UpdateTaskParams{Title: &title})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_ChangeTaskStatus(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
	})

	updated, err := svc.ChangeTaskStatus(context.Background(), task.ID, models.StatusDone)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)

	updated, err = svc.ChangeTaskStatus(context.Background(), task.ID, models.StatusNew)
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)
}

func TestTaskService_ChangeTaskStatus_Failures(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
	})

	_, err := svc.ChangeTaskStatus(context.Background(), task.ID, "Cancelled")
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "unknown status is a soft failure")
	assert.NotErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.ChangeTaskStatus(context.Background(), 404, models.StatusDone)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_DeleteTask(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
		TagIDs:     []int64{10, 11},
	})

	existed, err := svc.DeleteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Empty(t, store.taskTags[task.ID], "no orphaned associations")

	existed, err = svc.DeleteTask(context.Background(), task.ID)
	require.NoError(t, err, "deleting a missing task is not an error")
	assert.False(t, existed)
}

func seedFilterFixture(t *testing.T, svc *taskServiceImpl) {
	t.Helper()
	mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix login crash",
		AssigneeID: 1,
		DueDate:    testNow.Add(24 * time.Hour),
		TagIDs:     []int64{10, 11},
	})
	mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Provision staging",
		AssigneeID: 2,
		DueDate:    testNow.Add(48 * time.Hour),
		TagIDs:     []int64{12},
	})
	task3 := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Upgrade database",
		AssigneeID: 1,
		DueDate:    testNow.Add(72 * time.Hour),
	})

	done := models.StatusDone
	_, err := svc.UpdateTask(context.Background(), task3.ID, UpdateTaskParams{Status: &done})
	require.NoError(t, err)
}

func TestTaskService_GetTasks(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)
	seedFilterFixture(t, svc)

	ctx := context.Background()

	all, err := svc.GetTasks(ctx, TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "no criteria returns everything")

	byStatus, err := svc.GetTasks(ctx, TaskQuery{Status: models.StatusNew})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	garbage, err := svc.GetTasks(ctx, TaskQuery{Status: "not-a-status"})
	require.NoError(t, err)
	assert.Len(t, garbage, 3, "unparsable status imposes no constraint")

	assignee := int64(1)
	byAssignee, err := svc.GetTasks(ctx, TaskQuery{AssigneeID: &assignee})
	require.NoError(t, err)
	assert.Len(t, byAssignee, 2)

	// Adding a criterion can only narrow the result set.
	narrowed, err := svc.GetTasks(ctx, TaskQuery{Status: models.StatusNew, AssigneeID: &assignee})
	require.NoError(t, err)
	assert.Len(t, narrowed, 1)
	assert.Subset(t, taskIDsOf(byAssignee), taskIDsOf(narrowed))

	dueBefore := testNow.Add(48 * time.Hour)
	byDue, err := svc.GetTasks(ctx, TaskQuery{DueBefore: &dueBefore})
	require.NoError(t, err)
	assert.Len(t, byDue, 2, "due_before bound is inclusive")

	byTags, err := svc.GetTasks(ctx, TaskQuery{TagIDs: []int64{11, 12}})
	require.NoError(t, err)
	assert.Len(t, byTags, 2, "a task matches with any one of the listed tags")
}

func taskIDsOf(tasks []models.Task) []int64 {
	ids := make([]int64, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	return ids
}

func TestTaskService_GetOverdueTasks(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)

	task := mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Fix bug",
		AssigneeID: 1,
		DueDate:    testNow.Add(time.Hour),
	})
	mustCreateTask(t, svc, CreateTaskParams{
		Title:      "Later task",
		AssigneeID: 1,
		DueDate:    testNow.Add(48 * time.Hour),
	})

	svc.now = func() time.Time { return testNow.Add(2 * time.Hour) }

	overdue, err := svc.GetOverdueTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, task.ID, overdue[0].ID)

	// Completing the task removes it from the overdue set.
	_, err = svc.ChangeTaskStatus(context.Background(), task.ID, models.StatusDone)
	require.NoError(t, err)

	overdue, err = svc.GetOverdueTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestTaskService_CountTasksByStatus(t *testing.T) {
	store := newFakeStore()
	seedStore(store)
	svc := newTestTaskService(store)
	seedFilterFixture(t, svc)

	count, err := svc.CountTasksByStatus(context.Background(), models.StatusNew)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = svc.CountTasksByStatus(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "counting is strict about the status value")
}
