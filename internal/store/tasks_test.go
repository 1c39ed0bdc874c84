package store

import (
	"context"
	"testing"
	"time"

	"github.com/podushkina/taskflow/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTask(name string, status task.Status, priority task.Priority) *task.Task {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &task.Task{
		Name:      name,
		Status:    status,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func seed(t *testing.T, repo Repository, tasks ...*task.Task) {
	t.Helper()
	for _, tsk := range tasks {
		_, err := repo.Save(context.Background(), tsk)
		require.NoError(t, err)
	}
}

func TestRepository_SaveAndFind(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	created, err := repo.Save(ctx, newTask("Draft proposal", task.StatusQueued, task.PriorityHigh))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft proposal", found.Name)
	assert.Equal(t, task.StatusQueued, found.Status)
	assert.Equal(t, task.PriorityHigh, found.Priority)
	assert.True(t, found.CreatedAt.Equal(created.CreatedAt))

	found.Name = "Draft proposal v2"
	found.UpdatedAt = found.UpdatedAt.Add(time.Minute)
	_, err = repo.Save(ctx, found)
	require.NoError(t, err)

	again, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft proposal v2", again.Name)
	assert.True(t, again.UpdatedAt.After(again.CreatedAt))
}

func TestRepository_FindByIDMissing(t *testing.T) {
	repo := setupTestStore(t).Tasks()

	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Filters(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	seed(t, repo,
		newTask("alpha", task.StatusQueued, task.PriorityHigh),
		newTask("beta", task.StatusCompleted, task.PriorityLow),
		newTask("gamma", task.StatusQueued, task.PriorityLow),
	)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)

	queued, err := repo.FindByStatus(ctx, task.StatusQueued)
	require.NoError(t, err)
	assert.Len(t, queued, 2)

	low, err := repo.FindByPriority(ctx, task.PriorityLow)
	require.NoError(t, err)
	assert.Len(t, low, 2)

	none, err := repo.FindByStatus(ctx, task.StatusFailed)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestRepository_SearchIgnoresCase(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	seed(t, repo,
		newTask("Deploy Service", task.StatusQueued, task.PriorityHigh),
		newTask("write docs", task.StatusQueued, task.PriorityLow),
		newTask("100% coverage", task.StatusQueued, task.PriorityLow),
	)

	found, err := repo.FindByNameContainingIgnoreCase(ctx, "SERVICE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Deploy Service", found[0].Name)

	found, err = repo.FindByNameContainingIgnoreCase(ctx, "%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% coverage", found[0].Name)
}

func TestRepository_FindPage(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	seed(t, repo,
		newTask("task c", task.StatusQueued, task.PriorityHigh),
		newTask("task a", task.StatusQueued, task.PriorityLow),
		newTask("task b", task.StatusQueued, task.PriorityMedium),
		newTask("task d", task.StatusQueued, task.PriorityMedium),
		newTask("task e", task.StatusQueued, task.PriorityMedium),
	)

	tasks, total, err := repo.FindPage(ctx, task.PageRequest{Page: 0, Size: 2, SortBy: "name", Direction: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, tasks, 2)
	assert.Equal(t, "task a", tasks[0].Name)
	assert.Equal(t, "task b", tasks[1].Name)

	tasks, total, err = repo.FindPage(ctx, task.PageRequest{Page: 2, Size: 2, SortBy: "id", Direction: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task c", tasks[0].Name)
}

func TestRepository_DeleteAndExists(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	tsk := newTask("remove me", task.StatusQueued, task.PriorityLow)
	seed(t, repo, tsk)

	ok, err := repo.ExistsByName(ctx, "remove me")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, tsk))
	assert.ErrorIs(t, repo.Delete(ctx, tsk), ErrNotFound)

	ok, err = repo.ExistsByName(ctx, "remove me")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_DeleteByStatus(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	seed(t, repo,
		newTask("one", task.StatusFailed, task.PriorityHigh),
		newTask("two", task.StatusFailed, task.PriorityLow),
		newTask("three", task.StatusQueued, task.PriorityLow),
	)

	n, err := repo.DeleteByStatus(ctx, task.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepository_Counts(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	seed(t, repo,
		newTask("one", task.StatusQueued, task.PriorityHigh),
		newTask("two", task.StatusQueued, task.PriorityLow),
		newTask("three", task.StatusCompleted, task.PriorityLow),
	)

	byStatus, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[task.Status]int{task.StatusQueued: 2, task.StatusCompleted: 1}, byStatus)

	byPriority, err := repo.CountByPriority(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[task.Priority]int{task.PriorityHigh: 1, task.PriorityLow: 2}, byPriority)
}

func TestRepository_RunInTxRollsBack(t *testing.T) {
	repo := setupTestStore(t).Tasks()
	ctx := context.Background()

	boom := assert.AnError
	err := repo.RunInTx(ctx, func(ctx context.Context, tx Repository) error {
		if _, err := tx.Save(ctx, newTask("ghost", task.StatusQueued, task.PriorityLow)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := repo.ExistsByName(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen_UnsupportedURL(t *testing.T) {
	_, err := Open(context.Background(), "mysql://localhost/tasks")
	assert.Error(t, err)
}
