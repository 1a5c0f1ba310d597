package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasks(t *testing.T) {
	t.Run("Should_create_trimmed_open_task", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		now := time.Date(2026, 3, 1, 9, 30, 15, 250_000_000, time.UTC)
		repo := st.Tasks(WithClock(fixedClock(now)))

		created, err := repo.Create(ctx, "  Buy milk \n")
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		assert.Equal(t, "Buy milk", created.Title)
		assert.False(t, created.Completed)
		assert.True(t, now.Equal(created.CreatedAt))

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, created, tasks[0])
	})

	t.Run("Should_reject_blank_titles_without_inserting", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		repo := st.Tasks()

		for _, title := range []string{"", "   ", "\t\n"} {
			_, err := repo.Create(ctx, title)
			require.ErrorIs(t, err, ErrTitleRequired, "title %q", title)
		}
		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("Should_return_empty_list_for_new_store", func(t *testing.T) {
		st := setupStore(t)
		tasks, err := st.Tasks().List(testCtx(t))
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	t.Run("Should_toggle_back_and_forth", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		repo := st.Tasks()
		created, err := repo.Create(ctx, "flip")
		require.NoError(t, err)

		once, err := repo.Toggle(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, once.Completed)
		assert.Equal(t, created.Title, once.Title)
		assert.Equal(t, created.CreatedAt, once.CreatedAt)

		twice, err := repo.Toggle(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, twice)
	})

	t.Run("Should_fail_toggle_and_delete_for_unknown_id", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		repo := st.Tasks()
		created, err := repo.Create(ctx, "only")
		require.NoError(t, err)

		_, err = repo.Toggle(ctx, created.ID+100)
		require.ErrorIs(t, err, ErrTaskNotFound)
		require.ErrorIs(t, repo.Delete(ctx, created.ID+100), ErrTaskNotFound)
		_, err = repo.Get(ctx, created.ID+100)
		require.ErrorIs(t, err, ErrTaskNotFound)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []Task{created}, tasks)
	})

	t.Run("Should_delete_once", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		repo := st.Tasks()
		keep, err := repo.Create(ctx, "keep")
		require.NoError(t, err)
		drop, err := repo.Create(ctx, "drop")
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, drop.ID))
		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, keep.ID, tasks[0].ID)

		require.ErrorIs(t, repo.Delete(ctx, drop.ID), ErrTaskNotFound)
	})

	t.Run("Should_not_reuse_ids_after_delete", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		repo := st.Tasks()
		first, err := repo.Create(ctx, "first")
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, first.ID))

		second, err := repo.Create(ctx, "second")
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
	})
}

func TestTasksOrdering(t *testing.T) {
	t.Run("Should_list_newest_first", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		repo := st.Tasks(WithClock(fixedClock(
			base,
			base.Add(time.Second),
			base.Add(2*time.Second),
		)))
		for _, title := range []string{"t1", "t2", "t3"} {
			_, err := repo.Create(ctx, title)
			require.NoError(t, err)
		}

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"t3", "t2", "t1"}, titles(tasks))
	})

	t.Run("Should_order_by_time_not_id", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		repo := st.Tasks(WithClock(fixedClock(base.Add(time.Minute), base)))
		_, err := repo.Create(ctx, "later clock")
		require.NoError(t, err)
		_, err = repo.Create(ctx, "earlier clock")
		require.NoError(t, err)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"later clock", "earlier clock"}, titles(tasks))
	})

	t.Run("Should_break_ties_by_id_descending", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		_, err := st.db.ExecContext(ctx, `INSERT INTO tasks (id, title, completed, created_at) VALUES
			(5, 'five', 0, '2026-01-02 03:04:05.000'),
			(7, 'seven', 0, '2026-01-02 03:04:05.000');`)
		require.NoError(t, err)

		tasks, err := st.Tasks().List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, int64(7), tasks[0].ID)
		assert.Equal(t, int64(5), tasks[1].ID)
	})

	t.Run("Should_use_column_default_for_created_at", func(t *testing.T) {
		st := setupStore(t)
		ctx := testCtx(t)
		_, err := st.db.ExecContext(ctx, `INSERT INTO tasks (title) VALUES ('raw');`)
		require.NoError(t, err)

		tasks, err := st.Tasks().List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.False(t, tasks[0].Completed)
		assert.WithinDuration(t, time.Now(), tasks[0].CreatedAt, time.Minute)
	})
}

func titles(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}
