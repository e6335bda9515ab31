package db_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chepyr/go-task-tracker/internal/db"
	"github.com/chepyr/go-task-tracker/internal/db/dbtest"
	"github.com/chepyr/go-task-tracker/internal/models"
)

func assigneeIDs(task *models.Task) []int64 {
	ids := []int64{}
	for _, a := range task.Assignees {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	conn := dbtest.Open(t)
	repo := db.NewTaskRepository(conn)
	admin := dbtest.CreateUser(t, conn, "admin@example.com", models.RoleAdmin)
	u1 := dbtest.CreateUser(t, conn, "u1@example.com", models.RoleUser)
	u2 := dbtest.CreateUser(t, conn, "u2@example.com", models.RoleUser)

	created := dbtest.CreateTask(t, conn, "Write docs", admin, u2, u1)
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write docs", got.Title)
	assert.Equal(t, models.TaskStatusToDo, got.Status)
	assert.Equal(t, models.TaskPriorityMedium, got.Priority)
	assert.Equal(t, admin.ID, got.Author.ID)
	assert.Equal(t, admin.Email, got.Author.Email)
	assert.Equal(t, models.RoleAdmin, got.Author.Role)
	assert.Equal(t, []int64{u1.ID, u2.ID}, assigneeIDs(got))
	assert.Empty(t, got.Comments)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByID(context.Background(), 9999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestTaskRepository_Create_RollsBackOnBadAssignee(t *testing.T) {
	conn := dbtest.Open(t)
	repo := db.NewTaskRepository(conn)
	admin := dbtest.CreateUser(t, conn, "admin@example.com", models.RoleAdmin)

	task := &models.Task{
		Title: "t", Description: "d", Priority: models.TaskPriorityLow, Status: models.TaskStatusToDo,
		AuthorID: admin.ID, Assignees: []models.User{{ID: 12345}},
	}
	require.Error(t, repo.Create(context.Background(), task))

	var count int
	require.NoError(t, conn.Get(&count, `SELECT COUNT(*) FROM tasks`))
	assert.Zero(t, count, "task row must be rolled back with its assignees")
}

func TestTaskRepository_Update(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := db.NewTaskRepository(conn)
	admin := dbtest.CreateUser(t, conn, "admin@example.com", models.RoleAdmin)
	u1 := dbtest.CreateUser(t, conn, "u1@example.com", models.RoleUser)
	u2 := dbtest.CreateUser(t, conn, "u2@example.com", models.RoleUser)
	task := dbtest.CreateTask(t, conn, "Old", admin, u1)

	task.Title = "New"
	task.Status = models.TaskStatusCompleted
	require.NoError(t, repo.Update(ctx, task, false))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, []int64{u1.ID}, assigneeIDs(got), "assignees untouched without replace")

	got.Assignees = []models.User{*u2}
	require.NoError(t, repo.Update(ctx, got, true))
	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{u2.ID}, assigneeIDs(got))

	got.Assignees = nil
	require.NoError(t, repo.Update(ctx, got, true))
	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Assignees)

	missing := &models.Task{ID: 9999, Title: "x", Description: "x", Priority: models.TaskPriorityLow, Status: models.TaskStatusToDo}
	assert.ErrorIs(t, repo.Update(ctx, missing, true), db.ErrNotFound)
}

func TestTaskRepository_UpdateStatus_Idempotent(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := db.NewTaskRepository(conn)
	admin := dbtest.CreateUser(t, conn, "admin@example.com", models.RoleAdmin)
	task := dbtest.CreateTask(t, conn, "t", admin, admin)

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.UpdateStatus(ctx, task.ID, models.TaskStatusCompleted))
	}
	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 9999, models.TaskStatusCompleted), db.ErrNotFound)
}

func TestTaskRepository_Delete_Cascades(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := db.NewTaskRepository(conn)
	comments := db.NewCommentRepository(conn)
	admin := dbtest.CreateUser(t, conn, "admin@example.com", models.RoleAdmin)
	u1 := dbtest.CreateUser(t, conn, "u1@example.com", models.RoleUser)
	task := dbtest.CreateTask(t, conn, "t", admin, u1)
	other := dbtest.CreateTask(t, conn, "other", admin, u1)

	require.NoError(t, comments.Create(ctx, &models.Comment{TaskID: task.ID, AuthorID: u1.ID, Content: "hi"}))
	require.NoError(t, comments.Create(ctx, &models.Comment{TaskID: other.ID, AuthorID: u1.ID, Content: "keep"}))

	require.NoError(t, repo.Delete(ctx, task.ID))

	_, err := repo.GetByID(ctx, task.ID)
	assert.True(t, errors.Is(err, db.ErrNotFound))

	var links, left int
	require.NoError(t, conn.Get(&links, `SELECT COUNT(*) FROM task_assignees WHERE task_id = ?`, task.ID))
	require.NoError(t, conn.Get(&left, `SELECT COUNT(*) FROM comments`))
	assert.Zero(t, links)
	assert.Equal(t, 1, left, "comments of other tasks survive")

	assert.ErrorIs(t, repo.Delete(ctx, task.ID), db.ErrNotFound)
}

func TestTaskRepository_ListAndPages(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.Open(t)
	repo := db.NewTaskRepository(conn)
	admin := dbtest.CreateUser(t, conn, "admin@example.com", models.RoleAdmin)
	other := dbtest.CreateUser(t, conn, "other@example.com", models.RoleAdmin)
	u1 := dbtest.CreateUser(t, conn, "u1@example.com", models.RoleUser)

	t1 := dbtest.CreateTask(t, conn, "t1", admin, u1)
	t2 := dbtest.CreateTask(t, conn, "t2", admin, u1)
	t3 := dbtest.CreateTask(t, conn, "t3", admin, admin)
	dbtest.CreateTask(t, conn, "t4", other, u1)
	require.NoError(t, repo.UpdateStatus(ctx, t2.ID, models.TaskStatusInProgress))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	tasks, total, err := repo.ListByAuthor(ctx, admin.ID, models.TaskFilter{}, models.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, tasks, 2)
	assert.Equal(t, t1.ID, tasks[0].ID)
	assert.Equal(t, t2.ID, tasks[1].ID)

	tasks, total, err = repo.ListByAuthor(ctx, admin.ID, models.TaskFilter{}, models.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, t3.ID, tasks[0].ID)

	inProgress := models.TaskStatusInProgress
	tasks, total, err = repo.ListByAssignee(ctx, u1.ID, models.TaskFilter{Status: &inProgress}, models.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, t2.ID, tasks[0].ID)
	assert.Equal(t, []int64{u1.ID}, assigneeIDs(&tasks[0]))

	high := models.TaskPriorityHigh
	tasks, total, err = repo.ListByAssignee(ctx, u1.ID, models.TaskFilter{Priority: &high, Status: &inProgress}, models.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, tasks)

	_, total, err = repo.ListByAssignee(ctx, u1.ID, models.TaskFilter{}, models.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestTaskRepository_ListByAssignee_HugePageIsEmpty(t *testing.T) {
	conn := dbtest.Open(t)
	repo := db.NewTaskRepository(conn)
	admin := dbtest.CreateUser(t, conn, "admin@example.com", models.RoleAdmin)
	user := dbtest.CreateUser(t, conn, "user@example.com", models.RoleUser)
	dbtest.CreateTask(t, conn, "Only", admin, user)

	tasks, total, err := repo.ListByAssignee(context.Background(), user.ID, models.TaskFilter{},
		models.PageRequest{Page: math.MaxInt/100 + 1, Size: 100})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, 1, total)
}
