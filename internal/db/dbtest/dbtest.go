// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chepyr/go-task-tracker/internal/db"
	"github.com/chepyr/go-task-tracker/internal/models"
)

// Open returns a fresh migrated database that is closed when t finishes.
// The pool is pinned to one connection so every query sees the same in-memory database.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	conn, err := db.Connect("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t testing.TB, conn *sqlx.DB, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{Email: email, PasswordHash: "hash", Role: role, CreatedAt: time.Now().UTC()}
	if err := db.NewUserRepository(conn).Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

// CreateTask inserts a MEDIUM priority TODO task authored by author.
func CreateTask(t testing.TB, conn *sqlx.DB, title string, author *models.User, assignees ...*models.User) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:       title,
		Description: title + " description",
		Priority:    models.TaskPriorityMedium,
		Status:      models.TaskStatusToDo,
		AuthorID:    author.ID,
		Author:      *author,
	}
	for _, a := range assignees {
		task.Assignees = append(task.Assignees, *a)
	}
	if err := db.NewTaskRepository(conn).Create(context.Background(), task); err != nil {
		t.Fatalf("Failed to create task %q: %v", title, err)
	}
	return task
}
