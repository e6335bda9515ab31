package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chepyr/go-task-tracker/internal/models"
)

// defines methods for task db operations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task, replaceAssignees bool) error
	UpdateStatus(ctx context.Context, id int64, status models.TaskStatus) error
	Delete(ctx context.Context, id int64) error
	ListByAuthor(ctx context.Context, authorID int64, filter models.TaskFilter, page models.PageRequest) ([]models.Task, int, error)
	ListByAssignee(ctx context.Context, assigneeID int64, filter models.TaskFilter, page models.PageRequest) ([]models.Task, int, error)
}

type TaskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskSelect = `SELECT t.id, t.title, t.description, t.priority, t.status, t.author_id,
	t.created_at, t.updated_at,
	u.id AS "author.id", u.email AS "author.email", u.role AS "author.role"
	FROM tasks t JOIN users u ON u.id = t.author_id`

// Create inserts task and its assignee links in one transaction and sets the task ID.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`INSERT INTO tasks (title, description, priority, status, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
		err := tx.QueryRowxContext(ctx, query,
			task.Title, task.Description, task.Priority, task.Status, task.AuthorID,
			task.CreatedAt, task.UpdatedAt,
		).Scan(&task.ID)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return insertAssignees(ctx, tx, task.ID, task.Assignees)
	})
}

// GetByID loads the task with its author, assignees and comments.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	task := models.Task{}
	err := r.db.GetContext(ctx, &task, r.db.Rebind(taskSelect+` WHERE t.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{task}
	if err := loadRelations(ctx, r.db, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, taskSelect+` ORDER BY t.id`); err != nil {
		return nil, err
	}
	if err := loadRelations(ctx, r.db, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update writes the mutable fields of task. When replaceAssignees is set the
// stored assignee set is replaced by task.Assignees in the same transaction.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task, replaceAssignees bool) error {
	task.UpdatedAt = time.Now().UTC()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE tasks
		 SET title = ?, description = ?, priority = ?, status = ?, updated_at = ?
		 WHERE id = ?`),
			task.Title, task.Description, task.Priority, task.Status, task.UpdatedAt, task.ID)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		if !replaceAssignees {
			return nil
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM task_assignees WHERE task_id = ?`), task.ID); err != nil {
			return fmt.Errorf("clear assignees: %w", err)
		}
		return insertAssignees(ctx, tx, task.ID, task.Assignees)
	})
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`),
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Delete removes the task's comments, its assignee links and the task itself.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, query := range []string{
			`DELETE FROM comments WHERE task_id = ?`,
			`DELETE FROM task_assignees WHERE task_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), id); err != nil {
				return fmt.Errorf("delete task dependents: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return expectAffected(res)
	})
}

func (r *TaskRepository) ListByAuthor(ctx context.Context, authorID int64, filter models.TaskFilter, page models.PageRequest) ([]models.Task, int, error) {
	return r.listPage(ctx, `t.author_id = ?`, authorID, filter, page)
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, assigneeID int64, filter models.TaskFilter, page models.PageRequest) ([]models.Task, int, error) {
	return r.listPage(ctx,
		`EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.id AND ta.user_id = ?)`,
		assigneeID, filter, page)
}

// listPage returns one page of tasks matching cond and filter, plus the total match count.
func (r *TaskRepository) listPage(ctx context.Context, cond string, arg any, filter models.TaskFilter, page models.PageRequest) ([]models.Task, int, error) {
	where := []string{cond}
	args := []any{arg}
	if filter.Priority != nil {
		where = append(where, `t.priority = ?`)
		args = append(args, *filter.Priority)
	}
	if filter.Status != nil {
		where = append(where, `t.status = ?`)
		args = append(args, *filter.Status)
	}
	clause := ` WHERE ` + strings.Join(where, ` AND `)

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM tasks t`+clause), args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	var tasks []models.Task
	query := r.db.Rebind(taskSelect + clause + ` ORDER BY t.id LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &tasks, query, append(args, page.Size, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("select tasks: %w", err)
	}
	if err := loadRelations(ctx, r.db, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func insertAssignees(ctx context.Context, tx *sqlx.Tx, taskID int64, assignees []models.User) error {
	query := tx.Rebind(`INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)`)
	for _, a := range assignees {
		if _, err := tx.ExecContext(ctx, query, taskID, a.ID); err != nil {
			return fmt.Errorf("insert assignee %d: %w", a.ID, err)
		}
	}
	return nil
}

type assigneeRow struct {
	TaskID int64 `db:"task_id"`
	models.User
}

// loadRelations fills Assignees and Comments of every task with one query each.
func loadRelations(ctx context.Context, q sqlx.ExtContext, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]int64, len(tasks))
	index := make(map[int64]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		index[tasks[i].ID] = i
		tasks[i].Assignees = []models.User{}
		tasks[i].Comments = []models.Comment{}
	}

	query, args, err := sqlx.In(`SELECT ta.task_id, u.id, u.email, u.role
	 FROM task_assignees ta JOIN users u ON u.id = ta.user_id
	 WHERE ta.task_id IN (?) ORDER BY u.id`, ids)
	if err != nil {
		return err
	}
	var rows []assigneeRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("load assignees: %w", err)
	}
	for _, row := range rows {
		t := &tasks[index[row.TaskID]]
		t.Assignees = append(t.Assignees, row.User)
	}

	comments, err := selectCommentsByTasks(ctx, q, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		t := &tasks[index[c.TaskID]]
		t.Comments = append(t.Comments, c)
	}
	return nil
}
