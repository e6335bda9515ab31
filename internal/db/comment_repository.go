package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chepyr/go-task-tracker/internal/models"
)

// defines methods for comment db operations
type CommentRepositoryInterface interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}

type CommentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentSelect = `SELECT c.id, c.task_id, c.author_id, u.email AS author_email, c.content, c.created_at
	FROM comments c JOIN users u ON u.id = c.author_id`

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.CreatedAt = time.Now().UTC()

	query := r.db.Rebind(`INSERT INTO comments (task_id, author_id, content, created_at)
	 VALUES (?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowxContext(ctx, query,
		comment.TaskID, comment.AuthorID, comment.Content, comment.CreatedAt,
	).Scan(&comment.ID)
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	comment := &models.Comment{}
	err := r.db.GetContext(ctx, comment, r.db.Rebind(commentSelect+` WHERE c.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByTask returns the task's comments in ascending id order.
func (r *CommentRepository) ListByTask(ctx context.Context, taskID int64) ([]models.Comment, error) {
	comments, err := selectCommentsByTasks(ctx, r.db, []int64{taskID})
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE comments SET content = ? WHERE id = ?`), content, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func selectCommentsByTasks(ctx context.Context, q sqlx.ExtContext, taskIDs []int64) ([]models.Comment, error) {
	query, args, err := sqlx.In(commentSelect+` WHERE c.task_id IN (?) ORDER BY c.id`, taskIDs)
	if err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := sqlx.SelectContext(ctx, q, &comments, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return comments, nil
}
