package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chepyr/go-task-tracker/internal/access"
	"github.com/chepyr/go-task-tracker/internal/apperr"
	"github.com/chepyr/go-task-tracker/internal/auth"
	"github.com/chepyr/go-task-tracker/internal/db"
	"github.com/chepyr/go-task-tracker/internal/models"
)

// TaskAccess answers whether the current user may work with a task's comments.
type TaskAccess interface {
	Accessible(ctx context.Context, taskID int64) (*models.Task, bool, error)
}

type CommentService struct {
	comments db.CommentRepositoryInterface
	tasks    TaskAccess
	events   TaskEvents
}

func NewCommentService(comments db.CommentRepositoryInterface, tasks TaskAccess, events TaskEvents) *CommentService {
	if events == nil {
		events = noopEvents{}
	}
	return &CommentService{comments: comments, tasks: tasks, events: events}
}

func (s *CommentService) List(ctx context.Context, taskID int64) ([]models.Comment, error) {
	if _, err := s.requireAccess(ctx, taskID, "you do not have permission to view comments on this task"); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, taskID int64, content string) (*models.Comment, error) {
	task, err := s.requireAccess(ctx, taskID, "you do not have permission to comment on this task")
	if err != nil {
		return nil, err
	}
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:      taskID,
		AuthorID:    user.ID,
		AuthorEmail: user.Email,
		Content:     content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.events.Publish(models.TaskEvent{
		Event: models.EventCommentCreated, TaskID: taskID, CommentID: comment.ID,
		AssigneeIDs: task.AssigneeIDs(),
	})
	return comment, nil
}

// Edit replaces the content of the caller's own comment.
func (s *CommentService) Edit(ctx context.Context, id int64, content string) (*models.Comment, error) {
	comment, err := s.authored(ctx, id, "you do not have permission to edit this comment")
	if err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, id, content); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.ErrCommentNotFound
		}
		return nil, fmt.Errorf("update comment: %w", err)
	}
	comment.Content = content
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.authored(ctx, id, "you do not have permission to delete this comment"); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) requireAccess(ctx context.Context, taskID int64, denied string) (*models.Task, error) {
	task, ok, err := s.tasks.Accessible(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Unauthorized(denied)
	}
	return task, nil
}

// authored loads the comment and checks that the current user wrote it.
func (s *CommentService) authored(ctx context.Context, id int64, denied string) (*models.Comment, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	if !access.CanModifyComment(user, comment) {
		return nil, apperr.Unauthorized(denied)
	}
	return comment, nil
}
