package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/chepyr/go-task-tracker/internal/access"
	"github.com/chepyr/go-task-tracker/internal/apperr"
	"github.com/chepyr/go-task-tracker/internal/auth"
	"github.com/chepyr/go-task-tracker/internal/db"
	"github.com/chepyr/go-task-tracker/internal/models"
)

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	AssigneeIDs []int64
}

// EditTaskInput holds a partial update. Nil fields are left unchanged.
// A non-nil, empty AssigneeIDs clears the assignee set.
type EditTaskInput struct {
	Title       *string
	Description *string
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
	AssigneeIDs []int64
}

type TaskService struct {
	tasks  db.TaskRepositoryInterface
	users  db.UserRepositoryInterface
	events TaskEvents
}

func NewTaskService(tasks db.TaskRepositoryInterface, users db.UserRepositoryInterface, events TaskEvents) *TaskService {
	if events == nil {
		events = noopEvents{}
	}
	return &TaskService{tasks: tasks, users: users, events: events}
}

func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !access.CanListAllTasks(user) {
		return nil, apperr.Unauthorized("you do not have permission to view all tasks")
	}
	return s.tasks.List(ctx)
}

// Get returns the task with author, assignees and comments.
func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanViewTask(user, task) {
		return nil, apperr.Unauthorized("you do not have permission to view this task")
	}
	return task, nil
}

// Create stores a TODO task authored by the current user. Assignee ids that
// match no user are dropped; if none match, the task is not created.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !access.CanCreateTask(user) {
		return nil, apperr.Unauthorized("only administrators can create tasks")
	}

	ids := uniqueIDs(in.AssigneeIDs)
	assignees, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve assignees: %w", err)
	}
	if len(assignees) == 0 {
		return nil, apperr.ErrTaskCreation
	}
	if dropped := len(ids) - len(assignees); dropped > 0 {
		log.Printf("Dropped %d unknown assignee ids on task create by user %d", dropped, user.ID)
	}

	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      models.TaskStatusToDo,
		AuthorID:    user.ID,
		Author:      *user,
		Assignees:   assignees,
		Comments:    []models.Comment{},
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Edit applies a partial update. Every listed assignee must exist.
func (s *TaskService) Edit(ctx context.Context, id int64, in EditTaskInput) (*models.Task, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !access.CanManageTask(user) {
		return nil, apperr.Unauthorized("only administrators can edit tasks")
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		task.Title = *in.Title
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		task.Description = *in.Description
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Status != nil {
		task.Status = *in.Status
	}

	replace := in.AssigneeIDs != nil
	if replace {
		assignees, err := s.resolveAll(ctx, in.AssigneeIDs)
		if err != nil {
			return nil, err
		}
		task.Assignees = assignees
	}

	if err := s.tasks.Update(ctx, task, replace); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.TaskNotFoundID(id)
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.events.Publish(models.TaskEvent{
		Event: models.EventTaskUpdated, TaskID: task.ID, Title: task.Title, Status: task.Status,
		AssigneeIDs: task.AssigneeIDs(),
	})
	return task, nil
}

// Delete removes the task together with its comments and assignee links.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !access.CanManageTask(user) {
		return apperr.Unauthorized("only administrators can delete tasks")
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.TaskNotFoundID(id)
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.events.Publish(models.TaskEvent{Event: models.EventTaskDeleted, TaskID: id})
	return nil
}

// ListByAuthor pages through tasks written by authorID, who must be an administrator.
func (s *TaskService) ListByAuthor(ctx context.Context, authorID int64, filter models.TaskFilter, page models.PageRequest) (*models.Page[models.Task], error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !access.CanListTasksByAuthor(user) {
		return nil, apperr.Unauthorized("you do not have permission to view this information")
	}

	author, err := s.user(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !author.IsAdmin() {
		return nil, apperr.ErrUserIsNotAdmin
	}

	tasks, total, err := s.tasks.ListByAuthor(ctx, authorID, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list tasks by author: %w", err)
	}
	return models.NewPage(tasks, page, total), nil
}

// ListByAssignee pages through tasks assigned to assigneeID. Users may only list their own.
func (s *TaskService) ListByAssignee(ctx context.Context, assigneeID int64, filter models.TaskFilter, page models.PageRequest) (*models.Page[models.Task], error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !access.CanListTasksByAssignee(user, assigneeID) {
		return nil, apperr.Unauthorized("you do not have permission to view this information")
	}
	if _, err := s.user(ctx, assigneeID); err != nil {
		return nil, err
	}

	tasks, total, err := s.tasks.ListByAssignee(ctx, assigneeID, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list tasks by assignee: %w", err)
	}
	return models.NewPage(tasks, page, total), nil
}

// UpdateStatus sets the task's status. Setting the current status again is a no-op success.
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, status models.TaskStatus) error {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanUpdateTaskStatus(user, task) {
		return apperr.Unauthorized("you do not have permission to change the status of this task")
	}

	if err := s.tasks.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.TaskNotFoundID(id)
		}
		return fmt.Errorf("update status: %w", err)
	}

	s.events.Publish(models.TaskEvent{
		Event: models.EventTaskStatusChanged, TaskID: id, Title: task.Title, Status: status,
		AssigneeIDs: task.AssigneeIDs(),
	})
	return nil
}

// HasAccess reports whether the current user is an administrator or an assignee of the task.
func (s *TaskService) HasAccess(ctx context.Context, taskID int64) (bool, error) {
	_, ok, err := s.Accessible(ctx, taskID)
	return ok, err
}

// Accessible loads the task and reports whether the current user may view it.
// The task is returned even when access is denied.
func (s *TaskService) Accessible(ctx context.Context, taskID int64) (*models.Task, bool, error) {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return nil, false, err
	}
	task, err := s.load(ctx, taskID)
	if err != nil {
		return nil, false, err
	}
	return task, access.CanViewTask(user, task), nil
}

func (s *TaskService) load(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	return task, nil
}

func (s *TaskService) user(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// resolveAll loads every user in ids, failing on the first id that does not exist.
func (s *TaskService) resolveAll(ctx context.Context, ids []int64) ([]models.User, error) {
	ids = uniqueIDs(ids)
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve assignees: %w", err)
	}
	found := make(map[int64]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperr.UserNotFoundID(id)
		}
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
