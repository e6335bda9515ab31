package models

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

type Task struct {
	ID          int64        `db:"id"`
	Title       string       `db:"title"`
	Description string       `db:"description"`
	Priority    TaskPriority `db:"priority"`
	Status      TaskStatus   `db:"status"`
	AuthorID    int64        `db:"author_id"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`

	// Author is filled from a join on users; only id, email and role are loaded.
	Author    User      `db:"author"`
	Assignees []User    `db:"-"`
	Comments  []Comment `db:"-"`
}

// HasAssignee reports whether the user with the given id is in the assignee set.
func (t *Task) HasAssignee(userID int64) bool {
	for _, a := range t.Assignees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

func (t *Task) AssigneeIDs() []int64 {
	ids := make([]int64, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.ID)
	}
	return ids
}

// ParseTaskStatus accepts the canonical upper-case names, case-insensitively.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

func ParseTaskPriority(s string) (TaskPriority, error) {
	switch p := TaskPriority(strings.ToUpper(strings.TrimSpace(s))); p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown task priority %q", s)
	}
}

// TaskFilter narrows a task listing. Nil fields are not applied.
type TaskFilter struct {
	Priority *TaskPriority
	Status   *TaskStatus
}

// TaskEvent is pushed to websocket subscribers of a task.
type TaskEvent struct {
	Event  string     `json:"event"`
	TaskID int64      `json:"task_id"`
	Title  string     `json:"title,omitempty"`
	Status TaskStatus `json:"status,omitempty"`
	// CommentID is set for comment events only.
	CommentID int64 `json:"comment_id,omitempty"`

	// AssigneeIDs is the task's assignee set after the change. It decides
	// who may still receive the event and is never sent to clients.
	AssigneeIDs []int64 `json:"-"`
}

// Audience returns a task carrying only what access rules need to decide
// whether a subscriber may see the event.
func (e TaskEvent) Audience() *Task {
	t := &Task{ID: e.TaskID, Assignees: make([]User, 0, len(e.AssigneeIDs))}
	for _, id := range e.AssigneeIDs {
		t.Assignees = append(t.Assignees, User{ID: id})
	}
	return t
}

const (
	EventTaskUpdated       = "task_updated"
	EventTaskStatusChanged = "task_status_changed"
	EventTaskDeleted       = "task_deleted"
	EventCommentCreated    = "comment_created"
)
