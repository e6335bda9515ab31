package handlers

import (
	"time"

	"github.com/chepyr/go-task-tracker/internal/models"
)

type userResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type commentResponse struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"taskId"`
	AuthorEmail string    `json:"authorEmail"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

type taskResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	Status      models.TaskStatus   `json:"status"`
	Author      userResponse        `json:"author"`
	Assignees   []userResponse      `json:"assignees"`
	Comments    []commentResponse   `json:"comments"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type taskPageResponse struct {
	Content       []taskResponse `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func toCommentResponse(c models.Comment) commentResponse {
	return commentResponse{
		ID:          c.ID,
		TaskID:      c.TaskID,
		AuthorEmail: c.AuthorEmail,
		Content:     c.Content,
		CreatedAt:   c.CreatedAt,
	}
}

func toCommentResponses(comments []models.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}

func toTaskResponse(t *models.Task) taskResponse {
	assignees := make([]userResponse, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		assignees = append(assignees, toUserResponse(a))
	}
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Author:      toUserResponse(t.Author),
		Assignees:   assignees,
		Comments:    toCommentResponses(t.Comments),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []models.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}
	return out
}

func toTaskPageResponse(p *models.Page[models.Task]) taskPageResponse {
	return taskPageResponse{
		Content:       toTaskResponses(p.Content),
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
