package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/chepyr/go-task-tracker/internal/models"
	"github.com/chepyr/go-task-tracker/internal/service"
)

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=70"`
	Description string  `json:"description" validate:"required,max=70"`
	Priority    string  `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	AssigneeIDs []int64 `json:"assigneeIds" validate:"required,min=1"`
}

type editTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=70"`
	Description *string `json:"description" validate:"omitempty,max=70"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status      *string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	// nil leaves assignees alone, [] clears them
	AssigneeIDs []int64 `json:"assigneeIds"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=TODO IN_PROGRESS COMPLETED"`
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// GET /task
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// GET /task/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := h.Tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, toTaskResponse(task))
}

// POST /task/create
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var input createTaskRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.Tasks.Create(r.Context(), service.CreateTaskInput{
		Title:       input.Title,
		Description: input.Description,
		Priority:    models.TaskPriority(input.Priority),
		AssigneeIDs: input.AssigneeIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/task/"+strconv.FormatInt(task.ID, 10))
	sendJSON(w, http.StatusCreated, createdResponse{Message: "task created", ID: task.ID})
}

// PATCH /task/edit/{id}
func (h *Handler) EditTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input editTaskRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	edit := service.EditTaskInput{
		Title:       input.Title,
		Description: input.Description,
		AssigneeIDs: input.AssigneeIDs,
	}
	if input.Priority != nil {
		p := models.TaskPriority(*input.Priority)
		edit.Priority = &p
	}
	if input.Status != nil {
		s := models.TaskStatus(*input.Status)
		edit.Status = &s
	}

	if _, err := h.Tasks.Edit(r.Context(), id, edit); err != nil {
		writeError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "task updated")
}

// DELETE /task/delete/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Tasks.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "task deleted")
}

// PATCH /task/status/{id}
func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input statusRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Tasks.UpdateStatus(r.Context(), id, models.TaskStatus(input.Status)); err != nil {
		writeError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "task status updated")
}

// GET /task/author?authorId=&page=&size=&priority=&status=
func (h *Handler) ListTasksByAuthor(w http.ResponseWriter, r *http.Request) {
	q, err := parseTaskPageQuery(r, "authorId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Tasks.ListByAuthor(r.Context(), q.UserID, q.filter, q.page())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, toTaskPageResponse(page))
}

// GET /task/assignee?assigneeId=&page=&size=&priority=&status=
func (h *Handler) ListTasksByAssignee(w http.ResponseWriter, r *http.Request) {
	q, err := parseTaskPageQuery(r, "assigneeId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Tasks.ListByAssignee(r.Context(), q.UserID, q.filter, q.page())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, toTaskPageResponse(page))
}

type taskPageQuery struct {
	UserID int64 `json:"userId" validate:"min=1"`
	Page   int   `json:"page" validate:"min=0"`
	Size   int   `json:"size" validate:"min=1,lte=100"`

	filter models.TaskFilter
}

func (q taskPageQuery) page() models.PageRequest {
	return models.PageRequest{Page: q.Page, Size: q.Size}
}

// parseTaskPageQuery reads the user id (named idParam), pagination and optional filters.
// Every problem is reported at once, keyed by query parameter name.
func parseTaskPageQuery(r *http.Request, idParam string) (*taskPageQuery, error) {
	values := r.URL.Query()
	fields := map[string]string{}

	parseInt := func(name string) int64 {
		raw := values.Get(name)
		if raw == "" {
			fields[name] = "must not be empty"
			return 0
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fields[name] = "must be an integer"
			return 0
		}
		return v
	}

	q := &taskPageQuery{
		UserID: parseInt(idParam),
		Page:   int(parseInt("page")),
		Size:   int(parseInt("size")),
	}
	if raw := values.Get("priority"); raw != "" {
		p, err := models.ParseTaskPriority(raw)
		if err != nil {
			fields["priority"] = "must be one of LOW, MEDIUM, HIGH"
		}
		q.filter.Priority = &p
	}
	if raw := values.Get("status"); raw != "" {
		s, err := models.ParseTaskStatus(raw)
		if err != nil {
			fields["status"] = "must be one of TODO, IN_PROGRESS, COMPLETED"
		}
		q.filter.Status = &s
	}

	if err := validateStruct(q); err != nil {
		var ve *validationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		for name, msg := range ve.fields {
			if name == "userId" {
				name = idParam
			}
			if _, seen := fields[name]; !seen {
				fields[name] = msg
			}
		}
	}
	if _, seen := fields["page"]; !seen && q.Size > 0 && q.Page > math.MaxInt/q.Size {
		fields["page"] = "is too large for the page size"
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}
	return q, nil
}
