package handlers

import (
	"net/http"
	"strconv"
)

type commentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// GET /comment/{taskId}
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	comments, err := h.Comments.List(r.Context(), taskID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, toCommentResponses(comments))
}

// POST /comment/create/{taskId}
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input commentRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.Comments.Create(r.Context(), taskID, input.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/comment/"+strconv.FormatInt(taskID, 10))
	sendJSON(w, http.StatusCreated, createdResponse{Message: "comment created", ID: comment.ID})
}

// PATCH /comment/edit/{id}
func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var input commentRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.Comments.Edit(r.Context(), id, input.Content); err != nil {
		writeError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "comment updated")
}

// DELETE /comment/delete/{id}
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Comments.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "comment deleted")
}
