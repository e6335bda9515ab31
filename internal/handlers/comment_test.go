package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/chepyr/go-task-tracker/internal/db/dbtest"
)

func TestComments_Flow(t *testing.T) {
	env := setupHTTP(t)
	u := setupTaskUsers(t, env)
	task := dbtest.CreateTask(t, env.conn, "Discuss", u.admin, u.assignee)
	listPath := fmt.Sprintf("/comment/%d", task.ID)
	createPath := fmt.Sprintf("/comment/create/%d", task.ID)

	rec := env.do(t, http.MethodPost, createPath, u.assigneeAuth, map[string]string{"content": "first!"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	commentID := decodeBody[createdResponse](t, rec).ID

	if rec = env.do(t, http.MethodPost, createPath, u.outsiderAuth, map[string]string{"content": "hi"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("outsider create status=%d", rec.Code)
	}
	if rec = env.do(t, http.MethodPost, "/comment/create/9999", u.assigneeAuth, map[string]string{"content": "hi"}); rec.Code != http.StatusNotFound {
		t.Fatalf("create on missing task status=%d", rec.Code)
	}
	if rec = env.do(t, http.MethodPost, createPath, u.assigneeAuth, map[string]string{"content": strings.Repeat("c", 5001)}); rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized comment status=%d", rec.Code)
	}

	comments := decodeBody[[]commentResponse](t, env.do(t, http.MethodGet, listPath, u.adminAuth, nil))
	if len(comments) != 1 || comments[0].AuthorEmail != u.assignee.Email || comments[0].Content != "first!" {
		t.Fatalf("unexpected comments: %+v", comments)
	}
	if rec = env.do(t, http.MethodGet, listPath, u.outsiderAuth, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("outsider list status=%d", rec.Code)
	}

	editPath := fmt.Sprintf("/comment/edit/%d", commentID)
	deletePath := fmt.Sprintf("/comment/delete/%d", commentID)
	if rec = env.do(t, http.MethodPatch, editPath, u.adminAuth, map[string]string{"content": "admin edit"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin editing someone else's comment status=%d", rec.Code)
	}
	if rec = env.do(t, http.MethodDelete, deletePath, u.adminAuth, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin deleting someone else's comment status=%d", rec.Code)
	}
	if rec = env.do(t, http.MethodPatch, editPath, u.assigneeAuth, map[string]string{"content": "edited"}); rec.Code != http.StatusOK {
		t.Fatalf("author edit status=%d body=%s", rec.Code, rec.Body.String())
	}
	comments = decodeBody[[]commentResponse](t, env.do(t, http.MethodGet, listPath, u.assigneeAuth, nil))
	if len(comments) != 1 || comments[0].Content != "edited" {
		t.Fatalf("unexpected comments after edit: %+v", comments)
	}

	if rec = env.do(t, http.MethodDelete, deletePath, u.assigneeAuth, nil); rec.Code != http.StatusOK {
		t.Fatalf("author delete status=%d", rec.Code)
	}
	if rec = env.do(t, http.MethodDelete, deletePath, u.assigneeAuth, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}
}
