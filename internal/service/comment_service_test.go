package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chepyr/go-task-tracker/internal/apperr"
	"github.com/chepyr/go-task-tracker/internal/db/dbtest"
	"github.com/chepyr/go-task-tracker/internal/models"
)

func TestCommentService_CreateAndList(t *testing.T) {
	w := setupTaskWorld(t)
	task := dbtest.CreateTask(t, w.conn, "t", w.admin, w.user5)

	first, err := w.comments.Create(as(w.user5), task.ID, "from assignee")
	require.NoError(t, err)
	assert.Equal(t, w.user5.ID, first.AuthorID)
	assert.Equal(t, w.user5.Email, first.AuthorEmail)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = w.comments.Create(as(w.admin), task.ID, "from admin")
	require.NoError(t, err)

	list, err := w.comments.List(as(w.user5), task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "from assignee", list[0].Content)
	assert.Equal(t, "from admin", list[1].Content)

	_, err = w.comments.Create(as(w.user7), task.ID, "outsider")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = w.comments.List(as(w.user7), task.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = w.comments.Create(as(w.user5), 9999, "nowhere")
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)
	_, err = w.comments.List(as(w.admin), 9999)
	assert.ErrorIs(t, err, apperr.ErrTaskNotFound)

	assert.Contains(t, w.events.names(), models.EventCommentCreated)
}

func TestCommentService_EditDelete_AuthorOnly(t *testing.T) {
	w := setupTaskWorld(t)
	task := dbtest.CreateTask(t, w.conn, "t", w.admin, w.user5, w.user7)
	comment, err := w.comments.Create(as(w.user5), task.ID, "original")
	require.NoError(t, err)

	for _, u := range []*models.User{w.user7, w.admin} {
		_, err = w.comments.Edit(as(u), comment.ID, "hijacked")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		assert.ErrorIs(t, w.comments.Delete(as(u), comment.ID), apperr.ErrUnauthorized)
	}

	list, err := w.comments.List(as(w.admin), task.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "original", list[0].Content, "denied edits leave the comment unchanged")

	edited, err := w.comments.Edit(as(w.user5), comment.ID, "revised")
	require.NoError(t, err)
	assert.Equal(t, "revised", edited.Content)
	assert.Equal(t, task.ID, edited.TaskID)

	require.NoError(t, w.comments.Delete(as(w.user5), comment.ID))
	_, err = w.comments.Edit(as(w.user5), comment.ID, "again")
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)
	assert.ErrorIs(t, w.comments.Delete(as(w.user5), comment.ID), apperr.ErrCommentNotFound)
}
