package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chepyr/go-task-tracker/internal/models"
)

var (
	admin    = &models.User{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin}
	assignee = &models.User{ID: 5, Email: "five@example.com", Role: models.RoleUser}
	outsider = &models.User{ID: 7, Email: "seven@example.com", Role: models.RoleUser}
)

func taskAssignedTo(users ...*models.User) *models.Task {
	t := &models.Task{ID: 10, AuthorID: admin.ID}
	for _, u := range users {
		t.Assignees = append(t.Assignees, *u)
	}
	return t
}

func TestCanViewTask_AdminOrAssignee(t *testing.T) {
	task := taskAssignedTo(assignee)

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{"admin not assigned", admin, true},
		{"assignee", assignee, true},
		{"outsider", outsider, false},
		{"anonymous", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewTask(tt.user, task))
			assert.Equal(t, tt.want, CanUpdateTaskStatus(tt.user, task))
			assert.Equal(t, tt.want, CanViewComments(tt.user, task))
			assert.Equal(t, tt.want, CanCreateComment(tt.user, task))
		})
	}
}

func TestCanViewTask_EmptyAssigneeSet(t *testing.T) {
	task := taskAssignedTo()

	assert.True(t, CanViewTask(admin, task))
	assert.False(t, CanViewTask(assignee, task))
	assert.False(t, CanViewTask(assignee, nil))
}

func TestAdminOnlyRules(t *testing.T) {
	for _, fn := range []func(*models.User) bool{
		CanListAllTasks, CanCreateTask, CanManageTask, CanListTasksByAuthor,
	} {
		assert.True(t, fn(admin))
		assert.False(t, fn(assignee))
		assert.False(t, fn(nil))
	}
}

func TestCanListTasksByAssignee(t *testing.T) {
	assert.False(t, CanListTasksByAssignee(outsider, 5), "user 7 listing user 5")
	assert.True(t, CanListTasksByAssignee(assignee, 5), "user 5 listing self")
	assert.True(t, CanListTasksByAssignee(admin, 5), "admin listing anyone")
	assert.True(t, CanListTasksByAssignee(admin, 999), "admin listing unknown id")
	assert.False(t, CanListTasksByAssignee(nil, 5))
}

func TestCanModifyComment_AuthorOnly(t *testing.T) {
	comment := &models.Comment{ID: 3, TaskID: 10, AuthorID: assignee.ID}

	assert.True(t, CanModifyComment(assignee, comment))
	assert.False(t, CanModifyComment(outsider, comment))
	assert.False(t, CanModifyComment(admin, comment), "admins cannot edit other users' comments")
	assert.False(t, CanModifyComment(nil, comment))
	assert.False(t, CanModifyComment(assignee, nil))
}

func TestCanElevateRole(t *testing.T) {
	assert.True(t, CanElevateRole(outsider, ElevationSelfService))
	assert.False(t, CanElevateRole(outsider, ElevationDisabled))
	assert.False(t, CanElevateRole(nil, ElevationSelfService))

	assert.True(t, ElevationSelfService.Valid())
	assert.False(t, ElevationPolicy("admins-only").Valid())
}
